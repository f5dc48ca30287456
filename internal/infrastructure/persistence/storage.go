package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/motoshop/backend/internal/domain/customer"
	"github.com/motoshop/backend/internal/infrastructure/cache"
	"github.com/motoshop/backend/internal/infrastructure/config"
	"github.com/motoshop/backend/internal/infrastructure/logger"
	"github.com/motoshop/backend/internal/infrastructure/persistence/dynamo"
	"github.com/motoshop/backend/internal/infrastructure/persistence/memory"
	"github.com/motoshop/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Storage is the customer repository selected by configuration together
// with the connections backing it
type Storage struct {
	Customers customer.Repository
	Driver    string
	Database  *Database

	counter interface {
		Count(ctx context.Context) (int64, error)
	}
	pingers []func(context.Context) error
	closers []func() error
}

// NewStorage opens the backend named by cfg.Storage.Driver and, when
// enabled, wraps it with the Redis read cache
func NewStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Storage, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Storage{Driver: cfg.Storage.Driver}

	if err := s.openBackend(ctx, cfg, log); err != nil {
		_ = s.Close()
		return nil, err
	}

	if cfg.Storage.CacheEnabled {
		client, err := cache.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		s.pingers = append(s.pingers, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		cached := cache.NewCustomerCache(s.Customers, client,
			cache.WithTTL(cfg.Redis.CacheTTL),
			cache.WithCacheLogger(log.Named("customer_cache")),
		)
		s.Customers = cached
		s.counter = cached
	}

	log.Info("Customer storage ready",
		zap.String("driver", s.Driver),
		zap.Bool("cache_enabled", cfg.Storage.CacheEnabled),
	)
	return s, nil
}

func (s *Storage) openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		repo := memory.NewCustomerRepository()
		s.Customers, s.counter = repo, repo
		return nil

	case config.DriverPostgres, config.DriverSQLite:
		db, err := s.openDatabase(cfg, log)
		if err != nil {
			return err
		}
		s.Database = db
		s.closers = append(s.closers, db.Close)
		s.pingers = append(s.pingers, db.Ping)

		if cfg.Storage.AutoMigrate || cfg.Storage.Driver == config.DriverSQLite {
			if err := db.AutoMigrate(); err != nil {
				return err
			}
		}
		repo := NewGormCustomerRepository(db.DB)
		s.Customers, s.counter = repo, repo
		return nil

	case config.DriverDynamoDB:
		client, err := dynamo.NewClient(ctx, &cfg.DynamoDB)
		if err != nil {
			return err
		}
		if cfg.Storage.AutoMigrate {
			if err := dynamo.EnsureTable(ctx, client, cfg.DynamoDB.Table, log); err != nil {
				return err
			}
		}
		table := cfg.DynamoDB.Table
		s.pingers = append(s.pingers, func(ctx context.Context) error {
			_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
			return err
		})
		repo := dynamo.NewCustomerRepository(client, table)
		s.Customers, s.counter = repo, repo
		return nil

	default:
		return fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func (s *Storage) openDatabase(cfg *config.Config, log *zap.Logger) (*Database, error) {
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)

	var (
		db     *Database
		err    error
		system string
	)
	if cfg.Storage.Driver == config.DriverSQLite {
		db, err = NewSQLiteDatabase(cfg.SQLite.Path, WithLogger(gormLogger))
		system = "sqlite"
	} else {
		db, err = NewDatabase(&cfg.Database, WithLogger(gormLogger))
		system = "postgresql"
	}
	if err != nil {
		return nil, err
	}

	tracingCfg := telemetry.DefaultDBTracingConfig()
	tracingCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	tracingCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	tracingCfg.DBSystem = system
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		tracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if err := telemetry.NewDBTracingPlugin(tracingCfg, log).Register(db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to register database tracing: %w", err)
	}
	return db, nil
}

// Count returns the number of stored customers
func (s *Storage) Count(ctx context.Context) (int64, error) {
	if s.counter == nil {
		return 0, errors.New("storage is not open")
	}
	return s.counter.Count(ctx)
}

// Ping checks every connection backing the storage
func (s *Storage) Ping(ctx context.Context) error {
	for _, ping := range s.pingers {
		if err := ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases connections in reverse order of opening
func (s *Storage) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
