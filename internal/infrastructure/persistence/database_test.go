package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	zaplogger "github.com/motoshop/backend/internal/infrastructure/logger"
	"github.com/motoshop/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDatabase creates a Database instance with a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewDatabaseFromGorm(gormDB), mock, mockDB
}

func TestConnectionStats_Struct(t *testing.T) {
	stats := ConnectionStats{
		OpenConnections: 10,
		InUse:           6,
		Idle:            4,
		WaitDuration:    5 * time.Second,
	}

	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
	assert.Equal(t, 5*time.Second, stats.WaitDuration)
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats, err := db.Stats()

	assert.NoError(t, err)
	assert.IsType(t, ConnectionStats{}, stats)
}

func TestDatabase_Ping(t *testing.T) {
	t.Run("successful ping", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectPing()

		assert.NoError(t, db.Ping(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed ping", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		assert.Error(t, db.Ping(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()

	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSQLiteDatabase(t *testing.T) {
	t.Run("opens in-memory database on a single connection", func(t *testing.T) {
		db, err := NewSQLiteDatabase(":memory:")
		require.NoError(t, err)
		defer db.Close()

		stats, err := db.Stats()
		require.NoError(t, err)
		assert.Equal(t, 1, stats.MaxOpenConnections)
		assert.NoError(t, db.Ping(context.Background()))
	})

	t.Run("enables error translation", func(t *testing.T) {
		db, err := NewSQLiteDatabase(":memory:")
		require.NoError(t, err)
		defer db.Close()

		assert.True(t, db.DB.Config.TranslateError)
		assert.True(t, db.DB.Config.SkipDefaultTransaction)
	})

	t.Run("applies logger option", func(t *testing.T) {
		gormLogger := zaplogger.NewGormLogger(zap.NewNop(), logger.Warn, time.Second)

		db, err := NewSQLiteDatabase(":memory:", WithLogger(gormLogger))
		require.NoError(t, err)
		defer db.Close()

		assert.Same(t, gormLogger, db.DB.Config.Logger)
	})
}

func TestDatabase_AutoMigrate(t *testing.T) {
	db, err := NewSQLiteDatabase(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.AutoMigrate())

	assert.True(t, db.DB.Migrator().HasTable(&models.CustomerModel{}))
	assert.True(t, db.DB.Migrator().HasIndex(&models.CustomerModel{}, "idx_customers_email"))
}

func TestNewGormConfig(t *testing.T) {
	cfg := newGormConfig(nil)

	assert.True(t, cfg.TranslateError)
	assert.False(t, cfg.PrepareStmt)
	assert.NotNil(t, cfg.Logger)
	assert.IsType(t, &gorm.Config{}, cfg)
}
