package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/motoshop/backend/internal/domain/customer"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultKeyPrefix     = "motoshop:customer:"
	defaultTTL           = 5 * time.Minute
	defaultScanBatchSize = 100
)

// RedisClient is the subset of *redis.Client the customer cache needs
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// CustomerCache is a read-through cache of customers by id in front of any
// customer.Repository. Writes go to the wrapped repository first and then
// refresh or drop the cached entry. Redis failures are logged and the call
// falls through to the repository.
type CustomerCache struct {
	next      customer.Repository
	client    RedisClient
	ttl       time.Duration
	keyPrefix string
	logger    *zap.Logger
}

// CustomerCacheOption is a functional option for configuring the cache
type CustomerCacheOption func(*CustomerCache)

// WithTTL sets how long entries live
func WithTTL(ttl time.Duration) CustomerCacheOption {
	return func(c *CustomerCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the key namespace
func WithKeyPrefix(prefix string) CustomerCacheOption {
	return func(c *CustomerCache) {
		if prefix != "" {
			c.keyPrefix = prefix
		}
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) CustomerCacheOption {
	return func(c *CustomerCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCustomerCache wraps next with a Redis cache
func NewCustomerCache(next customer.Repository, client RedisClient, opts ...CustomerCacheOption) *CustomerCache {
	c := &CustomerCache{
		next:      next,
		client:    client,
		ttl:       defaultTTL,
		keyPrefix: defaultKeyPrefix,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cachedCustomer struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (c *CustomerCache) key(id string) string {
	return c.keyPrefix + id
}

// Create stores the customer and primes the cache
func (c *CustomerCache) Create(ctx context.Context, cust *customer.Customer) error {
	if err := c.next.Create(ctx, cust); err != nil {
		return err
	}
	c.store(ctx, cust)
	return nil
}

// FindAll always reads the wrapped repository
func (c *CustomerCache) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	return c.next.FindAll(ctx)
}

// FindByID serves from cache when possible and fills it on a miss.
// Missing customers are not cached.
func (c *CustomerCache) FindByID(ctx context.Context, id string) (*customer.Customer, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		var cached cachedCustomer
		if err := json.Unmarshal(data, &cached); err == nil {
			return customer.Reconstitute(cached.ID, cached.Name, cached.Email, cached.AvailableCredit, cached.CreatedAt, cached.UpdatedAt), nil
		}
		c.logger.Warn("Discarding undecodable cache entry", zap.String("customer_id", id))
	case errors.Is(err, redis.Nil):
		c.logger.Debug("Cache miss for customer", zap.String("customer_id", id))
	default:
		c.logger.Warn("Failed to read customer from cache", zap.String("customer_id", id), zap.Error(err))
	}

	cust, err := c.next.FindByID(ctx, id)
	if err != nil || cust == nil {
		return cust, err
	}
	c.store(ctx, cust)
	return cust, nil
}

// FindByEmail always reads the wrapped repository so uniqueness checks see fresh data
func (c *CustomerCache) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	return c.next.FindByEmail(ctx, email)
}

// Update writes through and drops the cached entry
func (c *CustomerCache) Update(ctx context.Context, cust *customer.Customer) error {
	err := c.next.Update(ctx, cust)
	c.invalidate(ctx, cust.ID())
	return err
}

// Delete removes the customer and drops the cached entry
func (c *CustomerCache) Delete(ctx context.Context, id string) error {
	err := c.next.Delete(ctx, id)
	c.invalidate(ctx, id)
	return err
}

// FindByAvailableCredit always reads the wrapped repository
func (c *CustomerCache) FindByAvailableCredit(ctx context.Context, minCredit decimal.Decimal) ([]*customer.Customer, error) {
	return c.next.FindByAvailableCredit(ctx, minCredit)
}

// Clear empties the wrapped repository and every key under the cache prefix
func (c *CustomerCache) Clear(ctx context.Context) error {
	if err := c.next.Clear(ctx); err != nil {
		return err
	}

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.keyPrefix+"*", defaultScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan customer cache: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to clear customer cache: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Count delegates to the wrapped repository when it can count
func (c *CustomerCache) Count(ctx context.Context) (int64, error) {
	counter, ok := c.next.(interface {
		Count(ctx context.Context) (int64, error)
	})
	if !ok {
		all, err := c.next.FindAll(ctx)
		if err != nil {
			return 0, err
		}
		return int64(len(all)), nil
	}
	return counter.Count(ctx)
}

func (c *CustomerCache) store(ctx context.Context, cust *customer.Customer) {
	data, err := json.Marshal(cachedCustomer{
		ID:              cust.ID(),
		Name:            cust.Name(),
		Email:           cust.Email(),
		AvailableCredit: cust.AvailableCredit(),
		CreatedAt:       cust.CreatedAt(),
		UpdatedAt:       cust.UpdatedAt(),
	})
	if err != nil {
		c.logger.Warn("Failed to encode customer for cache", zap.String("customer_id", cust.ID()), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(cust.ID()), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache customer", zap.String("customer_id", cust.ID()), zap.Error(err))
	}
}

func (c *CustomerCache) invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		c.logger.Warn("Failed to invalidate cached customer", zap.String("customer_id", id), zap.Error(err))
	}
}

var _ customer.Repository = (*CustomerCache)(nil)
