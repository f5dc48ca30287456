//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/motoshop/backend/internal/domain/customer"
	"github.com/motoshop/backend/internal/infrastructure/migration"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newPostgresRepository starts a PostgreSQL container, applies the SQL
// migrations and returns a repository bound to it
func newPostgresRepository(t *testing.T) *GormCustomerRepository {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("motoshop_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	migrationsPath, err := filepath.Abs(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	m, err := migration.New(sqlDB, migrationsPath, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())

	db, err := gorm.Open(gormpostgres.Open(dsn), newGormConfig(nil))
	require.NoError(t, err)

	return NewGormCustomerRepository(db)
}

func TestGormCustomerRepository_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	repo := newPostgresRepository(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	for i, seed := range []struct {
		id     string
		credit int64
	}{{"a", 200}, {"b", 150}, {"c", 300}} {
		at := base.Add(time.Duration(i) * time.Second)
		c := customer.Reconstitute(seed.id, "Customer "+seed.id, seed.id+"@example.com", decimal.NewFromInt(seed.credit), at, at)
		require.NoError(t, repo.Create(ctx, c))
	}

	t.Run("unique email index maps to domain error", func(t *testing.T) {
		dup := customer.Reconstitute("d", "Customer d", "a@example.com", decimal.Zero, base, base)
		assert.ErrorIs(t, repo.Create(ctx, dup), customer.ErrEmailAlreadyInUse)
	})

	t.Run("filters by minimum credit in creation order", func(t *testing.T) {
		result, err := repo.FindByAvailableCredit(ctx, decimal.NewFromInt(200))
		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, "a", result[0].ID())
		assert.Equal(t, "c", result[1].ID())
	})

	t.Run("updates credit with decimal precision", func(t *testing.T) {
		c, err := repo.FindByID(ctx, "b")
		require.NoError(t, err)
		require.NoError(t, c.AddCredit(0.25))
		require.NoError(t, repo.Update(ctx, c))

		reloaded, err := repo.FindByID(ctx, "b")
		require.NoError(t, err)
		assert.True(t, reloaded.AvailableCredit().Equal(decimal.RequireFromString("150.25")))
	})

	t.Run("keeps sub-cent and very large credit exact", func(t *testing.T) {
		c, err := repo.FindByID(ctx, "c")
		require.NoError(t, err)
		require.NoError(t, c.AddCredit(0.004))
		require.NoError(t, repo.Update(ctx, c))

		reloaded, err := repo.FindByID(ctx, "c")
		require.NoError(t, err)
		assert.True(t, reloaded.AvailableCredit().Equal(decimal.RequireFromString("300.004")), reloaded.AvailableCredit().String())

		require.NoError(t, c.SetAvailableCredit(1e20))
		require.NoError(t, repo.Update(ctx, c))
		reloaded, err = repo.FindByID(ctx, "c")
		require.NoError(t, err)
		assert.True(t, reloaded.AvailableCredit().Equal(decimal.New(1, 20)), reloaded.AvailableCredit().String())
	})

	t.Run("deletes and clears", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "a"))
		assert.ErrorIs(t, repo.Delete(ctx, "a"), customer.ErrCustomerNotFound)

		require.NoError(t, repo.Clear(ctx))
		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
