package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/motoshop/backend/internal/domain/customer"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCustomerTestDB(t *testing.T) *GormCustomerRepository {
	t.Helper()
	db, err := NewSQLiteDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.AutoMigrate())
	return NewGormCustomerRepository(db.DB)
}

func seedCustomer(t *testing.T, repo *GormCustomerRepository, id, email string, credit int64, createdAt time.Time) {
	t.Helper()
	c := customer.Reconstitute(id, "Customer "+id, email, decimal.NewFromInt(credit), createdAt, createdAt)
	require.NoError(t, repo.Create(context.Background(), c))
}

func TestGormCustomerRepository_SQLite_CreateAndFind(t *testing.T) {
	repo := setupCustomerTestDB(t)
	ctx := context.Background()

	c, err := customer.NewCustomer("c-1", "Customer One", "one@example.com", 150.5)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, c))

	found, err := repo.FindByID(ctx, "c-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Customer One", found.Name())
	assert.Equal(t, "one@example.com", found.Email())
	assert.True(t, found.AvailableCredit().Equal(decimal.RequireFromString("150.5")))

	byEmail, err := repo.FindByEmail(ctx, "one@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "c-1", byEmail.ID())

	missing, err := repo.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormCustomerRepository_SQLite_DuplicateEmail(t *testing.T) {
	repo := setupCustomerTestDB(t)
	base := time.Now()
	seedCustomer(t, repo, "c-1", "one@example.com", 0, base)

	dup := customer.Reconstitute("c-2", "Customer Two", "one@example.com", decimal.Zero, base, base)
	err := repo.Create(context.Background(), dup)

	assert.ErrorIs(t, err, customer.ErrEmailAlreadyInUse)
}

func TestGormCustomerRepository_SQLite_OrderingAndFilter(t *testing.T) {
	repo := setupCustomerTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	seedCustomer(t, repo, "a", "a@example.com", 200, base)
	seedCustomer(t, repo, "b", "b@example.com", 150, base.Add(time.Second))
	seedCustomer(t, repo, "c", "c@example.com", 300, base.Add(2*time.Second))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID(), all[1].ID(), all[2].ID()})

	rich, err := repo.FindByAvailableCredit(ctx, decimal.NewFromInt(200))
	require.NoError(t, err)
	require.Len(t, rich, 2)
	assert.Equal(t, "a", rich[0].ID())
	assert.Equal(t, "c", rich[1].ID())
}

func TestGormCustomerRepository_SQLite_UpdateDeleteClear(t *testing.T) {
	repo := setupCustomerTestDB(t)
	ctx := context.Background()
	base := time.Now()
	seedCustomer(t, repo, "c-1", "one@example.com", 100, base)
	seedCustomer(t, repo, "c-2", "two@example.com", 0, base.Add(time.Millisecond))

	c, err := repo.FindByID(ctx, "c-1")
	require.NoError(t, err)
	require.NoError(t, c.AddCredit(50))
	require.NoError(t, repo.Update(ctx, c))

	updated, err := repo.FindByID(ctx, "c-1")
	require.NoError(t, err)
	assert.True(t, updated.AvailableCredit().Equal(decimal.NewFromInt(150)))

	require.NoError(t, c.SetEmail("two@example.com"))
	assert.ErrorIs(t, repo.Update(ctx, c), customer.ErrEmailAlreadyInUse)

	ghost := customer.Reconstitute("ghost", "Ghost Rider", "ghost@example.com", decimal.Zero, base, base)
	assert.ErrorIs(t, repo.Update(ctx, ghost), customer.ErrCustomerNotFound)

	require.NoError(t, repo.Delete(ctx, "c-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "c-1"), customer.ErrCustomerNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Clear(ctx))
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
