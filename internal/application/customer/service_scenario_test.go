package customer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/motoshop/backend/internal/domain/customer"
	"github.com/motoshop/backend/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newMemoryService(t *testing.T) (*CustomerService, *memory.CustomerRepository) {
	t.Helper()
	repo := memory.NewCustomerRepository()
	return NewCustomerService(repo, zaptest.NewLogger(t)), repo
}

func mustCreate(t *testing.T, svc *CustomerService, name, email string, credit float64) *CustomerResponse {
	t.Helper()
	resp, err := svc.Create(context.Background(), CreateCustomerRequest{
		Name:            strPtr(name),
		Email:           strPtr(email),
		AvailableCredit: floatPtr(credit),
	})
	require.NoError(t, err)
	return resp
}

func names(responses []CustomerResponse) []string {
	out := make([]string, len(responses))
	for i, r := range responses {
		out[i] = r.Name
	}
	return out
}

func TestScenario_CreateAssignsUUID(t *testing.T) {
	svc, repo := newMemoryService(t)

	resp := mustCreate(t, svc, "Customer One", "one@example.com", 100)

	_, err := uuid.Parse(resp.ID)
	assert.NoError(t, err)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestScenario_SortByCredit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t)

	mustCreate(t, svc, "Customer A", "a@example.com", 200)
	mustCreate(t, svc, "Customer B", "b@example.com", 150)
	mustCreate(t, svc, "Customer C", "c@example.com", 300)

	desc, err := svc.SortCustomersByCredit(ctx, strPtr("desc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer C", "Customer A", "Customer B"}, names(desc))

	asc, err := svc.SortCustomersByCredit(ctx, strPtr("asc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer B", "Customer A", "Customer C"}, names(asc))

	byDefault, err := svc.SortCustomersByCredit(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, names(desc), names(byDefault))

	// sorting must not reorder the stored customers
	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer A", "Customer B", "Customer C"}, names(all))
}

func TestScenario_SortKeepsTiesInInsertionOrder(t *testing.T) {
	svc, _ := newMemoryService(t)

	mustCreate(t, svc, "First", "first@example.com", 100)
	mustCreate(t, svc, "Second", "second@example.com", 100)
	mustCreate(t, svc, "Third", "third@example.com", 50)

	asc, err := svc.SortCustomersByCredit(context.Background(), strPtr("asc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Third", "First", "Second"}, names(asc))

	desc, err := svc.SortCustomersByCredit(context.Background(), strPtr("desc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second", "Third"}, names(desc))
}

func TestScenario_AddCreditAccumulates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t)

	created := mustCreate(t, svc, "Customer One", "one@example.com", 100)

	resp, err := svc.AddCredit(ctx, AddCreditRequest{ID: strPtr(created.ID), Amount: floatPtr(50)})
	require.NoError(t, err)
	assert.Equal(t, 150.0, resp.AvailableCredit)

	resp, err = svc.AddCredit(ctx, AddCreditRequest{ID: strPtr(created.ID), Amount: floatPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, 150.0, resp.AvailableCredit)

	stored, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, stored.AvailableCredit)
}

func TestScenario_EmailUniqueness(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t)

	one := mustCreate(t, svc, "Customer One", "one@example.com", 0)
	mustCreate(t, svc, "Customer Two", "two@example.com", 0)

	_, err := svc.Create(ctx, CreateCustomerRequest{Name: strPtr("Copycat"), Email: strPtr("one@example.com")})
	assert.ErrorIs(t, err, customer.ErrEmailAlreadyInUse)

	_, err = svc.Update(ctx, one.ID, UpdateCustomerRequest{Email: strPtr("one@example.com"), Name: strPtr("Renamed One")})
	assert.NoError(t, err)

	_, err = svc.Update(ctx, one.ID, UpdateCustomerRequest{Email: strPtr("two@example.com")})
	assert.ErrorIs(t, err, customer.ErrEmailAlreadyInUse)
}

func TestScenario_DeleteThenOperate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t)

	created := mustCreate(t, svc, "Customer One", "one@example.com", 0)
	require.NoError(t, svc.Delete(ctx, created.ID))

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), customer.ErrCustomerNotFound)

	_, err := svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, customer.ErrCustomerNotFound)

	_, err = svc.AddCredit(ctx, AddCreditRequest{ID: strPtr(created.ID), Amount: floatPtr(10)})
	assert.ErrorIs(t, err, customer.ErrCustomerNotFound)
}

func TestScenario_ListByMinimumCredit(t *testing.T) {
	svc, _ := newMemoryService(t)

	mustCreate(t, svc, "Customer A", "a@example.com", 200)
	mustCreate(t, svc, "Customer B", "b@example.com", 150)
	mustCreate(t, svc, "Customer C", "c@example.com", 300)

	result, err := svc.ListByMinimumCredit(context.Background(), 200)
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer A", "Customer C"}, names(result))
}
