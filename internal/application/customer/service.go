package customer

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/motoshop/backend/internal/domain/customer"
	"github.com/motoshop/backend/internal/domain/shared"
	"github.com/motoshop/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const spanService = "customer"

// CustomerService orchestrates validation and persistence for every customer
// use case. It holds no state between calls.
type CustomerService struct {
	repo    customer.Repository
	logger  *zap.Logger
	metrics *telemetry.CustomerMetrics
	newID   func() string
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(repo customer.Repository, logger *zap.Logger) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		repo:   repo,
		logger: logger.Named("customer_service"),
		newID:  uuid.NewString,
	}
}

// SetCustomerMetrics sets the metrics recorder (optional)
func (s *CustomerService) SetCustomerMetrics(m *telemetry.CustomerMetrics) {
	s.metrics = m
}

// Create validates the request and stores a new customer.
// Validation order is name, email (format then uniqueness), credit; each
// property's type is checked when its turn comes.
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "create")
	defer span.End()

	if err := req.typeErrs.require(propName, "string", req.Name != nil); err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}
	if err := customer.ValidateName(*req.Name); err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}
	if err := req.typeErrs.require(propEmail, "string", req.Email != nil); err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}
	if err := customer.ValidateEmail(ctx, *req.Email, s.repo); err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}
	if err := req.typeErrs.check(propAvailableCredit); err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}
	credit := 0.0
	if req.AvailableCredit != nil {
		credit = *req.AvailableCredit
	}
	if err := customer.ValidateAvailableCredit(credit); err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}

	c, err := customer.NewCustomer(s.newID(), *req.Name, *req.Email, credit)
	if err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, c.ID())
	if s.metrics != nil {
		s.metrics.RecordCustomerCreated(ctx)
	}
	s.logger.Info("Customer created",
		zap.String("customer_id", c.ID()),
		zap.String("available_credit", c.AvailableCredit().String()),
	)

	resp := ToCustomerResponse(c)
	return &resp, nil
}

// Update applies the provided fields to an existing customer. Email
// uniqueness is only checked when the email actually changes.
func (s *CustomerService) Update(ctx context.Context, id string, req UpdateCustomerRequest) (*CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "update",
		telemetry.WithAttribute(telemetry.SpanAttrCustomerID, id))
	defer span.End()

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "update", err)
	}

	if err := req.typeErrs.check(propName); err != nil {
		return nil, s.fail(ctx, span, "update", err)
	}
	if req.Name != nil && *req.Name != c.Name() {
		if err := c.SetName(*req.Name); err != nil {
			return nil, s.fail(ctx, span, "update", err)
		}
	}
	if err := req.typeErrs.check(propEmail); err != nil {
		return nil, s.fail(ctx, span, "update", err)
	}
	if req.Email != nil {
		if err := customer.ValidateEmailFormat(*req.Email); err != nil {
			return nil, s.fail(ctx, span, "update", err)
		}
		if *req.Email != c.Email() {
			if err := customer.ValidateEmail(ctx, *req.Email, s.repo); err != nil {
				return nil, s.fail(ctx, span, "update", err)
			}
			if err := c.SetEmail(*req.Email); err != nil {
				return nil, s.fail(ctx, span, "update", err)
			}
		}
	}
	if err := req.typeErrs.check(propAvailableCredit); err != nil {
		return nil, s.fail(ctx, span, "update", err)
	}
	if req.AvailableCredit != nil {
		if err := c.SetAvailableCredit(*req.AvailableCredit); err != nil {
			return nil, s.fail(ctx, span, "update", err)
		}
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, s.fail(ctx, span, "update", err)
	}

	s.logger.Info("Customer updated", zap.String("customer_id", id))
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// Delete removes an existing customer
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "delete",
		telemetry.WithAttribute(telemetry.SpanAttrCustomerID, id))
	defer span.End()

	if err := customer.ValidateCustomerExists(ctx, id, s.repo); err != nil {
		return s.fail(ctx, span, "delete", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail(ctx, span, "delete", err)
	}

	if s.metrics != nil {
		s.metrics.RecordCustomerDeleted(ctx)
	}
	s.logger.Info("Customer deleted", zap.String("customer_id", id))
	return nil
}

// AddCredit adds a non-negative amount to a customer's available credit
func (s *CustomerService) AddCredit(ctx context.Context, req AddCreditRequest) (*CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "add_credit")
	defer span.End()

	if req.ID == nil {
		return nil, s.fail(ctx, span, "add_credit", customer.NewInvalidTypeError("id", "string", "undefined"))
	}
	if req.Amount == nil {
		return nil, s.fail(ctx, span, "add_credit", customer.NewInvalidTypeError("amount", "number", "undefined"))
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerID, *req.ID,
		telemetry.SpanAttrAmount, *req.Amount,
	)

	c, err := s.load(ctx, *req.ID)
	if err != nil {
		return nil, s.fail(ctx, span, "add_credit", err)
	}
	if err := c.AddCredit(*req.Amount); err != nil {
		return nil, s.fail(ctx, span, "add_credit", err)
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, s.fail(ctx, span, "add_credit", err)
	}

	if s.metrics != nil {
		s.metrics.RecordCreditAdded(ctx, decimal.NewFromFloat(*req.Amount))
	}
	s.logger.Info("Credit added",
		zap.String("customer_id", c.ID()),
		zap.Float64("amount", *req.Amount),
		zap.String("available_credit", c.AvailableCredit().String()),
	)

	resp := ToCustomerResponse(c)
	return &resp, nil
}

// SortCustomersByCredit returns every customer ordered by available credit.
// A nil order sorts descending; customers with equal credit keep the
// repository order.
func (s *CustomerService) SortCustomersByCredit(ctx context.Context, order *string) ([]CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "sort_by_credit")
	defer span.End()

	sortOrder, err := customer.ValidateSortOrder(order)
	if err != nil {
		return nil, s.fail(ctx, span, "sort_by_credit", err)
	}
	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, "sort_by_credit", err)
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSortOrder, string(sortOrder),
		telemetry.SpanAttrCount, len(customers),
	)
	return ToCustomerResponses(customer.SortByCredit(customers, sortOrder)), nil
}

// List returns every customer
func (s *CustomerService) List(ctx context.Context) ([]CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "list")
	defer span.End()

	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, "list", err)
	}
	return ToCustomerResponses(customers), nil
}

// ListByMinimumCredit returns customers whose available credit is at least minCredit
func (s *CustomerService) ListByMinimumCredit(ctx context.Context, minCredit float64) ([]CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "list_by_minimum_credit")
	defer span.End()

	if err := customer.ValidateAvailableCredit(minCredit); err != nil {
		return nil, s.fail(ctx, span, "list_by_minimum_credit", err)
	}
	customers, err := s.repo.FindByAvailableCredit(ctx, decimal.NewFromFloat(minCredit))
	if err != nil {
		return nil, s.fail(ctx, span, "list_by_minimum_credit", err)
	}
	return ToCustomerResponses(customers), nil
}

// GetByID returns a customer. A missing customer is always reported as
// customer.ErrCustomerNotFound.
func (s *CustomerService) GetByID(ctx context.Context, id string) (*CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "get_by_id",
		telemetry.WithAttribute(telemetry.SpanAttrCustomerID, id))
	defer span.End()

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "get_by_id", err)
	}
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// load confirms the customer exists and then reads it. The second nil check
// covers a delete landing between the two reads.
func (s *CustomerService) load(ctx context.Context, id string) (*customer.Customer, error) {
	if err := customer.ValidateCustomerExists(ctx, id, s.repo); err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, customer.ErrCustomerNotFound
	}
	return c, nil
}

// fail records err on the span and in metrics and returns it unchanged
func (s *CustomerService) fail(ctx context.Context, span trace.Span, op string, err error) error {
	telemetry.RecordError(span, err)

	code := "INTERNAL"
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code = domainErr.Code
	} else {
		s.logger.Error("Customer operation failed", zap.String("operation", op), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordOperationError(ctx, op, code)
	}
	return err
}
