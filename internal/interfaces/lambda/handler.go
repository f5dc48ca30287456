// Package lambda serves the customer API from AWS Lambda behind an API
// Gateway proxy integration. Responses use the same envelope and status
// codes as the HTTP server.
package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	customerapp "github.com/motoshop/backend/internal/application/customer"
	"github.com/motoshop/backend/internal/domain/customer"
	"github.com/motoshop/backend/internal/infrastructure/logger"
	"github.com/motoshop/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Handler adapts API Gateway proxy events to CustomerService calls.
// Route is its only entrypoint.
type Handler struct {
	service  *customerapp.CustomerService
	logger   *zap.Logger
	validate *validator.Validate
}

// NewHandler creates a new Handler
func NewHandler(service *customerapp.CustomerService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.SetTagName("binding")
	validate.RegisterTagNameFunc(dto.JSONFieldName)

	return &Handler{
		service:  service,
		logger:   log.Named("lambda"),
		validate: validate,
	}
}

// invocation carries the per-request values every operation needs
type invocation struct {
	ctx       context.Context
	log       *zap.Logger
	requestID string
}

func (h *Handler) begin(ctx context.Context, req events.APIGatewayProxyRequest) invocation {
	requestID := req.RequestContext.RequestID
	if requestID == "" {
		requestID = req.Headers[requestIDHeader]
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx, log := logger.WithRequestID(ctx, h.logger.With(
		zap.String("method", req.HTTPMethod),
		zap.String("path", req.Path),
	), requestID)
	return invocation{ctx: ctx, log: log, requestID: requestID}
}

// decode unmarshals the request body into obj and validates it. An empty
// body decodes as an empty object.
func (h *Handler) decode(req events.APIGatewayProxyRequest, obj any) error {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return dto.BindError(err)
		}
		body = decoded
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, obj); err != nil {
			return dto.BindError(err)
		}
	}
	if err := h.validate.Struct(obj); err != nil {
		return dto.BindError(err)
	}
	return nil
}

func (inv invocation) fail(err error) events.APIGatewayProxyResponse {
	return errorResponse(inv.log, err, inv.requestID)
}

// create handles POST /customers
func (h *Handler) create(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	inv := h.begin(ctx, req)

	var body customerapp.CreateCustomerRequest
	if err := h.decode(req, &body); err != nil {
		return inv.fail(err), nil
	}
	resp, err := h.service.Create(inv.ctx, body)
	if err != nil {
		return inv.fail(err), nil
	}
	return success(http.StatusCreated, resp, inv.requestID), nil
}

// list handles GET /customers, filtering by the optional minCredit query parameter
func (h *Handler) list(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	inv := h.begin(ctx, req)

	raw, filtered := req.QueryStringParameters["minCredit"]
	if !filtered {
		customers, err := h.service.List(inv.ctx)
		if err != nil {
			return inv.fail(err), nil
		}
		return success(http.StatusOK, customers, inv.requestID), nil
	}

	minCredit, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return inv.fail(customer.NewInvalidTypeError("minCredit", "number", "string")), nil
	}
	customers, err := h.service.ListByMinimumCredit(inv.ctx, minCredit)
	if err != nil {
		return inv.fail(err), nil
	}
	return success(http.StatusOK, customers, inv.requestID), nil
}

// getByID handles GET /customers/{id}
func (h *Handler) getByID(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	inv := h.begin(ctx, req)

	resp, err := h.service.GetByID(inv.ctx, req.PathParameters["id"])
	if err != nil {
		return inv.fail(err), nil
	}
	return success(http.StatusOK, resp, inv.requestID), nil
}

// update handles PUT /customers/{id}
func (h *Handler) update(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	inv := h.begin(ctx, req)

	var body customerapp.UpdateCustomerRequest
	if err := h.decode(req, &body); err != nil {
		return inv.fail(err), nil
	}
	resp, err := h.service.Update(inv.ctx, req.PathParameters["id"], body)
	if err != nil {
		return inv.fail(err), nil
	}
	return success(http.StatusOK, resp, inv.requestID), nil
}

// delete handles DELETE /customers/{id}
func (h *Handler) delete(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	inv := h.begin(ctx, req)

	if err := h.service.Delete(inv.ctx, req.PathParameters["id"]); err != nil {
		return inv.fail(err), nil
	}
	return success(http.StatusNoContent, nil, inv.requestID), nil
}

// addCredit handles POST /customers/credit
func (h *Handler) addCredit(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	inv := h.begin(ctx, req)

	var body customerapp.AddCreditRequest
	if err := h.decode(req, &body); err != nil {
		return inv.fail(err), nil
	}
	resp, err := h.service.AddCredit(inv.ctx, body)
	if err != nil {
		return inv.fail(err), nil
	}
	return success(http.StatusOK, resp, inv.requestID), nil
}

// sortByCredit handles GET /customers/sortByCredit
func (h *Handler) sortByCredit(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	inv := h.begin(ctx, req)

	var order *string
	if raw, ok := req.QueryStringParameters["order"]; ok {
		order = &raw
	}
	customers, err := h.service.SortCustomersByCredit(inv.ctx, order)
	if err != nil {
		return inv.fail(err), nil
	}
	return success(http.StatusOK, customers, inv.requestID), nil
}

// logged wraps an operation with a completion log line, at a level chosen
// by status code.
func (h *Handler) logged(ctx context.Context, req events.APIGatewayProxyRequest, op operation) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	resp, err := op(ctx, req)

	fields := []zap.Field{
		zap.String("method", req.HTTPMethod),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.String("request_id", resp.Headers[requestIDHeader]),
	}
	log := logger.WithTraceContext(ctx, h.logger)
	switch {
	case err != nil || resp.StatusCode >= 500:
		log.Error("Lambda Request", append(fields, zap.Error(err))...)
	case resp.StatusCode >= 400:
		log.Warn("Lambda Request", fields...)
	default:
		log.Info("Lambda Request", fields...)
	}
	return resp, err
}
