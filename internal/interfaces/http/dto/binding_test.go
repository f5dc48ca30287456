package dto

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/motoshop/backend/internal/domain/customer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindTarget struct {
	Name   *string  `json:"name" binding:"required"`
	Amount *float64 `json:"amount" binding:"required"`
	Active bool     `json:"active"`
	Hidden string   `json:"-"`
	Query  string   `form:"q"`
}

func newTestValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(JSONFieldName)
	return v
}

func TestJSONFieldName(t *testing.T) {
	typ := reflect.TypeOf(bindTarget{})

	tests := []struct {
		field    string
		expected string
	}{
		{"Name", "name"},
		{"Amount", "amount"},
		{"Hidden", ""},
		{"Query", "q"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			fld, ok := typ.FieldByName(tt.field)
			require.True(t, ok)
			assert.Equal(t, tt.expected, JSONFieldName(fld))
		})
	}
}

func TestBindError_UnmarshalType(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "number for string",
			body:    `{"name": 42}`,
			message: "Invalid type for property name: expected string, but received number.",
		},
		{
			name:    "string for number",
			body:    `{"amount": "ten"}`,
			message: "Invalid type for property amount: expected number, but received string.",
		},
		{
			name:    "array for string",
			body:    `{"name": ["a"]}`,
			message: "Invalid type for property name: expected string, but received object.",
		},
		{
			name:    "string for boolean",
			body:    `{"active": "yes"}`,
			message: "Invalid type for property active: expected boolean, but received string.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var target bindTarget
			err := json.NewDecoder(strings.NewReader(tt.body)).Decode(&target)
			require.Error(t, err)

			got := BindError(err)

			assert.ErrorIs(t, got, customer.ErrInvalidType)
			assert.Equal(t, http.StatusBadRequest, got.StatusCode())
			assert.Equal(t, tt.message, got.Message)
		})
	}
}

func TestBindError_RequiredFieldIsUndefined(t *testing.T) {
	amount := 5.0
	err := newTestValidator().Struct(bindTarget{Amount: &amount})
	require.Error(t, err)

	got := BindError(err)

	assert.Equal(t, customer.CodeInvalidType, got.Code)
	assert.Equal(t, "Invalid type for property name: expected string, but received undefined.", got.Message)
}

func TestBindError_EmptyValuesSatisfyRequired(t *testing.T) {
	name, amount := "", 0.0
	err := newTestValidator().Struct(bindTarget{Name: &name, Amount: &amount})
	assert.NoError(t, err)
}

func TestBindError_MalformedJSON(t *testing.T) {
	var target bindTarget
	err := json.NewDecoder(strings.NewReader(`{"name": `)).Decode(&target)
	require.Error(t, err)

	got := BindError(err)

	assert.Equal(t, ErrCodeInvalidJSON, got.Code)
	assert.Equal(t, http.StatusBadRequest, got.StatusCode())

	err = json.Unmarshal([]byte(`{"name" "x"}`), &target)
	assert.Equal(t, ErrCodeInvalidJSON, BindError(err).Code)
}

func TestBindError_BodyTooLarge(t *testing.T) {
	err := errors.Join(errors.New("read body"), &http.MaxBytesError{Limit: 10})

	got := BindError(err)

	assert.Equal(t, ErrCodeRequestTooLarge, got.Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, got.StatusCode())
}

func TestGetHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, GetHTTPStatus(ErrCodeRateLimited))
	assert.Equal(t, http.StatusServiceUnavailable, GetHTTPStatus(ErrCodeServiceUnavailable))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("UNKNOWN_CODE"))
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(customer.CodeCustomerNotFound, "Customer not found.", "req-1")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-1", resp.Error.RequestID)

	body, err := json.Marshal(NewSuccessResponse(map[string]int{"n": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": true, "data": {"n": 1}}`, string(body))
}
