package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	customerapp "github.com/motoshop/backend/internal/application/customer"
	"github.com/motoshop/backend/internal/domain/customer"
	"github.com/motoshop/backend/internal/infrastructure/logger"
	"github.com/motoshop/backend/internal/infrastructure/persistence/memory"
	"github.com/motoshop/backend/internal/interfaces/http/dto"
	"github.com/motoshop/backend/internal/interfaces/http/handler"
	"github.com/motoshop/backend/internal/interfaces/http/middleware"
	"github.com/motoshop/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

type apiClient struct {
	t      *testing.T
	engine *gin.Engine
}

func newAPI(t *testing.T, repo customer.Repository, log *zap.Logger) *apiClient {
	t.Helper()
	if log == nil {
		log = zap.NewNop()
	}
	service := customerapp.NewCustomerService(repo, log)

	engine := gin.New()
	engine.Use(middleware.RequestID(), logger.GinMiddleware(log))
	router.NewRouter(engine).
		Register(handler.NewCustomerHandler(service)).
		Setup()
	return &apiClient{t: t, engine: engine}
}

func (a *apiClient) do(method, path, body string) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (a *apiClient) create(name, email string, credit float64) customerapp.CustomerResponse {
	a.t.Helper()
	body, err := json.Marshal(map[string]any{"name": name, "email": email, "availableCredit": credit})
	require.NoError(a.t, err)
	w, env := a.do(http.MethodPost, "/customers", string(body))
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	var c customerapp.CustomerResponse
	require.NoError(a.t, json.Unmarshal(env.Data, &c))
	return c
}

func decodeList(t *testing.T, env envelope) []customerapp.CustomerResponse {
	t.Helper()
	var list []customerapp.CustomerResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	return list
}

func names(list []customerapp.CustomerResponse) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Name
	}
	return out
}

func TestCustomerHandler_Create(t *testing.T) {
	t.Run("creates with default credit", func(t *testing.T) {
		api := newAPI(t, memory.NewCustomerRepository(), nil)

		w, env := api.do(http.MethodPost, "/customers", `{"name":"Valentino","email":"vr46@example.com"}`)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, env.Success)
		var c customerapp.CustomerResponse
		require.NoError(t, json.Unmarshal(env.Data, &c))
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, "Valentino", c.Name)
		assert.Equal(t, "vr46@example.com", c.Email)
		assert.Zero(t, c.AvailableCredit)
	})

	tests := []struct {
		name    string
		body    string
		status  int
		code    string
		message string
	}{
		{
			name:    "missing name",
			body:    `{"email":"a@example.com"}`,
			status:  http.StatusBadRequest,
			code:    customer.CodeInvalidType,
			message: "Invalid type for property name: expected string, but received undefined.",
		},
		{
			name:    "null name",
			body:    `{"name":null,"email":"a@example.com"}`,
			status:  http.StatusBadRequest,
			code:    customer.CodeInvalidType,
			message: "Invalid type for property name: expected string, but received undefined.",
		},
		{
			name:    "numeric name",
			body:    `{"name":46,"email":"a@example.com"}`,
			status:  http.StatusBadRequest,
			code:    customer.CodeInvalidType,
			message: "Invalid type for property name: expected string, but received number.",
		},
		{
			name:    "string credit",
			body:    `{"name":"Marc","email":"mm93@example.com","availableCredit":"lots"}`,
			status:  http.StatusBadRequest,
			code:    customer.CodeInvalidType,
			message: "Invalid type for property availableCredit: expected number, but received string.",
		},
		{
			name:    "empty body",
			body:    "",
			status:  http.StatusBadRequest,
			code:    customer.CodeInvalidType,
			message: "Invalid type for property name: expected string, but received undefined.",
		},
		{
			name:   "malformed json",
			body:   `{"name":`,
			status: http.StatusBadRequest,
			code:   dto.ErrCodeInvalidJSON,
		},
		{
			name:   "empty name",
			body:   `{"name":"","email":"a@example.com"}`,
			status: http.StatusBadRequest,
			code:   customer.CodeEmptyName,
		},
		{
			name:   "short name",
			body:   `{"name":"Jo","email":"a@example.com"}`,
			status: http.StatusBadRequest,
			code:   customer.CodeNameTooShort,
		},
		{
			name:   "short name before missing email",
			body:   `{"name":"Jo"}`,
			status: http.StatusBadRequest,
			code:   customer.CodeNameTooShort,
		},
		{
			name:   "short name before numeric email",
			body:   `{"name":"Jo","email":5}`,
			status: http.StatusBadRequest,
			code:   customer.CodeNameTooShort,
		},
		{
			name:   "short name before string credit",
			body:   `{"name":"Jo","email":"a@example.com","availableCredit":"lots"}`,
			status: http.StatusBadRequest,
			code:   customer.CodeNameTooShort,
		},
		{
			name:   "bad email before string credit",
			body:   `{"availableCredit":"lots","email":"nope","name":"Casey"}`,
			status: http.StatusBadRequest,
			code:   customer.CodeInvalidEmailFormat,
		},
		{
			name:    "numeric email after valid name",
			body:    `{"name":"Casey","email":5}`,
			status:  http.StatusBadRequest,
			code:    customer.CodeInvalidType,
			message: "Invalid type for property email: expected string, but received number.",
		},
		{
			name:   "bad email",
			body:   `{"name":"Casey","email":"not-an-email"}`,
			status: http.StatusBadRequest,
			code:   customer.CodeInvalidEmailFormat,
		},
		{
			name:   "negative credit",
			body:   `{"name":"Casey","email":"cs27@example.com","availableCredit":-5}`,
			status: customer.StatusNegativeCreditAmount,
			code:   customer.CodeNegativeCreditAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newAPI(t, memory.NewCustomerRepository(), nil)

			w, env := api.do(http.MethodPost, "/customers", tt.body)

			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.NotEmpty(t, env.Error.RequestID)
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Error.Message)
			}
		})
	}

	t.Run("duplicate email", func(t *testing.T) {
		api := newAPI(t, memory.NewCustomerRepository(), nil)
		api.create("Valentino", "vr46@example.com", 0)

		w, env := api.do(http.MethodPost, "/customers", `{"name":"Other","email":"vr46@example.com"}`)

		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, customer.CodeEmailAlreadyInUse, env.Error.Code)
	})
}

func TestCustomerHandler_GetByID(t *testing.T) {
	api := newAPI(t, memory.NewCustomerRepository(), nil)
	created := api.create("Valentino", "vr46@example.com", 120)

	w, env := api.do(http.MethodGet, "/customers/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var c customerapp.CustomerResponse
	require.NoError(t, json.Unmarshal(env.Data, &c))
	assert.Equal(t, created.ID, c.ID)
	assert.Equal(t, 120.0, c.AvailableCredit)

	w, env = api.do(http.MethodGet, "/customers/missing", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, customer.CodeCustomerNotFound, env.Error.Code)
}

func TestCustomerHandler_List(t *testing.T) {
	api := newAPI(t, memory.NewCustomerRepository(), nil)
	api.create("Alpha", "alpha@example.com", 10)
	api.create("Bravo", "bravo@example.com", 30)
	api.create("Charlie", "charlie@example.com", 20)

	t.Run("all customers in insertion order", func(t *testing.T) {
		w, env := api.do(http.MethodGet, "/customers", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, names(decodeList(t, env)))
	})

	t.Run("minimum credit filter", func(t *testing.T) {
		w, env := api.do(http.MethodGet, "/customers?minCredit=20", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"Bravo", "Charlie"}, names(decodeList(t, env)))
	})

	t.Run("non numeric minimum credit", func(t *testing.T) {
		w, env := api.do(http.MethodGet, "/customers?minCredit=plenty", "")
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid type for property minCredit: expected number, but received string.", env.Error.Message)
	})

	t.Run("negative minimum credit", func(t *testing.T) {
		w, env := api.do(http.MethodGet, "/customers?minCredit=-1", "")
		require.Equal(t, customer.StatusNegativeCreditAmount, w.Code)
		assert.Equal(t, customer.CodeNegativeCreditAmount, env.Error.Code)
	})
}

func TestCustomerHandler_Update(t *testing.T) {
	api := newAPI(t, memory.NewCustomerRepository(), nil)
	first := api.create("Valentino", "vr46@example.com", 10)
	api.create("Marc", "mm93@example.com", 10)

	t.Run("partial update keeps other fields", func(t *testing.T) {
		w, env := api.do(http.MethodPut, "/customers/"+first.ID, `{"availableCredit":75.5}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var c customerapp.CustomerResponse
		require.NoError(t, json.Unmarshal(env.Data, &c))
		assert.Equal(t, "Valentino", c.Name)
		assert.Equal(t, 75.5, c.AvailableCredit)
	})

	t.Run("keeping the same email is allowed", func(t *testing.T) {
		w, _ := api.do(http.MethodPut, "/customers/"+first.ID, `{"email":"vr46@example.com"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("email owned by another customer", func(t *testing.T) {
		w, env := api.do(http.MethodPut, "/customers/"+first.ID, `{"email":"mm93@example.com"}`)
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, customer.CodeEmailAlreadyInUse, env.Error.Code)
	})

	t.Run("wrong type", func(t *testing.T) {
		w, env := api.do(http.MethodPut, "/customers/"+first.ID, `{"name":true}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid type for property name: expected string, but received boolean.", env.Error.Message)
	})

	t.Run("short name before wrong credit type", func(t *testing.T) {
		w, env := api.do(http.MethodPut, "/customers/"+first.ID, `{"availableCredit":"lots","name":"Jo"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, customer.CodeNameTooShort, env.Error.Code)
	})

	t.Run("unknown customer", func(t *testing.T) {
		w, env := api.do(http.MethodPut, "/customers/missing", `{"name":"Nobody"}`)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, customer.CodeCustomerNotFound, env.Error.Code)
	})
}

func TestCustomerHandler_Delete(t *testing.T) {
	api := newAPI(t, memory.NewCustomerRepository(), nil)
	created := api.create("Valentino", "vr46@example.com", 0)

	w, _ := api.do(http.MethodDelete, "/customers/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())

	w, env := api.do(http.MethodDelete, "/customers/"+created.ID, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, customer.CodeCustomerNotFound, env.Error.Code)
}

func TestCustomerHandler_AddCredit(t *testing.T) {
	api := newAPI(t, memory.NewCustomerRepository(), nil)
	created := api.create("Valentino", "vr46@example.com", 100)

	t.Run("adds to the balance", func(t *testing.T) {
		w, env := api.do(http.MethodPost, "/customers/credit", `{"id":"`+created.ID+`","amount":50.25}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var c customerapp.CustomerResponse
		require.NoError(t, json.Unmarshal(env.Data, &c))
		assert.Equal(t, 150.25, c.AvailableCredit)
	})

	t.Run("negative amount", func(t *testing.T) {
		w, env := api.do(http.MethodPost, "/customers/credit", `{"id":"`+created.ID+`","amount":-1}`)
		require.Equal(t, customer.StatusNegativeCreditAmount, w.Code)
		assert.Equal(t, customer.CodeNegativeCreditAmount, env.Error.Code)
	})

	t.Run("missing amount", func(t *testing.T) {
		w, env := api.do(http.MethodPost, "/customers/credit", `{"id":"`+created.ID+`"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid type for property amount: expected number, but received undefined.", env.Error.Message)
	})

	t.Run("unknown customer", func(t *testing.T) {
		w, env := api.do(http.MethodPost, "/customers/credit", `{"id":"missing","amount":5}`)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, customer.CodeCustomerNotFound, env.Error.Code)
	})
}

func TestCustomerHandler_SortByCredit(t *testing.T) {
	api := newAPI(t, memory.NewCustomerRepository(), nil)
	api.create("Alpha", "alpha@example.com", 10)
	api.create("Bravo", "bravo@example.com", 30)
	api.create("Charlie", "charlie@example.com", 20)

	tests := []struct {
		name   string
		query  string
		status int
		want   []string
	}{
		{"default is descending", "", http.StatusOK, []string{"Bravo", "Charlie", "Alpha"}},
		{"descending", "?order=desc", http.StatusOK, []string{"Bravo", "Charlie", "Alpha"}},
		{"ascending", "?order=asc", http.StatusOK, []string{"Alpha", "Charlie", "Bravo"}},
		{"invalid order", "?order=sideways", http.StatusBadRequest, nil},
		{"empty order", "?order=", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := api.do(http.MethodGet, "/customers/sortByCredit"+tt.query, "")
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.want == nil {
				assert.Equal(t, customer.CodeInvalidSortOrder, env.Error.Code)
				return
			}
			assert.Equal(t, tt.want, names(decodeList(t, env)))
		})
	}
}

type failingRepository struct {
	*memory.CustomerRepository
}

func (failingRepository) FindAll(context.Context) ([]*customer.Customer, error) {
	return nil, errors.New("connection reset by peer")
}

func TestCustomerHandler_StorageFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	api := newAPI(t, failingRepository{memory.NewCustomerRepository()}, zap.New(core))

	w, env := api.do(http.MethodGet, "/customers", "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrCodeInternal, env.Error.Code)
	assert.Contains(t, env.Error.Message, "connection reset by peer")
	assert.NotZero(t, logs.FilterMessage("Unhandled error").Len())
}
