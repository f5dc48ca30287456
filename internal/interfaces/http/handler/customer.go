package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	customerapp "github.com/motoshop/backend/internal/application/customer"
	"github.com/motoshop/backend/internal/domain/customer"
	"github.com/motoshop/backend/internal/interfaces/http/dto"
)

// CustomerHandler handles customer-related API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *customerapp.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *customerapp.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// Create creates a customer.
//
//	POST /customers {name, email, availableCredit?}
func (h *CustomerHandler) Create(c *gin.Context) {
	var req customerapp.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.customerService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns every customer, or those with at least minCredit available
// when the query parameter is present.
//
//	GET /customers?minCredit=
func (h *CustomerHandler) List(c *gin.Context) {
	raw, filtered := c.GetQuery("minCredit")
	if !filtered {
		customers, err := h.customerService.List(c.Request.Context())
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, customers)
		return
	}

	minCredit, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		h.HandleError(c, customer.NewInvalidTypeError("minCredit", "number", "string"))
		return
	}
	customers, err := h.customerService.ListByMinimumCredit(c.Request.Context(), minCredit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customers)
}

// GetByID returns one customer.
//
//	GET /customers/:id
func (h *CustomerHandler) GetByID(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.HandleError(c, dto.BindError(err))
		return
	}

	resp, err := h.customerService.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update applies a partial update.
//
//	PUT /customers/:id {name?, email?, availableCredit?}
func (h *CustomerHandler) Update(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.HandleError(c, dto.BindError(err))
		return
	}
	var req customerapp.UpdateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.customerService.Update(c.Request.Context(), uri.ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete removes a customer.
//
//	DELETE /customers/:id
func (h *CustomerHandler) Delete(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.HandleError(c, dto.BindError(err))
		return
	}

	if err := h.customerService.Delete(c.Request.Context(), uri.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddCredit adds to a customer's available credit.
//
//	POST /customers/credit {id, amount}
func (h *CustomerHandler) AddCredit(c *gin.Context) {
	var req customerapp.AddCreditRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.customerService.AddCredit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SortByCredit lists customers ordered by available credit, descending
// unless order=asc.
//
//	GET /customers/sortByCredit?order=asc|desc
func (h *CustomerHandler) SortByCredit(c *gin.Context) {
	var order *string
	if raw, ok := c.GetQuery("order"); ok {
		order = &raw
	}

	customers, err := h.customerService.SortCustomersByCredit(c.Request.Context(), order)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customers)
}

// RegisterRoutes mounts the customer routes on rg
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/customers")
	customers.POST("", h.Create)
	customers.GET("", h.List)
	customers.POST("/credit", h.AddCredit)
	customers.GET("/sortByCredit", h.SortByCredit)
	customers.GET("/:id", h.GetByID)
	customers.PUT("/:id", h.Update)
	customers.DELETE("/:id", h.Delete)
}
