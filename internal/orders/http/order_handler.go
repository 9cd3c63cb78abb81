// Package http provides HTTP handlers for order intake and retrieval.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/orders/internal/httputil"
	"github.com/allisson/orders/internal/orders/http/dto"
	"github.com/allisson/orders/internal/orders/usecase"
	customValidation "github.com/allisson/orders/internal/validation"
)

// IdempotencyKeyHeader carries the client-supplied acceptance idempotency key.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler handles HTTP requests for order operations.
type OrderHandler struct {
	orderUseCase usecase.UseCase
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderUseCase usecase.UseCase, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
		logger:       logger,
	}
}

// RegisterRoutes mounts the order endpoints on the router group.
func (h *OrderHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/orders", h.CreateHandler)
	group.GET("/orders/:id", h.GetHandler)
	group.GET("/orders", h.ListHandler)
}

// CreateHandler accepts a new order.
// POST /v1/orders - optionally idempotent via the Idempotency-Key header.
// Returns 201 Created with the order representation.
func (h *OrderHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateOrderRequest

	// Parse and bind JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	// Validate request
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	var idempotencyKey *string
	if key := c.GetHeader(IdempotencyKeyHeader); key != "" {
		idempotencyKey = &key
	}

	input := usecase.CreateOrderInput{
		CustomerID:     req.CustomerID,
		Items:          req.ToDomainItems(),
		IdempotencyKey: idempotencyKey,
		CorrelationID:  requestid.Get(c),
	}

	order, err := h.orderUseCase.CreateOrder(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapOrderToResponse(order))
}

// GetHandler retrieves an order by id.
// GET /v1/orders/:id
func (h *OrderHandler) GetHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	order, err := h.orderUseCase.GetOrder(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrderToResponse(order))
}

// ListHandler retrieves a page of orders.
// GET /v1/orders?customerId=&limit=&offset=
func (h *OrderHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	orders, err := h.orderUseCase.ListOrders(c.Request.Context(), c.Query("customerId"), limit, offset)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrdersToListResponse(orders, limit, offset))
}
