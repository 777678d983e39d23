package commerceserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	checkoutports "github.com/Apurer/go-gin-commerce/internal/domains/checkout/ports"
	ordermapper "github.com/Apurer/go-gin-commerce/internal/domains/orders/adapters/http/mapper"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
)

// HeaderIdempotencyKey lets clients retry POST /orders safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// OrderAPI serves order creation through the checkout workflows and the
// order ledger reads and writes.
type OrderAPI struct {
	ledger    ordersports.Service
	workflows checkoutports.OrderWorkflows
}

func NewOrderAPI(ledger ordersports.Service, workflows checkoutports.OrderWorkflows) *OrderAPI {
	return &OrderAPI{ledger: ledger, workflows: workflows}
}

// Post /orders
// Runs the order creation saga.
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	if api.workflows == nil {
		DefaultHandleFunc(c)
		return
	}
	var input types.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey)); key != "" {
		input.IdempotencyKey = key
	}
	order, err := api.workflows.CreateOrder(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ordermapper.FromDomain(order))
}

// Put /orders/:id
// Inserts an already priced order into the ledger. 409 ORDER_EXISTS when the id is taken.
func (api *OrderAPI) InsertOrder(c *gin.Context) {
	var payload ordermapper.Order
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	id := c.Param("id")
	if payload.ID == "" {
		payload.ID = id
	}
	if payload.ID != id {
		badRequest(c, fmt.Errorf("body id %q does not match path id %q", payload.ID, id))
		return
	}
	order, err := api.ledger.CreateOrder(c.Request.Context(), ordermapper.ToDomain(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ordermapper.FromDomain(order))
}

// Get /orders
// Optional filters: userId, status, createdBefore (RFC 3339), limit.
func (api *OrderAPI) ListOrders(c *gin.Context) {
	filter, err := parseOrderFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	api.list(c, filter)
}

// Get /orders/user/:userId
func (api *OrderAPI) ListOrdersByUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	api.list(c, ordersports.Filter{UserID: userID})
}

func (api *OrderAPI) list(c *gin.Context, filter ordersports.Filter) {
	orders, err := api.ledger.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromDomainList(orders))
}

// Get /orders/:id
func (api *OrderAPI) GetOrder(c *gin.Context) {
	order, err := api.ledger.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromDomain(order))
}

// Patch /orders/:id/status
func (api *OrderAPI) UpdateStatus(c *gin.Context) {
	var payload ordermapper.StatusChange
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	next, err := ordersdomain.ParseStatus(payload.Status)
	if err != nil {
		badRequest(c, err)
		return
	}
	order, err := api.ledger.UpdateStatus(c.Request.Context(), c.Param("id"), next, payload.Version)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromDomain(order))
}

func parseOrderFilter(c *gin.Context) (ordersports.Filter, error) {
	var filter ordersports.Filter
	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, fmt.Errorf("userId must be a positive integer")
		}
		filter.UserID = id
	}
	if raw := c.Query("status"); raw != "" {
		status, err := ordersdomain.ParseStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = status
	}
	if raw := c.Query("createdBefore"); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return filter, fmt.Errorf("createdBefore must be RFC 3339: %w", err)
		}
		filter.CreatedBefore = ts
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, fmt.Errorf("limit must be a positive integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}
