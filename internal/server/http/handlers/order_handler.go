package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// IdempotencyKeyHeader lets clients retry order placement safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler manages order endpoints.
type OrderHandler struct {
	facade OrderFacade
	resp   Responder
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade, resp Responder) *OrderHandler {
	return &OrderHandler{facade: facade, resp: resp}
}

// Place handles POST /api/orders. The buyer is the authenticated user.
// Returns 201 for a new order and 200 when an idempotency key is replayed.
func (h *OrderHandler) Place(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.Fail(c, "PlaceOrder", malformedBody(err))
		return
	}

	buyer := CurrentUserID(c)
	if req.UserID != nil && *req.UserID != buyer {
		h.resp.Fail(c, "PlaceOrder", fmt.Errorf("%w: user_id does not match the authenticated user", domainErrors.ErrForbidden))
		return
	}

	in := model.PlaceOrderInput{
		BuyerID:         buyer,
		Total:           req.Total,
		ShippingAddress: req.ShippingAddress,
		Items:           make([]model.OrderLine, 0, len(req.Items)),
		IdempotencyKey:  strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)),
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, model.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}

	order, replayed, err := h.facade.PlaceOrder(c.Request.Context(), in)
	if err != nil {
		h.resp.Fail(c, "PlaceOrder", err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	c.JSON(status, dto.PlaceOrderResponse{
		OrderID: order.ID,
		Total:   order.Total.StringFixed(2),
		Status:  string(order.Status),
	})
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.facade.Orders(c.Request.Context())
	if err != nil {
		h.resp.Fail(c, "ListOrders", err)
		return
	}

	response := make([]dto.OrderSummaryResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, dto.OrderSummaryResponse{
			ID:              o.ID,
			UserID:          o.UserID,
			Total:           o.Total.StringFixed(2),
			ShippingAddress: o.ShippingAddress,
			Status:          string(o.Status),
			CreatedAt:       o.CreatedAt,
			ItemCount:       o.ItemCount,
		})
	}
	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.resp.Fail(c, "GetOrder", err)
		return
	}
	order, err := h.facade.Order(c.Request.Context(), id)
	if err != nil {
		h.resp.Fail(c, "GetOrder", err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// UpdateStatus handles PUT /api/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.resp.Fail(c, "UpdateOrderStatus", err)
		return
	}
	var req dto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.Fail(c, "UpdateOrderStatus", malformedBody(err))
		return
	}

	status := model.OrderStatus(req.Status)
	if err := h.facade.UpdateOrderStatus(c.Request.Context(), id, status); err != nil {
		h.resp.Fail(c, "UpdateOrderStatus", err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{OrderID: id, Status: string(status)})
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			Price:       it.Price.StringFixed(2),
			ProductName: it.ProductName,
			ImageURL:    it.ImageURL,
			Description: it.Description,
		})
	}
	return dto.OrderResponse{
		ID:              order.ID,
		UserID:          order.UserID,
		Total:           order.Total.StringFixed(2),
		ShippingAddress: order.ShippingAddress,
		Status:          string(order.Status),
		CreatedAt:       order.CreatedAt,
		Items:           items,
	}
}
