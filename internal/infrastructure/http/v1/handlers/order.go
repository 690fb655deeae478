package handlers

import (
	"github.com/gin-gonic/gin"

	"tillbook/internal/domain/ledger"
	"tillbook/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles order endpoints.
type OrderHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *ledger.Service) *OrderHandler {
	return &OrderHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cmd, err := req.ToCommand()
	if err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.CreateOrder(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, o)
}

// Get handles GET /orders/:orderId
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := dto.ParseID("orderId", c.Param("orderId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, o)
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	var query dto.ListOrdersQuery
	if !h.BindQuery(c, &query) {
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	orders, err := h.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:  orders,
		Count:  len(orders),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// ApplyLine handles PUT /orders/:orderId/lines
func (h *OrderHandler) ApplyLine(c *gin.Context) {
	var req dto.OrderLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cmd, err := req.ToCommand(c.Param("orderId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.ApplyOrderLine(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, o)
}

// RemoveLine handles DELETE /orders/:orderId/lines/:productId
func (h *OrderHandler) RemoveLine(c *gin.Context) {
	orderID, err := dto.ParseID("orderId", c.Param("orderId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	productID, err := dto.ParseID("productId", c.Param("productId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.RemoveOrderLine(c.Request.Context(), ledger.RemoveOrderLineCommand{
		OrderID:   orderID,
		ProductID: productID,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, o)
}

// SetDiscount handles PUT /orders/:orderId/discount
func (h *OrderHandler) SetDiscount(c *gin.Context) {
	var req dto.OrderDiscountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cmd, err := req.ToCommand(c.Param("orderId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.SetOrderDiscount(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, o)
}

// Finalize handles POST /orders/:orderId/finalize
func (h *OrderHandler) Finalize(c *gin.Context) {
	orderID, err := dto.ParseID("orderId", c.Param("orderId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.FinalizeOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	warehouseID, err := dto.ParseID("warehouseId", req.WarehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.FinalizeOrder(c.Request.Context(), ledger.FinalizeOrderCommand{
		OrderID:     orderID,
		WarehouseID: warehouseID,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, o)
}

// RegisterRoutes registers order routes.
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:orderId", h.Get)
	rg.PUT("/:orderId/lines", h.ApplyLine)
	rg.DELETE("/:orderId/lines/:productId", h.RemoveLine)
	rg.PUT("/:orderId/discount", h.SetDiscount)
	rg.POST("/:orderId/finalize", h.Finalize)
}
