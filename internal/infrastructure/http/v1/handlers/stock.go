package handlers

import (
	"github.com/gin-gonic/gin"

	"tillbook/internal/domain/ledger"
	"tillbook/internal/domain/stock"
	"tillbook/internal/infrastructure/http/v1/dto"
	"tillbook/internal/infrastructure/http/v1/middleware"
)

// StockHandler handles stock movement and balance endpoints.
type StockHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *ledger.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
	}
}

// RecordMovement handles POST /stock/movements
func (h *StockHandler) RecordMovement(c *gin.Context) {
	var req dto.StockMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cmd, err := req.ToCommand()
	if err != nil {
		h.Error(c, err)
		return
	}

	movement, err := h.service.RecordStockMovement(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, movement)
}

// ReverseMovement handles POST /stock/movements/:movementId/reverse
func (h *StockHandler) ReverseMovement(c *gin.Context) {
	movementID, err := dto.ParseID("movementId", c.Param("movementId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.ReverseMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	movement, err := h.service.ReverseStockMovement(c.Request.Context(), movementID, ledger.Reference{
		Type: req.ReferenceType,
		ID:   req.ReferenceID,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, movement)
}

// ProductStock handles GET /stock/products/:productId
func (h *StockHandler) ProductStock(c *gin.Context) {
	productID, err := dto.ParseID("productId", c.Param("productId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	total, buckets, err := h.service.ProductStock(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ProductStockResponse{Total: total, Buckets: buckets})
}

// BucketStock handles GET /stock/products/:productId/bucket
func (h *StockHandler) BucketStock(c *gin.Context) {
	productID, err := dto.ParseID("productId", c.Param("productId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var query dto.StockQuery
	if !h.BindQuery(c, &query) {
		return
	}

	warehouseID, err := dto.ParseID("warehouseId", query.WarehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	locationID, err := dto.ParseOptionalID("locationId", query.LocationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	agg, err := h.service.StockByBucket(c.Request.Context(), stock.BucketKey{
		ProductID:   productID,
		WarehouseID: warehouseID,
		LocationID:  locationID,
		Lot:         query.Lot,
		Serial:      query.Serial,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, agg)
}

// WarehouseStock handles GET /stock/warehouses/:warehouseId
func (h *StockHandler) WarehouseStock(c *gin.Context) {
	warehouseID, err := dto.ParseID("warehouseId", c.Param("warehouseId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	aggregates, err := h.service.WarehouseStock(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: aggregates, Count: len(aggregates)})
}

// MovementHistory handles GET /stock/products/:productId/movements
func (h *StockHandler) MovementHistory(c *gin.Context) {
	productID, err := dto.ParseID("productId", c.Param("productId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var query dto.MovementHistoryQuery
	if !h.BindQuery(c, &query) {
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	movements, err := h.service.MovementHistory(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:  movements,
		Count:  len(movements),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// Turnover handles GET /stock/products/:productId/turnover
func (h *StockHandler) Turnover(c *gin.Context) {
	productID, err := dto.ParseID("productId", c.Param("productId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var query dto.TurnoverQuery
	if !h.BindQuery(c, &query) {
		return
	}
	from, err := dto.ParseOptionalTime("from", query.From)
	if err != nil {
		h.Error(c, err)
		return
	}
	to, err := dto.ParseOptionalTime("to", query.To)
	if err != nil {
		h.Error(c, err)
		return
	}

	turnover, err := h.service.ProductTurnover(c.Request.Context(), productID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, turnover)
}

// Recalculate handles POST /stock/products/:productId/recalculate
func (h *StockHandler) Recalculate(c *gin.Context) {
	productID, err := dto.ParseID("productId", c.Param("productId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	total, err := h.service.RecalculateProductAggregates(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, total)
}

// RegisterRoutes registers stock routes.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/movements", h.RecordMovement)
	rg.POST("/movements/:movementId/reverse", h.ReverseMovement)

	rg.GET("/products/:productId", h.ProductStock)
	rg.GET("/products/:productId/bucket", h.BucketStock)
	rg.GET("/products/:productId/movements", h.MovementHistory)
	rg.GET("/products/:productId/turnover", h.Turnover)
	rg.GET("/warehouses/:warehouseId", h.WarehouseStock)

	// Replay-based repair is privileged.
	rg.POST("/products/:productId/recalculate", middleware.RequireRole("admin"), h.Recalculate)
}
