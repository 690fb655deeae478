package handlers

import (
	"github.com/gin-gonic/gin"

	"tillbook/internal/domain/ledger"
	"tillbook/internal/infrastructure/http/v1/dto"
	"tillbook/internal/infrastructure/http/v1/middleware"
)

// AccountHandler handles customer receivables endpoints.
type AccountHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(base *BaseHandler, service *ledger.Service) *AccountHandler {
	return &AccountHandler{
		BaseHandler: base,
		service:     service,
	}
}

// RecordMovement handles POST /accounts/:customerId/movements
func (h *AccountHandler) RecordMovement(c *gin.Context) {
	var req dto.AccountMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cmd, err := req.ToCommand(c.Param("customerId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	movement, err := h.service.RecordAccountMovement(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, movement)
}

// Statement handles GET /accounts/:customerId
func (h *AccountHandler) Statement(c *gin.Context) {
	customerID, err := dto.ParseID("customerId", c.Param("customerId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	acct, movements, err := h.service.AccountStatement(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.AccountStatementResponse{
		Account:         acct,
		AvailableCredit: acct.AvailableCredit(),
		Movements:       movements,
	})
}

// Recalculate handles POST /accounts/:customerId/recalculate
func (h *AccountHandler) Recalculate(c *gin.Context) {
	customerID, err := dto.ParseID("customerId", c.Param("customerId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	acct, err := h.service.RecalculateAccount(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, acct)
}

// RegisterRoutes registers account routes.
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/:customerId/movements", h.RecordMovement)
	rg.GET("/:customerId", h.Statement)

	// Replay-based repair is privileged.
	rg.POST("/:customerId/recalculate", middleware.RequireRole("admin"), h.Recalculate)
}
