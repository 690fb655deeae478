package handlers

import (
	"github.com/gin-gonic/gin"

	"tillbook/internal/domain/ledger"
	"tillbook/internal/infrastructure/http/v1/dto"
)

// CashdeskHandler handles cash session endpoints.
type CashdeskHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewCashdeskHandler creates a new cashdesk handler.
func NewCashdeskHandler(base *BaseHandler, service *ledger.Service) *CashdeskHandler {
	return &CashdeskHandler{
		BaseHandler: base,
		service:     service,
	}
}

// OpenSession handles POST /cashdesk/sessions
func (h *CashdeskHandler) OpenSession(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cmd, err := req.ToCommand(h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	session, err := h.service.OpenCashSession(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, session)
}

// RecordMovement handles POST /cashdesk/sessions/:sessionId/movements
func (h *CashdeskHandler) RecordMovement(c *gin.Context) {
	var req dto.CashMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cmd, err := req.ToCommand(c.Param("sessionId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	movement, err := h.service.RecordCashMovement(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, movement)
}

// CloseSession handles POST /cashdesk/sessions/:sessionId/close
func (h *CashdeskHandler) CloseSession(c *gin.Context) {
	sessionID, err := dto.ParseID("sessionId", c.Param("sessionId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.CloseSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	session, err := h.service.CloseCashSession(c.Request.Context(), ledger.CloseSessionCommand{
		SessionID:      sessionID,
		CountedBalance: req.CountedBalance,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, session)
}

// GetSession handles GET /cashdesk/sessions/:sessionId
func (h *CashdeskHandler) GetSession(c *gin.Context) {
	sessionID, err := dto.ParseID("sessionId", c.Param("sessionId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	session, movements, err := h.service.GetCashSession(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.SessionResponse{Session: session, Movements: movements})
}

// ListSessions handles GET /cashdesk/sessions
func (h *CashdeskHandler) ListSessions(c *gin.Context) {
	var query dto.ListSessionsQuery
	if !h.BindQuery(c, &query) {
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	sessions, err := h.service.ListCashSessions(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:  sessions,
		Count:  len(sessions),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// RegisterRoutes registers cashdesk routes.
func (h *CashdeskHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.OpenSession)
	rg.GET("/sessions", h.ListSessions)
	rg.GET("/sessions/:sessionId", h.GetSession)
	rg.POST("/sessions/:sessionId/movements", h.RecordMovement)
	rg.POST("/sessions/:sessionId/close", h.CloseSession)
}
