package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/milith0kun/Portafolio-sub000/internal/dto"
	"github.com/milith0kun/Portafolio-sub000/internal/service"
	"github.com/milith0kun/Portafolio-sub000/pkg/response"
)

// PortfolioHandler serves the portfolio hierarchy endpoints.
type PortfolioHandler struct {
	portfolioSvc service.PortfolioService
}

// NewPortfolioHandler creates a PortfolioHandler.
func NewPortfolioHandler(portfolioSvc service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolioSvc: portfolioSvc}
}

// Generate materializes portfolio trees for every active assignment of a
// cycle. Re-runs skip existing trees.
// POST /api/v1/portfolios/generate
func (h *PortfolioHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.portfolioSvc.GenerateForCycle(c.Request.Context(), req.CycleID, callerID)
	if err != nil {
		h.handlePortfolioError(c, err)
		return
	}

	response.OK(c, result)
}

// GetTrees returns the nested trees visible to the caller. An optional
// root_id query narrows the result to one tree.
// GET /api/v1/portfolios/trees
func (h *PortfolioHandler) GetTrees(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	trees, err := h.portfolioSvc.GetTrees(c.Request.Context(), role, userID, c.Query("root_id"))
	if err != nil {
		h.handlePortfolioError(c, err)
		return
	}

	response.OK(c, gin.H{"list": trees})
}

// RecomputeProgress forces a fresh aggregation of one root's percentage.
// POST /api/v1/portfolios/:id/progress
func (h *PortfolioHandler) RecomputeProgress(c *gin.Context) {
	rootID := c.Param("id")
	if rootID == "" {
		response.BadRequest(c, 10001, "portfolio id required")
		return
	}

	progress, err := h.portfolioSvc.RecomputeProgress(c.Request.Context(), rootID)
	if err != nil {
		h.handlePortfolioError(c, err)
		return
	}

	response.OK(c, dto.ProgressResponse{RootID: rootID, Progress: progress})
}

// handlePortfolioError maps portfolio business errors to responses.
func (h *PortfolioHandler) handlePortfolioError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPortfolioNotFound):
		response.NotFound(c, 13001, "portfolio not found")
	case errors.Is(err, service.ErrCycleNotFound):
		response.NotFound(c, 12001, "cycle not found")
	case errors.Is(err, service.ErrIntakeGateClosed):
		response.Forbidden(c, 15001, "data intake is disabled for this cycle")
	case errors.Is(err, service.ErrNoActiveTemplate):
		response.UnprocessableEntity(c, 13002, "structure template has no active sections")
	default:
		response.InternalError(c)
	}
}
