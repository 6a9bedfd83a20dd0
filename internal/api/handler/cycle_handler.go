package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/milith0kun/Portafolio-sub000/internal/dto"
	"github.com/milith0kun/Portafolio-sub000/internal/service"
	"github.com/milith0kun/Portafolio-sub000/pkg/response"
)

// CycleHandler serves the academic-cycle endpoints.
type CycleHandler struct {
	cycleSvc service.CycleService
}

// NewCycleHandler creates a CycleHandler.
func NewCycleHandler(cycleSvc service.CycleService) *CycleHandler {
	return &CycleHandler{cycleSvc: cycleSvc}
}

// ListCycles lists all cycles.
// GET /api/v1/cycles
func (h *CycleHandler) ListCycles(c *gin.Context) {
	cycles, err := h.cycleSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": cycles})
}

// GetActiveCycle returns the single active cycle.
// GET /api/v1/cycles/active
func (h *CycleHandler) GetActiveCycle(c *gin.Context) {
	cycle, err := h.cycleSvc.GetActive(c.Request.Context())
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, cycle)
}

// GetCycle returns a single cycle.
// GET /api/v1/cycles/:id
func (h *CycleHandler) GetCycle(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "cycle id required")
		return
	}

	cycle, err := h.cycleSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, cycle)
}

// CreateCycle creates a cycle in the preparing state.
// POST /api/v1/cycles
func (h *CycleHandler) CreateCycle(c *gin.Context) {
	var req dto.CreateCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cycle, err := h.cycleSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.Created(c, cycle)
}

// UpdateCycle updates cycle metadata; the state only moves via Transition.
// PUT /api/v1/cycles/:id
func (h *CycleHandler) UpdateCycle(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "cycle id required")
		return
	}

	var req dto.UpdateCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cycle, err := h.cycleSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, cycle)
}

// TransitionCycle moves a cycle along the lifecycle graph.
// PUT /api/v1/cycles/:id/transition
func (h *CycleHandler) TransitionCycle(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "cycle id required")
		return
	}

	var req dto.TransitionCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cycle, err := h.cycleSvc.Transition(c.Request.Context(), id, req.TargetState, callerID)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, cycle)
}

// GetGate reads one module gate.
// GET /api/v1/cycles/:id/gates/:module
func (h *CycleHandler) GetGate(c *gin.Context) {
	id := c.Param("id")
	module := c.Param("module")
	if id == "" || module == "" {
		response.BadRequest(c, 10001, "cycle id and module required")
		return
	}

	gate, err := h.cycleSvc.GetGate(c.Request.Context(), id, module)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, gate)
}

// ListGates lists every gate of a cycle.
// GET /api/v1/cycles/:id/gates
func (h *CycleHandler) ListGates(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "cycle id required")
		return
	}

	gates, err := h.cycleSvc.ListGates(c.Request.Context(), id)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": gates})
}

// OverrideGate flips one gate outside the lifecycle plan.
// PUT /api/v1/cycles/:id/gates
func (h *CycleHandler) OverrideGate(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "cycle id required")
		return
	}

	var req dto.OverrideGateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	gate, err := h.cycleSvc.OverrideGate(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, gate)
}

// handleCycleError maps cycle-module business errors to responses.
func (h *CycleHandler) handleCycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCycleNotFound):
		response.NotFound(c, 12001, "cycle not found")
	case errors.Is(err, service.ErrCycleDateInvalid):
		response.BadRequest(c, 12002, "cycle dates invalid")
	case errors.Is(err, service.ErrInvalidTransition):
		response.UnprocessableEntity(c, 42201, "transition not allowed from current state")
	case errors.Is(err, service.ErrCycleStateConflict):
		response.Conflict(c, 12003, "cycle was modified concurrently, retry")
	case errors.Is(err, service.ErrActiveCycleExists):
		response.Conflict(c, 12004, "another cycle is already active")
	default:
		response.InternalError(c)
	}
}
