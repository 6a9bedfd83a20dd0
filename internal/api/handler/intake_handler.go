package handler

import (
	"errors"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/milith0kun/Portafolio-sub000/internal/service"
	"github.com/milith0kun/Portafolio-sub000/pkg/response"
)

// IntakeHandler serves the bulk spreadsheet intake endpoints.
type IntakeHandler struct {
	intakeSvc service.IntakeService
}

// NewIntakeHandler creates an IntakeHandler.
func NewIntakeHandler(intakeSvc service.IntakeService) *IntakeHandler {
	return &IntakeHandler{intakeSvc: intakeSvc}
}

// openUpload extracts the "file" form part. Returns ok=false after writing
// the error response.
func openUpload(c *gin.Context) (multipart.File, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "missing file upload")
		return nil, false
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, 10001, "cannot read file upload")
		return nil, false
	}
	return src, true
}

// ImportRoster imports the user roster spreadsheet for a cycle.
// POST /api/v1/cycles/:id/intake/roster
func (h *IntakeHandler) ImportRoster(c *gin.Context) {
	cycleID := c.Param("id")
	if cycleID == "" {
		response.BadRequest(c, 10001, "cycle id required")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	src, ok := openUpload(c)
	if !ok {
		return
	}
	defer src.Close()

	rows, err := h.intakeSvc.ParseRoster(src)
	if err != nil {
		h.handleIntakeError(c, err)
		return
	}

	result, err := h.intakeSvc.ImportRoster(c.Request.Context(), cycleID, rows, callerID)
	if err != nil {
		h.handleIntakeError(c, err)
		return
	}

	response.OK(c, result)
}

// ImportAssignments imports the teaching-assignment spreadsheet.
// POST /api/v1/cycles/:id/intake/assignments
func (h *IntakeHandler) ImportAssignments(c *gin.Context) {
	cycleID := c.Param("id")
	if cycleID == "" {
		response.BadRequest(c, 10001, "cycle id required")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	src, ok := openUpload(c)
	if !ok {
		return
	}
	defer src.Close()

	rows, err := h.intakeSvc.ParseAssignments(src)
	if err != nil {
		h.handleIntakeError(c, err)
		return
	}

	result, err := h.intakeSvc.ImportAssignments(c.Request.Context(), cycleID, rows, callerID)
	if err != nil {
		h.handleIntakeError(c, err)
		return
	}

	response.OK(c, result)
}

// ImportVerifiers imports the verifier-assignment spreadsheet.
// POST /api/v1/cycles/:id/intake/verifiers
func (h *IntakeHandler) ImportVerifiers(c *gin.Context) {
	cycleID := c.Param("id")
	if cycleID == "" {
		response.BadRequest(c, 10001, "cycle id required")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	src, ok := openUpload(c)
	if !ok {
		return
	}
	defer src.Close()

	rows, err := h.intakeSvc.ParseVerifiers(src)
	if err != nil {
		h.handleIntakeError(c, err)
		return
	}

	result, err := h.intakeSvc.ImportVerifiers(c.Request.Context(), cycleID, rows, callerID)
	if err != nil {
		h.handleIntakeError(c, err)
		return
	}

	response.OK(c, result)
}

// ListAssignments lists the active assignments of a cycle.
// GET /api/v1/cycles/:id/assignments
func (h *IntakeHandler) ListAssignments(c *gin.Context) {
	cycleID := c.Param("id")
	if cycleID == "" {
		response.BadRequest(c, 10001, "cycle id required")
		return
	}

	assignments, err := h.intakeSvc.ListAssignments(c.Request.Context(), cycleID)
	if err != nil {
		h.handleIntakeError(c, err)
		return
	}

	response.OK(c, gin.H{"list": assignments})
}

// handleIntakeError maps intake business errors to responses.
func (h *IntakeHandler) handleIntakeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCycleNotFound):
		response.NotFound(c, 12001, "cycle not found")
	case errors.Is(err, service.ErrIntakeGateClosed):
		response.Forbidden(c, 15001, "data intake is disabled for this cycle")
	case errors.Is(err, service.ErrIntakeNoData):
		response.BadRequest(c, 15002, "spreadsheet contains no data rows")
	case errors.Is(err, service.ErrIntakeBadHeader):
		response.BadRequest(c, 15003, "spreadsheet header is missing required columns")
	case errors.Is(err, service.ErrIntakeTooManyRows):
		response.BadRequest(c, 15004, "spreadsheet exceeds the row limit")
	default:
		response.InternalError(c)
	}
}
