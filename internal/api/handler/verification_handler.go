package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/milith0kun/Portafolio-sub000/internal/dto"
	"github.com/milith0kun/Portafolio-sub000/internal/service"
	"github.com/milith0kun/Portafolio-sub000/pkg/response"
)

// VerificationHandler serves the review endpoints.
type VerificationHandler struct {
	verificationSvc service.VerificationService
}

// NewVerificationHandler creates a VerificationHandler.
func NewVerificationHandler(verificationSvc service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verificationSvc: verificationSvc}
}

// ReviewFile transitions one file's review state.
// PUT /api/v1/files/:id/review
func (h *VerificationHandler) ReviewFile(c *gin.Context) {
	fileID := c.Param("id")
	if fileID == "" {
		response.BadRequest(c, 10001, "file id required")
		return
	}

	var req dto.ReviewFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	reviewerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.verificationSvc.ReviewFile(c.Request.Context(), fileID, req.Status, reviewerID, req.Comment)
	if err != nil {
		h.handleVerificationError(c, err)
		return
	}

	response.OK(c, result)
}

// ReviewBatch reviews several files in one request; items fail
// independently.
// POST /api/v1/verification/batch
func (h *VerificationHandler) ReviewBatch(c *gin.Context) {
	var req dto.ReviewBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	reviewerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	results, err := h.verificationSvc.ReviewBatch(c.Request.Context(), req.Items, reviewerID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"results": results})
}

// handleVerificationError maps review business errors to responses.
func (h *VerificationHandler) handleVerificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFileNotFound):
		response.NotFound(c, 16001, "file not found")
	case errors.Is(err, service.ErrInvalidReviewState):
		response.UnprocessableEntity(c, 42202, "invalid review state")
	case errors.Is(err, service.ErrReviewForbidden):
		response.Forbidden(c, 14001, "you are not assigned to review this instructor")
	default:
		response.InternalError(c)
	}
}
