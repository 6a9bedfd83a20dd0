package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/milith0kun/Portafolio-sub000/internal/service"
	"github.com/milith0kun/Portafolio-sub000/pkg/response"
)

// FileHandler serves the evidence-file endpoints.
type FileHandler struct {
	fileSvc service.FileService
}

// NewFileHandler creates a FileHandler.
func NewFileHandler(fileSvc service.FileService) *FileHandler {
	return &FileHandler{fileSvc: fileSvc}
}

// Upload attaches one evidence file to a leaf node.
// POST /api/v1/nodes/:id/files
func (h *FileHandler) Upload(c *gin.Context) {
	nodeID := c.Param("id")
	if nodeID == "" {
		response.BadRequest(c, 10001, "node id required")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "missing file upload")
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, 10001, "cannot read file upload")
		return
	}
	defer src.Close()

	result, err := h.fileSvc.Upload(c.Request.Context(),
		nodeID, userID, role,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		src)
	if err != nil {
		h.handleFileError(c, err)
		return
	}

	response.Created(c, result)
}

// ListByNode lists the files attached to a node.
// GET /api/v1/nodes/:id/files
func (h *FileHandler) ListByNode(c *gin.Context) {
	nodeID := c.Param("id")
	if nodeID == "" {
		response.BadRequest(c, 10001, "node id required")
		return
	}

	files, err := h.fileSvc.ListByNode(c.Request.Context(), nodeID)
	if err != nil {
		h.handleFileError(c, err)
		return
	}

	response.OK(c, gin.H{"list": files})
}

// Download streams a stored file by its opaque id.
// GET /api/v1/files/:id/download
func (h *FileHandler) Download(c *gin.Context) {
	fileID := c.Param("id")
	if fileID == "" {
		response.BadRequest(c, 10001, "file id required")
		return
	}

	file, path, err := h.fileSvc.Resolve(c.Request.Context(), fileID)
	if err != nil {
		h.handleFileError(c, err)
		return
	}

	c.FileAttachment(path, file.OriginalName)
}

// handleFileError maps evidence-file business errors to responses.
func (h *FileHandler) handleFileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPortfolioNotFound):
		response.NotFound(c, 13001, "portfolio node not found")
	case errors.Is(err, service.ErrFileNotFound):
		response.NotFound(c, 16001, "file not found")
	case errors.Is(err, service.ErrFileTooLarge):
		response.Error(c, 413, 16002, "file exceeds the size limit")
	case errors.Is(err, service.ErrFileTypeNotAllowed):
		response.BadRequest(c, 16003, "file type not allowed")
	case errors.Is(err, service.ErrNodeNotLeaf):
		response.UnprocessableEntity(c, 16004, "evidence can only be attached to leaf nodes")
	case errors.Is(err, service.ErrUploadGateClosed):
		response.Forbidden(c, 16005, "document uploads are disabled for this cycle")
	case errors.Is(err, service.ErrUploadForbidden):
		response.Forbidden(c, 16006, "node does not belong to you")
	default:
		response.InternalError(c)
	}
}
