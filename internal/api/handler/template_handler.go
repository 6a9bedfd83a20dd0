package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/milith0kun/Portafolio-sub000/internal/service"
	"github.com/milith0kun/Portafolio-sub000/pkg/response"
)

// TemplateHandler serves the structure-template endpoints.
type TemplateHandler struct {
	templateSvc service.TemplateService
}

// NewTemplateHandler creates a TemplateHandler.
func NewTemplateHandler(templateSvc service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateSvc: templateSvc}
}

// ListSections returns the active section taxonomy in tree order.
// GET /api/v1/templates/sections
func (h *TemplateHandler) ListSections(c *gin.Context) {
	sections, err := h.templateSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": sections})
}
