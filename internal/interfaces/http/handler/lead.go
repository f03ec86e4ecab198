package handler

import (
	appintegration "github.com/erp/ordersync/internal/application/integration"
	"github.com/gin-gonic/gin"
)

// LeadHandler handles campaign lead endpoints
type LeadHandler struct {
	BaseHandler
	leadService *appintegration.LeadService
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(leadService *appintegration.LeadService) *LeadHandler {
	return &LeadHandler{leadService: leadService}
}

// RecordLead godoc
// @Summary      Record a lead
// @Description  Create an ERP lead, attached to its campaign. Missing campaigns are created.
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        request body appintegration.LeadRequest true "Lead"
// @Success      201 {object} dto.Response{data=appintegration.LeadResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /leads [post]
func (h *LeadHandler) RecordLead(c *gin.Context) {
	var req appintegration.LeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.leadService.RecordLead(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
