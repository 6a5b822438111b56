package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/mobility-backend-go/internal/service"
	"github.com/jengzang/mobility-backend-go/pkg/response"
)

// ReferenceHandler serves the values offered by the dashboard filters
type ReferenceHandler struct {
	service *service.MobilityService
}

// NewReferenceHandler creates a new reference handler
func NewReferenceHandler(service *service.MobilityService) *ReferenceHandler {
	return &ReferenceHandler{service: service}
}

// GetRegions handles GET /api/v1/reference/regions
func (h *ReferenceHandler) GetRegions(c *gin.Context) {
	response.Success(c, h.service.RegionOptions(c.Request.Context()))
}

// GetDepartments handles GET /api/v1/reference/departments
func (h *ReferenceHandler) GetDepartments(c *gin.Context) {
	response.Success(c, h.service.DepartmentOptions(c.Request.Context(), c.Query("region")))
}

// GetAgeRanges handles GET /api/v1/reference/age-ranges
func (h *ReferenceHandler) GetAgeRanges(c *gin.Context) {
	response.Success(c, h.service.AgeRanges(c.Request.Context()))
}

// GetTransportTypes handles GET /api/v1/reference/transport-types
func (h *ReferenceHandler) GetTransportTypes(c *gin.Context) {
	response.Success(c, h.service.TransportTypes(c.Request.Context()))
}
