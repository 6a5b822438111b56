package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/service"
	"github.com/jengzang/mobility-backend-go/pkg/response"
)

// MobilityHandler handles HTTP requests for commune and region aggregates
type MobilityHandler struct {
	service *service.MobilityService
}

// NewMobilityHandler creates a new mobility handler
func NewMobilityHandler(service *service.MobilityService) *MobilityHandler {
	return &MobilityHandler{service: service}
}

// GetGlobalStats handles GET /api/v1/stats/global
func (h *MobilityHandler) GetGlobalStats(c *gin.Context) {
	stats, err := h.service.GlobalStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, stats)
}

// ListCommunes handles GET /api/v1/communes
func (h *MobilityHandler) ListCommunes(c *gin.Context) {
	var filter models.EntityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	communes, err := h.service.Communes(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"communes": communes,
		"count":    len(communes),
	})
}

// TopCommunes handles GET /api/v1/communes/top
func (h *MobilityHandler) TopCommunes(c *gin.Context) {
	var filter models.TopFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	communes, err := h.service.TopCommunes(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, communes)
}

// GetCommuneSummary handles GET /api/v1/communes/summary
func (h *MobilityHandler) GetCommuneSummary(c *gin.Context) {
	var filter models.EntityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, summary)
}

// GetCommune handles GET /api/v1/communes/:code
func (h *MobilityHandler) GetCommune(c *gin.Context) {
	commune, err := h.service.Commune(c.Request.Context(), c.Param("code"), c.Query("age"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, commune)
}

// ListRegions handles GET /api/v1/regions
func (h *MobilityHandler) ListRegions(c *gin.Context) {
	var filter models.EntityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	regions, err := h.service.Regions(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"regions": regions,
		"count":   len(regions),
	})
}

// TopRegions handles GET /api/v1/regions/top
func (h *MobilityHandler) TopRegions(c *gin.Context) {
	var filter models.TopFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	regions, err := h.service.TopRegions(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, regions)
}

// GetRegion handles GET /api/v1/regions/:code
func (h *MobilityHandler) GetRegion(c *gin.Context) {
	region, err := h.service.Region(c.Request.Context(), c.Param("code"), c.Query("age"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, region)
}
