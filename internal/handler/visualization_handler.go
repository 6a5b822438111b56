package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/service"
	"github.com/jengzang/mobility-backend-go/pkg/response"
)

const contentTypeGeoJSON = "application/geo+json"

// VisualizationHandler serves the maps and charts
type VisualizationHandler struct {
	maps   *service.MapService
	charts *service.ChartService
}

// NewVisualizationHandler creates a new visualization handler
func NewVisualizationHandler(maps *service.MapService, charts *service.ChartService) *VisualizationHandler {
	return &VisualizationHandler{maps: maps, charts: charts}
}

// GetMap handles GET /visualizations/map/:kind. A ".png" suffix renders the
// map as an image instead of GeoJSON.
func (h *VisualizationHandler) GetMap(c *gin.Context) {
	name, png := strings.CutSuffix(c.Param("kind"), ".png")
	kind, ok := service.ParseMapKind(name)
	if !ok {
		response.NotFound(c, "Unknown map")
		return
	}
	var filter models.EntityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	m, err := h.maps.Build(c.Request.Context(), kind, filter)
	if err != nil {
		writeError(c, err)
		return
	}

	if png {
		data, err := h.maps.RenderPNG(m)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "image/png", data)
		return
	}

	data, err := m.GeoJSON()
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, contentTypeGeoJSON, data)
}

// GetHistogram handles GET /visualizations/chart/histogram/:kind
func (h *VisualizationHandler) GetHistogram(c *gin.Context) {
	var filter models.EntityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	data, err := h.charts.Histogram(c.Request.Context(), service.HistogramKind(c.Param("kind")), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// GetBarChart handles GET /visualizations/chart/bar/:kind
func (h *VisualizationHandler) GetBarChart(c *gin.Context) {
	var filter models.EntityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	data, err := h.charts.Bar(c.Request.Context(), service.BarKind(c.Param("kind")), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}
