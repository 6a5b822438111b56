package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/service"
	"github.com/jengzang/mobility-backend-go/pkg/response"
)

// ExportHandler serves the CSV, PDF and XLSX downloads
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(service *service.ExportService) *ExportHandler {
	return &ExportHandler{service: service}
}

type exportFunc func(ctx context.Context, f models.EntityFilter) (*service.Export, error)

func (h *ExportHandler) serve(c *gin.Context, export exportFunc) {
	var filter models.EntityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	file, err := export(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// CommunesCSV handles GET /export/csv/communes
func (h *ExportHandler) CommunesCSV(c *gin.Context) { h.serve(c, h.service.CommunesCSV) }

// RegionsCSV handles GET /export/csv/regions
func (h *ExportHandler) RegionsCSV(c *gin.Context) { h.serve(c, h.service.RegionsCSV) }

// CommunesPDF handles GET /export/pdf/communes
func (h *ExportHandler) CommunesPDF(c *gin.Context) { h.serve(c, h.service.CommunesPDF) }

// RegionsPDF handles GET /export/pdf/regions
func (h *ExportHandler) RegionsPDF(c *gin.Context) { h.serve(c, h.service.RegionsPDF) }

// XLSX handles GET /export/xlsx
func (h *ExportHandler) XLSX(c *gin.Context) { h.serve(c, h.service.XLSX) }
