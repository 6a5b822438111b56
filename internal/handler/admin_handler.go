package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/service"
	"github.com/jengzang/mobility-backend-go/pkg/response"
)

// AdminHandler handles the protected maintenance endpoints
type AdminHandler struct {
	pipeline *service.PipelineService
	mobility *service.MobilityService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(pipeline *service.PipelineService, mobility *service.MobilityService) *AdminHandler {
	return &AdminHandler{pipeline: pipeline, mobility: mobility}
}

// RunNormalization runs the survey normalization now
// POST /api/v1/admin/pipeline/normalize
func (h *AdminHandler) RunNormalization(c *gin.Context) {
	run, err := h.pipeline.Run(c.Request.Context(), models.RunTriggerAPI)
	if err != nil {
		if run != nil {
			// the run was recorded as failed
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, response.Response{
				Code:    http.StatusUnprocessableEntity,
				Message: err.Error(),
				Data:    run,
			})
			return
		}
		writeError(c, err)
		return
	}
	response.Success(c, run)
}

// ListRuns retrieves recorded runs
// GET /api/v1/admin/pipeline/runs
func (h *AdminHandler) ListRuns(c *gin.Context) {
	status := c.Query("status")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		response.BadRequest(c, "Invalid limit parameter")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		response.BadRequest(c, "Invalid offset parameter")
		return
	}

	runs, err := h.pipeline.ListRuns(status, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun retrieves a run by ID
// GET /api/v1/admin/pipeline/runs/:id
func (h *AdminHandler) GetRun(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid run ID")
		return
	}

	run, err := h.pipeline.GetRun(id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, run)
}

// ClearCache drops every cached table
// POST /api/v1/admin/cache/clear
func (h *AdminHandler) ClearCache(c *gin.Context) {
	h.mobility.ClearCache()
	response.Success(c, gin.H{"cleared": true})
}
