package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/mobility-backend-go/internal/repository"
	"github.com/jengzang/mobility-backend-go/internal/service"
	"github.com/jengzang/mobility-backend-go/pkg/response"
)

// writeError maps service errors onto the response envelope
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidFilter):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrRunNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrNoData):
		response.NotFound(c, "No data available for the selected filters")
	case errors.Is(err, service.ErrRunInProgress):
		response.Conflict(c, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c, "Internal server error")
	}
}
