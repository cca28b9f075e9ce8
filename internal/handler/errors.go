package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/periodic-risk-go/internal/circular"
	"github.com/jengzang/periodic-risk-go/internal/repository"
	"github.com/jengzang/periodic-risk-go/internal/service"
	"github.com/jengzang/periodic-risk-go/pkg/response"
)

// respondError maps service and core errors to HTTP statuses
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, circular.ErrUnknownDomain),
		errors.Is(err, circular.ErrInsufficientData),
		errors.Is(err, circular.ErrInvalidInput),
		errors.Is(err, circular.ErrNumericDomain):
		response.BadRequest(c, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrTaskNotActive):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, "internal error")
	}
}
