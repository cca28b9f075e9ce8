package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/periodic-risk-go/internal/models"
	"github.com/jengzang/periodic-risk-go/internal/service"
	"github.com/jengzang/periodic-risk-go/pkg/response"
)

// CircularHandler exposes the circular statistics pipeline
type CircularHandler struct {
	circularService *service.CircularService
}

// NewCircularHandler creates a new circular handler
func NewCircularHandler(circularService *service.CircularService) *CircularHandler {
	return &CircularHandler{
		circularService: circularService,
	}
}

// Analyze handles POST /api/v1/circular/analyze
func (h *CircularHandler) Analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.circularService.Analyze(req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, result)
}

// VonMises handles POST /api/v1/circular/vonmises
func (h *CircularHandler) VonMises(c *gin.Context) {
	var req models.VonMisesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.circularService.VonMises(req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, result)
}

// GetDomains handles GET /api/v1/circular/domains
func (h *CircularHandler) GetDomains(c *gin.Context) {
	response.Success(c, h.circularService.Domains())
}
