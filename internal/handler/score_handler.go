package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/periodic-risk-go/internal/models"
	"github.com/jengzang/periodic-risk-go/internal/service"
	"github.com/jengzang/periodic-risk-go/pkg/response"
)

// ScoreHandler handles HTTP requests for transaction scoring
type ScoreHandler struct {
	scoringService *service.ScoringService
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(scoringService *service.ScoringService) *ScoreHandler {
	return &ScoreHandler{
		scoringService: scoringService,
	}
}

// ScoreBatchRequest is the body of a batch scoring request
type ScoreBatchRequest struct {
	Transactions []models.ScoreRequest `json:"transactions" binding:"required"`
}

// Score handles POST /api/v1/score
func (h *ScoreHandler) Score(c *gin.Context) {
	var req models.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.scoringService.Score(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, result)
}

// ScoreBatch handles POST /api/v1/score/batch
func (h *ScoreHandler) ScoreBatch(c *gin.Context) {
	var req ScoreBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	results, err := h.scoringService.ScoreBatch(c.Request.Context(), req.Transactions)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"results": results})
}
