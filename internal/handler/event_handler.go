package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/periodic-risk-go/internal/models"
	"github.com/jengzang/periodic-risk-go/internal/service"
	"github.com/jengzang/periodic-risk-go/pkg/response"
)

// EventHandler handles HTTP requests for events
type EventHandler struct {
	eventService *service.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// IngestEventsRequest is the body of an event ingest
type IngestEventsRequest struct {
	Events []models.EventInput `json:"events" binding:"required,dive"`
}

// IngestEvents handles POST /api/v1/events
func (h *EventHandler) IngestEvents(c *gin.Context) {
	var req IngestEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	n, err := h.eventService.Ingest(c.Request.Context(), req.Events)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"inserted": n})
}

// GetEvents handles GET /api/v1/events
func (h *EventHandler) GetEvents(c *gin.Context) {
	var filter models.EventFilter

	// Parse query parameters
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.eventService.GetEvents(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, result)
}
