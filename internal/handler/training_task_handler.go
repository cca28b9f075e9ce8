package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/periodic-risk-go/internal/models"
	"github.com/jengzang/periodic-risk-go/internal/service"
	"github.com/jengzang/periodic-risk-go/pkg/response"
)

// TrainingTaskHandler handles HTTP requests for training tasks
type TrainingTaskHandler struct {
	service *service.TrainingTaskService
}

// NewTrainingTaskHandler creates a new training task handler
func NewTrainingTaskHandler(service *service.TrainingTaskService) *TrainingTaskHandler {
	return &TrainingTaskHandler{service: service}
}

// CreateTaskRequest represents the request body for creating a training task
type CreateTaskRequest struct {
	SkillName string                 `json:"skill_name" binding:"required"`
	TaskType  string                 `json:"task_type" binding:"required"` // INCREMENTAL or FULL_RECOMPUTE
	Params    map[string]interface{} `json:"params"`
}

// CreateTask creates a new training task
// POST /api/admin/training/tasks
func (h *TrainingTaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Get user from context (set by auth middleware)
	createdBy := c.GetString("user")

	task, err := h.service.CreateTask(c.Request.Context(), req.SkillName, req.TaskType, req.Params, createdBy)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, task)
}

// GetTask retrieves a task by ID
// GET /api/admin/training/tasks/:id
func (h *TrainingTaskHandler) GetTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.service.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, task)
}

// ListTasks retrieves tasks
// GET /api/admin/training/tasks
func (h *TrainingTaskHandler) ListTasks(c *gin.Context) {
	var filter models.TaskFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	tasks, err := h.service.ListTasks(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"tasks":  tasks,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// CancelTask cancels a running task
// DELETE /api/admin/training/tasks/:id
func (h *TrainingTaskHandler) CancelTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.service.CancelTask(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "Task cancelled successfully"})
}

func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid task ID")
		return 0, false
	}
	return id, true
}
