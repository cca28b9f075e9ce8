package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/periodic-risk-go/internal/analysis"
	"github.com/jengzang/periodic-risk-go/internal/analysis/temporal"
	"github.com/jengzang/periodic-risk-go/internal/config"
	"github.com/jengzang/periodic-risk-go/internal/database"
	"github.com/jengzang/periodic-risk-go/internal/metrics"
	"github.com/jengzang/periodic-risk-go/internal/middleware"
	"github.com/jengzang/periodic-risk-go/internal/models"
	"github.com/jengzang/periodic-risk-go/internal/repository"
	"github.com/jengzang/periodic-risk-go/internal/service"
	"github.com/jengzang/periodic-risk-go/internal/training"
	"github.com/jengzang/periodic-risk-go/pkg/response"
)

const testSecret = "router-secret"

type testServer struct {
	router   *gin.Engine
	profiles *service.ProfileService
	tasks    *service.TrainingTaskService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = database.NewMigrationManager(db).RunMigrations()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.JWTSecret = testSecret
	m := metrics.NewRegistry()
	trainer := training.NewTrainer(training.Config{Points: 32, Workers: 1}, training.WithObserver(m))

	profiles := service.NewProfileService(repository.NewRiskProfileRepository(db), nil, m, zerolog.Nop())
	tasks := service.NewTrainingTaskService(repository.NewTrainingTaskRepository(db), analysis.Deps{
		DB:      db,
		Trainer: trainer,
		Logger:  zerolog.Nop(),
	})
	t.Cleanup(tasks.Shutdown)

	limiter := middleware.NewRateLimiter(1000, time.Minute)
	t.Cleanup(limiter.Stop)

	router := SetupRouter(Deps{
		Config: cfg,
		Services: Services{
			Events:   service.NewEventService(repository.NewEventRepository(db)),
			Profiles: profiles,
			Scoring:  service.NewScoringService(profiles, training.NewScorer(cfg.ScoringConfig()), m),
			Circular: service.NewCircularService(cfg.Training.Bandwidth),
			Tasks:    tasks,
		},
		Metrics: m,
		Logger:  zerolog.Nop(),
		Limiter: limiter,
	})
	return &testServer{router: router, profiles: profiles, tasks: tasks}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp response.Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := middleware.IssueToken(testSecret, "ops", time.Hour)
	require.NoError(t, err)
	return token
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, "GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var health struct {
		Status   string `json:"status"`
		Profiles int    `json:"profiles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Zero(t, health.Profiles)

	rec, _ = s.do(t, "GET", "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "periodic_http_requests_total")
}

func TestEventsAndTrainingFlow(t *testing.T) {
	s := newTestServer(t)

	base := time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC)
	var events []models.EventInput
	for i := 0; i < 20; i++ {
		events = append(events, models.EventInput{
			AccountID: "acc",
			Timestamp: base.AddDate(0, 0, i).Add(time.Duration(i%5) * 10 * time.Minute),
		})
	}

	rec, resp := s.do(t, "POST", "/api/v1/events", gin.H{"events": events}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]interface{}{"inserted": 20.0}, resp.Data)

	rec, resp = s.do(t, "GET", "/api/v1/events?account_id=acc&pageSize=5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4.0, resp.Data.(map[string]interface{})["total_pages"])

	rec, _ = s.do(t, "GET", "/api/v1/profiles/acc", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, "POST", "/api/admin/training/tasks", gin.H{"skill_name": temporal.SkillName, "task_type": models.TaskTypeFullRecompute}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := adminToken(t)
	rec, resp = s.do(t, "POST", "/api/admin/training/tasks", gin.H{"skill_name": temporal.SkillName, "task_type": models.TaskTypeFullRecompute}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ops", resp.Data.(map[string]interface{})["created_by"])
	s.tasks.Wait()

	rec, resp = s.do(t, "GET", "/api/admin/training/tasks/1", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.TaskStatusCompleted, resp.Data.(map[string]interface{})["status"])

	rec, _ = s.do(t, "DELETE", "/api/admin/training/tasks/1", nil, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, resp = s.do(t, "GET", "/api/v1/profiles/acc", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data.(map[string]interface{})["domains"], 3)

	rec, resp = s.do(t, "POST", "/api/v1/score", gin.H{"account_id": "acc", "timestamp": "2024-03-01T08:40:00Z"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "acc", resp.Data.(map[string]interface{})["account_id"])

	rec, resp = s.do(t, "POST", "/api/v1/score/batch", gin.H{"transactions": []gin.H{
		{"transaction_id": "x", "account_id": "acc", "timestamp": "2024-03-01T08:40:00Z"},
		{"transaction_id": "y", "account_id": "nobody", "timestamp": "2024-03-01T08:40:00Z"},
	}}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	results := resp.Data.(map[string]interface{})["results"].([]interface{})
	require.Len(t, results, 2)
	assert.Nil(t, results[1].(map[string]interface{})["risk"])

	rec, _ = s.do(t, "DELETE", "/api/admin/profiles/acc", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, "DELETE", "/api/admin/profiles/acc", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScoreValidation(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, "POST", "/api/v1/score", gin.H{"account_id": "acc"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, "POST", "/api/v1/score", gin.H{"account_id": "acc", "timestamp": "noon"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCircularEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, "GET", "/api/v1/circular/domains", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, 3)

	rec, resp = s.do(t, "POST", "/api/v1/circular/analyze", gin.H{
		"domain": "hour",
		"values": []float64{8, 8.5, 9, 9.25, 20, 21, 21.5},
		"points": 48,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := resp.Data.(map[string]interface{})
	assert.Len(t, data["curve"], 48)
	assert.Contains(t, data, "p_value")

	rec, _ = s.do(t, "POST", "/api/v1/circular/analyze", gin.H{"domain": "minute", "values": []float64{1, 2}}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, "POST", "/api/v1/circular/analyze", gin.H{"domain": "hour", "values": []float64{1}}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = s.do(t, "POST", "/api/v1/circular/vonmises", gin.H{"mean": 1.0, "std": 0.3, "size": 10}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data.(map[string]interface{})["density"], 10)
}

func TestAdminRequiresValidToken(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, "GET", "/api/admin/training/tasks", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, resp := s.do(t, "GET", "/api/admin/training/tasks", nil, adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp.Data.(map[string]interface{})["tasks"])

	rec, _ = s.do(t, "GET", "/api/admin/training/tasks/abc", nil, adminToken(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
