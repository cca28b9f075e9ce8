package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jengzang/periodic-risk-go/internal/config"
	"github.com/jengzang/periodic-risk-go/internal/handler"
	"github.com/jengzang/periodic-risk-go/internal/metrics"
	"github.com/jengzang/periodic-risk-go/internal/middleware"
	"github.com/jengzang/periodic-risk-go/internal/service"
)

// Services are the business services the router exposes
type Services struct {
	Events   *service.EventService
	Profiles *service.ProfileService
	Scoring  *service.ScoringService
	Circular *service.CircularService
	Tasks    *service.TrainingTaskService
}

// Deps 路由依赖
type Deps struct {
	Config   *config.Config
	Services Services
	Metrics  *metrics.Registry
	Logger   zerolog.Logger
	Limiter  *middleware.RateLimiter
}

// SetupRouter 设置路由
func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger, deps.Metrics))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		n, err := deps.Services.Profiles.Count(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "degraded",
				"message": "Profile store unavailable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"message":  "Periodic risk API is running",
			"profiles": n,
		})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	events := handler.NewEventHandler(deps.Services.Events)
	profiles := handler.NewProfileHandler(deps.Services.Profiles)
	scores := handler.NewScoreHandler(deps.Services.Scoring)
	circ := handler.NewCircularHandler(deps.Services.Circular)
	tasks := handler.NewTrainingTaskHandler(deps.Services.Tasks)

	// API 路由组
	api := r.Group("/api/v1")
	if deps.Limiter != nil {
		api.Use(middleware.RateLimit(deps.Limiter))
	}
	{
		api.POST("/events", events.IngestEvents)
		api.GET("/events", events.GetEvents)

		api.GET("/profiles/:account", profiles.GetProfile)

		api.POST("/score", scores.Score)
		api.POST("/score/batch", scores.ScoreBatch)

		circular := api.Group("/circular")
		{
			circular.POST("/analyze", circ.Analyze)
			circular.POST("/vonmises", circ.VonMises)
			circular.GET("/domains", circ.GetDomains)
		}
	}

	// 管理接口
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuth(deps.Config.JWTSecret))
	{
		admin.DELETE("/profiles/:account", profiles.DeleteProfile)

		training := admin.Group("/training/tasks")
		{
			training.POST("", tasks.CreateTask)
			training.GET("", tasks.ListTasks)
			training.GET("/:id", tasks.GetTask)
			training.DELETE("/:id", tasks.CancelTask)
		}
	}

	return r
}
