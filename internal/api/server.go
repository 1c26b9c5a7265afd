package api

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voxpost/internal/article"
	"voxpost/internal/logging"
	"voxpost/internal/metrics"
	"voxpost/internal/queue"
	"voxpost/internal/services"
	"voxpost/internal/trigger"
	"voxpost/internal/workflow"
)

const requestIDHeader = "X-Request-ID"

// StatusProvider reports workflow diagnostics.
type StatusProvider interface {
	Status(ctx context.Context) workflow.StatusSummary
}

// Dependencies are the collaborators the router serves.
type Dependencies struct {
	Articles article.Store
	Jobs     *queue.Store
	Enqueuer trigger.Enqueuer
	// Workflow is optional; without it /api/status reports queue counts only.
	Workflow StatusProvider
	// Notify, when set, runs after an operator retry requeues a job.
	Notify       func()
	Logger       *slog.Logger
	Token        string
	Transport    string
	StoreBackend string
	Version      string
	NewID        func() string
}

type server struct {
	deps   Dependencies
	logger *slog.Logger
	newID  func() string
}

// NewRouter builds the gin engine.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	var missing []string
	if deps.Articles == nil {
		missing = append(missing, "article store")
	}
	if deps.Jobs == nil {
		missing = append(missing, "job queue")
	}
	if deps.Enqueuer == nil {
		missing = append(missing, "enqueuer")
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "", "new router",
			"missing "+strings.Join(missing, ", "), nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &server{
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "api"),
		newID:  deps.NewID,
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestContext(), s.accessLog(), metricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api", authMiddleware(deps.Token))
	{
		api.POST("/articles", s.createArticle)
		api.GET("/users/:user/articles", s.listArticles)
		api.GET("/users/:user/articles/:id", s.getArticle)
		api.PUT("/users/:user/preferences", s.putPreferences)
		api.PUT("/users/:user/styles/:id", s.putStyleProfile)

		api.GET("/jobs", s.listJobs)
		api.DELETE("/jobs/completed", s.clearCompletedJobs)
		api.GET("/jobs/:id", s.getJob)
		api.POST("/jobs/:id/retry", s.retryJob)

		api.GET("/status", s.status)
	}
	return router, nil
}

func (s *server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func (s *server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		logger := logging.WithContext(c.Request.Context(), s.logger)
		attrs := logging.Args(
			logging.String("method", c.Request.Method),
			logging.String("route", routeLabel(c)),
			logging.Int("status", status),
			logging.Duration("elapsed", time.Since(start)),
		)
		if status >= 500 {
			logger.Warn("api request failed", attrs...)
			return
		}
		logger.Debug("api request", attrs...)
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := routeLabel(c)
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// authMiddleware validates bearer tokens. An empty token disables the check.
func authMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
			c.AbortWithStatusJSON(401, ErrorResponse{Error: "unauthorized"})
			return
		}
		c.Next()
	}
}

// routeLabel keeps metric cardinality bounded to registered routes.
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
