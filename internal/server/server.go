// Package server exposes projects, tasks, reports and notifications over a
// JSON HTTP API.
package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/notify"
	"github.com/nhle/projectpulse/internal/rules"
	"github.com/nhle/projectpulse/internal/stats"
	"github.com/nhle/projectpulse/internal/store"
)

// Server provides HTTP handlers for the tracker.
type Server struct {
	engine *gin.Engine
	store  store.Store
	notify *notify.Service
	stats  *stats.Engine
	rules  *rules.Engine
	logger *slog.Logger
}

// New constructs the HTTP server with routes and middleware configured.
func New(s store.Store, n *notify.Service, st *stats.Engine, r *rules.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	srv := &Server{
		engine: router,
		store:  s,
		notify: n,
		stats:  st,
		rules:  r,
		logger: logger,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		notifications := api.Group("/notifications")
		{
			notifications.GET("", s.handleListNotifications)
			notifications.POST("", s.handleCreateNotification)
			notifications.GET("/unread-count", s.handleUnreadCount)
			notifications.POST("/read-all", s.handleMarkAllRead)
			notifications.DELETE("/read", s.handleDeleteRead)
			notifications.GET("/:id", s.handleGetNotification)
			notifications.DELETE("/:id", s.handleDeleteNotification)
			notifications.POST("/:id/read", s.handleMarkRead)
		}

		checks := api.Group("/checks")
		{
			checks.POST("/run", s.handleRunChecks)
			checks.GET("/history", s.handleCheckHistory)
		}

		projects := api.Group("/projects")
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.GET("/:id", s.handleGetProject)
			projects.PUT("/:id", s.handleUpdateProject)
			projects.DELETE("/:id", s.handleDeleteProject)
			projects.GET("/:id/progress", s.handleProjectProgress)
			projects.GET("/:id/cost", s.handleProjectCost)
		}

		developers := api.Group("/developers")
		{
			developers.GET("", s.handleListDevelopers)
			developers.POST("", s.handleUpsertDeveloper)
			developers.GET("/:id", s.handleGetDeveloper)
			developers.DELETE("/:id", s.handleDeleteDeveloper)
			developers.GET("/:id/salary", s.handleDeveloperSalary)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", s.handleListTasks)
			tasks.POST("", s.handleCreateTask)
			tasks.GET("/:id", s.handleGetTask)
			tasks.PUT("/:id", s.handleUpdateTask)
			tasks.DELETE("/:id", s.handleDeleteTask)
		}

		reports := api.Group("/reports")
		{
			reports.GET("/projects", s.handleProjectStatusReport)
			reports.GET("/workload", s.handleWorkloadReport)
			reports.GET("/overdue-tasks", s.handleOverdueTasksReport)
			reports.GET("/revenue", s.handleRevenueReport)
		}
	}
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)),
		)
	}
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier", "kind": "validation"})
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validationf(name, "invalid %s %q", name, raw)
	}
	return v, nil
}

// queryInt64 reads an optional positive id query parameter.
func queryInt64(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, apperr.Validationf(name, "invalid %s %q", name, raw)
	}
	return &v, nil
}

// queryDate reads an optional YYYY-MM-DD query parameter.
func queryDate(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil, apperr.Validationf(name, "invalid %s %q, expected YYYY-MM-DD", name, raw)
	}
	return &d, nil
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case "validation":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "conflict":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs server-side failures and returns a JSON payload with
// the error kind.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	body := gin.H{"error": err.Error(), "kind": apperr.KindOf(err)}
	if field := apperr.FieldOf(err); field != "" {
		body["field"] = field
	}
	c.JSON(status, body)
}

// badRequest reports a malformed request body.
func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
}

// respondSuccess writes payload, or just the status when there is none.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
