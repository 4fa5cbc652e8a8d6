package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/isectech/disaster-recovery/config"
	"github.com/isectech/disaster-recovery/engine"
)

// RecoveryHTTPServer exposes the disaster recovery operations over REST
type RecoveryHTTPServer struct {
	router       *gin.Engine
	server       *http.Server
	orchestrator *engine.RecoveryOrchestrator
	registry     *engine.ScenarioRegistry
	gatherer     prometheus.Gatherer
	config       config.HTTPConfig
	metricsPath  string
	logger       *zap.Logger
}

// NewRecoveryHTTPServer creates the HTTP delivery layer
func NewRecoveryHTTPServer(
	orchestrator *engine.RecoveryOrchestrator,
	registry *engine.ScenarioRegistry,
	gatherer prometheus.Gatherer,
	cfg config.HTTPConfig,
	metricsPath string,
	logger *zap.Logger,
) *RecoveryHTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &RecoveryHTTPServer{
		orchestrator: orchestrator,
		registry:     registry,
		gatherer:     gatherer,
		config:       cfg,
		metricsPath:  metricsPath,
		logger:       logger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *RecoveryHTTPServer) setupRoutes() {
	s.router = gin.New()

	// Middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// Health check
	s.router.GET("/health", s.healthCheck)

	// Prometheus metrics
	if s.gatherer != nil && s.metricsPath != "" {
		s.router.GET(s.metricsPath, gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		recovery := v1.Group("/recovery")
		{
			recovery.POST("/trigger", s.triggerRecovery)
			recovery.GET("/executions", s.listExecutions)
			recovery.GET("/executions/:id", s.getExecution)
			recovery.POST("/test", s.testProcedures)
		}

		v1.GET("/scenarios", s.listScenarios)
	}
}

// Start begins serving HTTP requests
func (s *RecoveryHTTPServer) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.logger.Info("HTTP server starting", zap.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *RecoveryHTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router exposes the gin engine for tests
func (s *RecoveryHTTPServer) Router() *gin.Engine {
	return s.router
}

// loggingMiddleware logs each request with latency and status
func (s *RecoveryHTTPServer) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// healthCheck reports service liveness
func (s *RecoveryHTTPServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "disaster-recovery",
	})
}
