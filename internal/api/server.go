// Package api implements the gateway's HTTP surface: the OpenAI-compatible
// chat-completions endpoint, the model listing endpoint, and diagnostics,
// wired on top of gin.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/specialist-gateway/gateway/internal/config"
	"github.com/specialist-gateway/gateway/internal/database"
	"github.com/specialist-gateway/gateway/internal/orchestrator"
	"github.com/specialist-gateway/gateway/internal/promptregistry"
	"github.com/specialist-gateway/gateway/internal/specialist"
	"github.com/specialist-gateway/gateway/internal/statepipeline"
)

// Server is the gateway's HTTP API server.
type Server struct {
	engine       *gin.Engine
	httpServer   *http.Server
	cfg          *config.Config
	orchestrator *orchestrator.Orchestrator
	coordinator  *statepipeline.Coordinator // nil when state subsystem disabled
	dbClient     *database.Client           // nil when state subsystem disabled
	catalog      *specialist.Catalog
	prompts      *promptregistry.Registry
}

// New builds the gateway's gin engine and registers every route.
func New(
	cfg *config.Config,
	orch *orchestrator.Orchestrator,
	coordinator *statepipeline.Coordinator,
	dbClient *database.Client,
	catalog *specialist.Catalog,
	prompts *promptregistry.Registry,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:       engine,
		cfg:          cfg,
		orchestrator: orch,
		coordinator:  coordinator,
		dbClient:     dbClient,
		catalog:      catalog,
		prompts:      prompts,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.Use(requestLogger())
	authGroup := s.engine.Group("/v1")
	authGroup.Use(bearerAuth(s.cfg.Auth.Keys))
	authGroup.POST("/chat/completions", s.handleChatCompletions)
	authGroup.GET("/models", s.handleListModels)

	healthzPath := s.cfg.Server.HealthzPath
	if healthzPath == "" {
		healthzPath = "/healthz"
	}
	readyzPath := s.cfg.Server.ReadyzPath
	if readyzPath == "" {
		readyzPath = "/readyz"
	}
	diagnosticsPath := s.cfg.Server.DiagnosticsPath
	if diagnosticsPath == "" {
		diagnosticsPath = "/diagnostics"
	}

	s.engine.GET(healthzPath, s.handleHealthz)
	s.engine.GET(readyzPath, s.handleReadyz)
	s.engine.GET(diagnosticsPath, s.handleDiagnostics)
}

// Start runs the HTTP server (blocking) on the configured port.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
