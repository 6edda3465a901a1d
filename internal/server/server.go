// internal/server/server.go
package server

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pagesmith/internal/common/config"
	"pagesmith/internal/common/logger"
	"pagesmith/internal/pipeline"
	"pagesmith/internal/runstore"
)

// Server exposes the inbound webhook surface: the task endpoint, run status
// lookup, health, and metrics.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	handler    *TaskHandler
	logger     logger.Logger
}

func New(cfg *config.Config, orch *pipeline.Orchestrator, store *runstore.Store, log logger.Logger) *Server {
	if cfg.App.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if cfg.Server.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
		engine.Use(cors.New(corsConfig))
	}

	handler := NewTaskHandler(cfg.Auth.WebhookSecret, orch, store, log)

	engine.POST("/handle_task", handler.HandleTask)
	engine.GET("/runs/:id", handler.GetRun)
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		engine:  engine,
		handler: handler,
		httpServer: &http.Server{
			Addr:         cfg.Server.GetAddr(),
			Handler:      engine,
			ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
		},
		logger: log,
	}
}

// Engine exposes the router for httptest-driven tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
