// Package api exposes the process's health, readiness, and metrics surface,
// grounded on cmd/tarsy/main.go's minimal Gin router.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/store"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/worker"
)

// storeHealth is the subset of *store.Store the health endpoint needs.
type storeHealth interface {
	Health(ctx context.Context) (*store.HealthStatus, error)
}

// workerHealth is the subset of *scheduler.Scheduler the readiness endpoint
// needs.
type workerHealth interface {
	Health() map[string]worker.Health
}

// Server wires the health/ready/metrics HTTP surface onto a Gin engine.
type Server struct {
	db        storeHealth
	scheduler workerHealth
}

// New builds a Server. Either dependency may be nil in degraded setups
// (e.g. a scheduler-less single-tenant deployment); handlers report that
// component as unavailable rather than panicking.
func New(db storeHealth, sched workerHealth) *Server {
	return &Server{db: db, scheduler: sched}
}

// Router builds the Gin engine serving /healthz, /readyz, and /metrics.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	router.GET("/healthz", s.handleHealth)
	router.GET("/readyz", s.handleReady)
	router.GET("/metrics", gin.WrapH(MetricsHandler()))
	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := s.db.Health(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"store":  dbHealth,
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"store":  dbHealth,
	})
}

func (s *Server) handleReady(c *gin.Context) {
	if s.scheduler == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "workers": gin.H{}})
		return
	}

	health := s.scheduler.Health()
	ActiveWorkers.Set(float64(len(health)))

	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"workers": health,
	})
}
