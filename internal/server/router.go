// Package server exposes the running simulator over a small read-only HTTP API.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Resanso/substation-simulator/internal/simulation"
	"github.com/Resanso/substation-simulator/internal/substation"
	"github.com/Resanso/substation-simulator/internal/transmission"
)

// Runner is the view of the simulation loop the HTTP layer needs.
type Runner interface {
	Status() substation.Status
	Latest() (simulation.Snapshot, bool)
	Statistics() transmission.Statistics
}

// Dependencies groups objects the HTTP layer needs.
type Dependencies struct {
	Runner      Runner
	Device      string
	Logger      *slog.Logger
	CORSOrigins []string
}

// NewRouter configures all HTTP routes.
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(deps.Logger), corsMiddleware(deps.CORSOrigins))

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "device": deps.Device})
	})

	r.GET("/api/simulation/status", func(c *gin.Context) {
		if deps.Runner == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"running": false})
			return
		}
		c.JSON(http.StatusOK, deps.Runner.Status())
	})

	r.GET("/api/simulation/latest", func(c *gin.Context) {
		if deps.Runner == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "simulator not running"})
			return
		}
		snap, ok := deps.Runner.Latest()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no readings generated yet"})
			return
		}
		c.JSON(http.StatusOK, snap)
	})

	r.GET("/api/simulation/statistics", func(c *gin.Context) {
		if deps.Runner == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "simulator not running"})
			return
		}
		c.JSON(http.StatusOK, deps.Runner.Statistics())
	})

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Accept", "Content-Type"},
		MaxAge:       12 * time.Hour,
	})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
