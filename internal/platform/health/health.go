// Package health exposes liveness and readiness endpoints.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Pinger is any dependency whose reachability gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves /health and /ready.
type Handler struct {
	db      *gorm.DB
	service string
	extra   map[string]Pinger
}

// NewHandler creates a Handler. Optional dependencies are checked by /ready
// but never fail it; only the database does.
func NewHandler(db *gorm.DB, service string) *Handler {
	return &Handler{db: db, service: service, extra: map[string]Pinger{}}
}

// WithDependency registers an optional dependency to report on.
func (h *Handler) WithDependency(name string, p Pinger) *Handler {
	h.extra[name] = p
	return h
}

// RegisterRoutes registers the health routes on router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Live)
	router.GET("/ready", h.Ready)
}

// Live always reports ok while the process is serving.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": h.service})
}

// Ready pings the database and optional dependencies.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	status := http.StatusOK

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	for name, p := range h.extra {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	c.JSON(status, gin.H{"service": h.service, "checks": checks})
}
