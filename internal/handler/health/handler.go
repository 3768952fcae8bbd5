package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks that the session store answers.
type Pinger interface {
	Ping(ctx context.Context) error
	Backend() string
}

// BreakerState reports the backend circuit breaker state.
type BreakerState func() string

type Handler struct {
	sessions Pinger
	breaker  BreakerState
	version  string
}

func NewHandler(sessions Pinger, breaker BreakerState, version string) *Handler {
	return &Handler{
		sessions: sessions,
		breaker:  breaker,
		version:  version,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP", "version": h.version})
}

// ReadinessCheck is DOWN while the session store fails to answer or the
// backend breaker is open.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	breaker := h.breaker()
	body := gin.H{
		"session_store": h.sessions.Backend(),
		"backend_api":   breaker,
	}

	if err := h.sessions.Ping(ctx); err != nil {
		body["status"] = "DOWN"
		body["reason"] = "Session store unavailable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	if breaker == "open" {
		body["status"] = "DOWN"
		body["reason"] = "Backend API unavailable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	body["status"] = "UP"
	c.JSON(http.StatusOK, body)
}
