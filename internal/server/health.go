package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthChecker reports whether a dependency can serve requests. Checks
// should be quick; each runs with a short timeout.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// HealthFunc adapts a function to HealthChecker.
type HealthFunc func(ctx context.Context) bool

func (f HealthFunc) Healthy(ctx context.Context) bool {
	return f(ctx)
}

type namedCheck struct {
	name  string
	check HealthChecker
}

type healthPayload struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks,omitempty"`
	Sessions int               `json:"sessions"`
}

func (s *Server) healthCheck(c *gin.Context) {
	payload := healthPayload{Status: "ok", Sessions: s.sessions.len()}
	status := http.StatusOK

	for _, entry := range s.health {
		if payload.Checks == nil {
			payload.Checks = make(map[string]string, len(s.health))
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		healthy := entry.check.Healthy(ctx)
		cancel()
		if healthy {
			payload.Checks[entry.name] = "ok"
			continue
		}
		payload.Checks[entry.name] = "unavailable"
		payload.Status = "degraded"
		status = http.StatusServiceUnavailable
		s.logger.Error("server: health check failed", zap.String("check", entry.name))
	}
	c.JSON(status, payload)
}
