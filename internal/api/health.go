package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/outreach-crm/internal/pkg/httputil"
)

// componentCheck is the health of one dependency.
type componentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// handleHealth reports overall health. Always returns 200; the body's
// status field carries the verdict. The database is the only hard
// dependency; Redis and the automation backend degrade rather than fail.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := map[string]componentCheck{
		"database": s.checkDatabase(ctx),
		"redis":    s.checkRedis(ctx),
		"backend":  s.checkBackend(ctx),
	}

	overall := "healthy"
	if db := checks["database"]; db.Status == "down" && db.Message != "not configured" {
		overall = "unhealthy"
	} else {
		for _, c := range checks {
			if c.Status == "down" && c.Message != "not configured" {
				overall = "degraded"
				break
			}
		}
	}

	httputil.OK(w, map[string]interface{}{
		"status": overall,
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
		"checks": checks,
	})
}

func (s *Server) checkDatabase(ctx context.Context) componentCheck {
	if s.db == nil {
		return componentCheck{Status: "down", Message: "not configured"}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.db.PingContext(pingCtx); err != nil {
		return componentCheck{
			Status:  "down",
			Latency: time.Since(start).String(),
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}
	return componentCheck{Status: "up", Latency: time.Since(start).String()}
}

func (s *Server) checkRedis(ctx context.Context) componentCheck {
	if s.redis == nil {
		return componentCheck{Status: "down", Message: "not configured"}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.redis.Ping(pingCtx).Err(); err != nil {
		return componentCheck{
			Status:  "down",
			Latency: time.Since(start).String(),
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}
	return componentCheck{Status: "up", Latency: time.Since(start).String()}
}

func (s *Server) checkBackend(ctx context.Context) componentCheck {
	if s.backend == nil {
		return componentCheck{Status: "down", Message: "not configured"}
	}
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.backend.Health(probeCtx); err != nil {
		return componentCheck{
			Status:  "down",
			Latency: time.Since(start).String(),
			Message: err.Error(),
		}
	}
	return componentCheck{Status: "up", Latency: time.Since(start).String()}
}
