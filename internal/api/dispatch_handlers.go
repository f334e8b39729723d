package api

import (
	"net/http"

	"github.com/ignite/outreach-crm/internal/dispatch"
	"github.com/ignite/outreach-crm/internal/pkg/httputil"
)

// handleQuota reports today's success count against the daily ceiling.
func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	sent, remaining, err := s.svc.QuotaToday(r.Context(), s.dailyLimit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]int{
		"ceiling":   s.dailyLimit,
		"sent":      sent,
		"remaining": remaining,
	})
}

// handleDispatchRun triggers one tick immediately. The run goes through
// the dispatcher's tick lock, so it can never overlap a scheduled tick.
//
//	POST /api/dispatch/run {"config_id": 3, "force": true}
func (s *Server) handleDispatchRun(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "dispatcher not available")
		return
	}

	var in struct {
		ConfigID *int64 `json:"config_id"`
		Force    bool   `json:"force"`
	}
	if !httputil.Decode(w, r, &in) {
		return
	}

	stats, err := s.runner.RunNow(r.Context(), dispatch.TickOptions{
		ConfigID: in.ConfigID,
		Force:    in.Force,
	})
	if err != nil {
		httputil.Conflict(w, err.Error())
		return
	}
	httputil.OK(w, map[string]interface{}{
		"configs_seen":       stats.ConfigsSeen,
		"configs_dispatched": stats.ConfigsDispatched,
		"configs_skipped":    stats.ConfigsSkipped,
		"sent":               stats.Sent,
		"failed":             stats.Failed,
	})
}
