package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/outreach-crm/internal/domain"
	"github.com/ignite/outreach-crm/internal/pkg/httputil"
	"github.com/ignite/outreach-crm/internal/service/outreach"
)

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// writeServiceError maps service errors onto HTTP statuses. Validation
// errors from the service arrive as plain errors and become 400s.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, outreach.ErrNotFound):
		httputil.NotFound(w, "not found")
	case errors.Is(err, outreach.ErrDuplicateUsername),
		errors.Is(err, outreach.ErrDuplicateCode),
		errors.Is(err, outreach.ErrBatchComplete):
		httputil.Conflict(w, err.Error())
	default:
		httputil.BadRequest(w, err.Error())
	}
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	f := outreach.ConfigFilter{}
	if v := r.URL.Query().Get("active"); v != "" {
		active := v == "true"
		f.Active = &active
	}
	f.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	f.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	configs, total, err := s.svc.ListConfigs(r.Context(), f)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if configs == nil {
		configs = []domain.AutoDMConfig{}
	}
	httputil.OK(w, map[string]interface{}{
		"configs": configs,
		"total":   total,
	})
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var in outreach.ConfigInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	cfg, err := s.svc.CreateConfig(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Created(w, cfg)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httputil.BadRequest(w, "invalid id")
		return
	}
	cfg, err := s.svc.GetConfig(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, cfg)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httputil.BadRequest(w, "invalid id")
		return
	}

	var u struct {
		Name           *string              `json:"name"`
		Country        *string              `json:"country"`
		IsActive       *bool                `json:"is_active"`
		SenderID       *int64               `json:"sender_id"`
		TemplateID     *int64               `json:"template_id"`
		ScheduleType   *domain.ScheduleType `json:"schedule_type"`
		ScheduleTime   *int                 `json:"schedule_time"`
		ScheduleDay    *int                 `json:"schedule_day"`
		MinReviewScore *int                 `json:"min_review_score"`
		Priority       *int                 `json:"priority"`
	}
	if !httputil.Decode(w, r, &u) {
		return
	}

	err := s.svc.UpdateConfig(r.Context(), id, outreach.ConfigUpdate{
		Name:           u.Name,
		Country:        u.Country,
		IsActive:       u.IsActive,
		SenderID:       u.SenderID,
		TemplateID:     u.TemplateID,
		ScheduleType:   u.ScheduleType,
		ScheduleTime:   u.ScheduleTime,
		ScheduleDay:    u.ScheduleDay,
		MinReviewScore: u.MinReviewScore,
		Priority:       u.Priority,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httputil.BadRequest(w, "invalid id")
		return
	}
	if err := s.svc.DeleteConfig(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}
