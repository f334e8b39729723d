package api

import (
	"net/http"
	"strconv"

	"github.com/ignite/outreach-crm/internal/domain"
	"github.com/ignite/outreach-crm/internal/pkg/httputil"
	"github.com/ignite/outreach-crm/internal/service/outreach"
)

func (s *Server) handleListRecipients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := outreach.RecipientFilter{
		Status:       q.Get("status"),
		ReviewStatus: q.Get("review_status"),
		Country:      q.Get("country"),
	}
	if v := q.Get("min_score"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MinScore = &n
		}
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	recipients, total, err := s.svc.ListRecipients(r.Context(), f)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if recipients == nil {
		recipients = []domain.Recipient{}
	}
	httputil.OK(w, map[string]interface{}{
		"recipients": recipients,
		"total":      total,
	})
}

func (s *Server) handleCreateRecipient(w http.ResponseWriter, r *http.Request) {
	var in outreach.RecipientInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	rec, err := s.svc.CreateRecipient(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Created(w, rec)
}

func (s *Server) handleGetRecipient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httputil.BadRequest(w, "invalid id")
		return
	}
	rec, err := s.svc.GetRecipient(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, rec)
}

func (s *Server) handleReviewRecipient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httputil.BadRequest(w, "invalid id")
		return
	}

	var in struct {
		Status domain.ReviewStatus `json:"status"`
		Score  int                 `json:"score"`
	}
	if !httputil.Decode(w, r, &in) {
		return
	}
	if err := s.svc.ReviewRecipient(r.Context(), id, in.Status, in.Score); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}
