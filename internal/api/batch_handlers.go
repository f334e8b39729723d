package api

import (
	"net/http"
	"strconv"

	"github.com/ignite/outreach-crm/internal/domain"
	"github.com/ignite/outreach-crm/internal/pkg/httputil"
	"github.com/ignite/outreach-crm/internal/service/outreach"
)

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := outreach.BatchFilter{}
	if v := q.Get("config_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.ConfigID = &id
		}
	}
	if v := q.Get("is_auto"); v != "" {
		auto := v == "true"
		f.IsAuto = &auto
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	batches, total, err := s.svc.ListBatches(r.Context(), f)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if batches == nil {
		batches = []domain.DispatchBatch{}
	}
	httputil.OK(w, map[string]interface{}{
		"batches": batches,
		"total":   total,
	})
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var in outreach.BatchInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	b, err := s.svc.CreateBatch(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Created(w, b)
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httputil.BadRequest(w, "invalid id")
		return
	}
	b, err := s.svc.GetBatch(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, b)
}

func (s *Server) handleListOutcomes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httputil.BadRequest(w, "invalid id")
		return
	}
	outcomes, err := s.svc.ListOutcomes(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if outcomes == nil {
		outcomes = []domain.OutcomeRecord{}
	}
	httputil.OK(w, map[string]interface{}{"outcomes": outcomes})
}
