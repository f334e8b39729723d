package api

import (
	"net/http"

	"github.com/ignite/outreach-crm/internal/domain"
	"github.com/ignite/outreach-crm/internal/pkg/httputil"
	"github.com/ignite/outreach-crm/internal/service/outreach"
)

func (s *Server) handleListSenders(w http.ResponseWriter, r *http.Request) {
	senders, err := s.svc.ListSenders(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if senders == nil {
		senders = []domain.Sender{}
	}
	httputil.OK(w, map[string]interface{}{"senders": senders})
}

func (s *Server) handleCreateSender(w http.ResponseWriter, r *http.Request) {
	var in domain.Sender
	if !httputil.Decode(w, r, &in) {
		return
	}
	snd, err := s.svc.CreateSender(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Created(w, snd)
}

func (s *Server) handleGetSender(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httputil.BadRequest(w, "invalid id")
		return
	}
	snd, err := s.svc.GetSender(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, snd)
}

func (s *Server) handleUpdateSender(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httputil.BadRequest(w, "invalid id")
		return
	}

	var u struct {
		Name            *string `json:"name"`
		Username        *string `json:"username"`
		Platform        *string `json:"platform"`
		SessionFilePath *string `json:"session_file_path"`
		IsActive        *bool   `json:"is_active"`
	}
	if !httputil.Decode(w, r, &u) {
		return
	}
	err := s.svc.UpdateSender(r.Context(), id, outreach.SenderUpdate{
		Name:            u.Name,
		Username:        u.Username,
		Platform:        u.Platform,
		SessionFilePath: u.SessionFilePath,
		IsActive:        u.IsActive,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}
