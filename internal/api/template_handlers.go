package api

import (
	"net/http"

	"github.com/ignite/outreach-crm/internal/domain"
	"github.com/ignite/outreach-crm/internal/pkg/httputil"
	"github.com/ignite/outreach-crm/internal/service/outreach"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.svc.ListTemplates(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if templates == nil {
		templates = []domain.MessageTemplate{}
	}
	httputil.OK(w, map[string]interface{}{"templates": templates})
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in domain.MessageTemplate
	if !httputil.Decode(w, r, &in) {
		return
	}
	tpl, err := s.svc.CreateTemplate(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Created(w, tpl)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httputil.BadRequest(w, "invalid id")
		return
	}
	tpl, err := s.svc.GetTemplate(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, tpl)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httputil.BadRequest(w, "invalid id")
		return
	}

	var u struct {
		Name       *string `json:"name"`
		HeaderJSON *string `json:"header_json"`
		BodyJSON   *string `json:"body_json"`
		FooterJSON *string `json:"footer_json"`
	}
	if !httputil.Decode(w, r, &u) {
		return
	}
	err := s.svc.UpdateTemplate(r.Context(), id, outreach.TemplateUpdate{
		Name:       u.Name,
		HeaderJSON: u.HeaderJSON,
		BodyJSON:   u.BodyJSON,
		FooterJSON: u.FooterJSON,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

// handlePreviewTemplate renders a template against a live recipient so an
// operator can see the exact DM text before activating a configuration.
func (s *Server) handlePreviewTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, ok := pathID(r, "id")
	if !ok {
		httputil.BadRequest(w, "invalid template id")
		return
	}
	recipientID, ok := pathID(r, "recipientID")
	if !ok {
		httputil.BadRequest(w, "invalid recipient id")
		return
	}

	text, err := s.svc.PreviewTemplate(r.Context(), templateID, recipientID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"text": text})
}
