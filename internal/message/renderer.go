// Package message assembles DM text from structured templates.
//
// A template stores header, body and footer as JSON arrays of lines. The
// automation backend renders the real DM from template_code; the text built
// here is what gets stored on outcome records and shown in previews.
package message

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/ignite/outreach-crm/internal/domain"
)

// Renderer renders Liquid placeholders ({{ username }}, {{ nickname }},
// {{ country }}) inside template text. Parsed templates are cached by key.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewRenderer creates a renderer with the handle filter registered.
func NewRenderer() *Renderer {
	engine := liquid.NewEngine()

	// {{ username | handle }} → "@username"
	engine.RegisterFilter("handle", func(value interface{}) string {
		s := fmt.Sprintf("%v", value)
		if s == "" || s == "<nil>" {
			return ""
		}
		return "@" + strings.TrimPrefix(s, "@")
	})

	return &Renderer{engine: engine}
}

// BuildText joins a template's header, body and footer sections into the
// plain DM text. Sections are separated by a blank line; non-string or
// empty entries inside the JSON arrays are dropped.
func BuildText(tpl domain.MessageTemplate) string {
	var sections []string
	for _, raw := range []string{tpl.HeaderJSON, tpl.BodyJSON, tpl.FooterJSON} {
		if part := joinLines(raw); part != "" {
			sections = append(sections, part)
		}
	}
	return strings.Join(sections, "\n\n")
}

func joinLines(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	var entries []interface{}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		// Not a JSON array: treat the raw value as a single line
		return strings.TrimSpace(raw)
	}
	var lines []string
	for _, e := range entries {
		s, ok := e.(string)
		if !ok || s == "" {
			continue
		}
		lines = append(lines, s)
	}
	return strings.Join(lines, "\n")
}

// Render processes template text with the given variables. Parsed templates
// are cached under cacheKey when it is non-empty. On parse or render errors
// the original text is returned alongside the error so callers can degrade
// to the unrendered version.
func (r *Renderer) Render(cacheKey, text string, vars map[string]interface{}) (string, error) {
	if cacheKey != "" {
		if cached, ok := r.cache.Load(cacheKey); ok {
			tpl := cached.(*liquid.Template)
			out, err := tpl.RenderString(vars)
			if err != nil {
				return text, err
			}
			return out, nil
		}
	}

	tpl, err := r.engine.ParseString(text)
	if err != nil {
		return text, fmt.Errorf("parse template: %w", err)
	}
	if cacheKey != "" {
		r.cache.Store(cacheKey, tpl)
	}

	out, err := tpl.RenderString(vars)
	if err != nil {
		return text, fmt.Errorf("render template: %w", err)
	}
	return out, nil
}

// RenderForRecipient builds the template text and fills in the recipient's
// variables. Used by the preview endpoint and for message_text on outcomes.
func (r *Renderer) RenderForRecipient(tpl domain.MessageTemplate, rec domain.Recipient) (string, error) {
	vars := map[string]interface{}{
		"username": rec.Username,
		"nickname": rec.Nickname,
		"country":  rec.Country,
	}
	cacheKey := fmt.Sprintf("template:%d:%s", tpl.ID, tpl.UpdatedAt.UTC().Format("20060102150405"))
	return r.Render(cacheKey, BuildText(tpl), vars)
}
