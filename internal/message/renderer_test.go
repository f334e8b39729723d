package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach-crm/internal/domain"
)

func TestBuildText(t *testing.T) {
	tpl := domain.MessageTemplate{
		HeaderJSON: `["Hi {{ username | handle }}!","We loved your videos."]`,
		BodyJSON:   `["We run collabs with creators in {{ country }}.",""]`,
		FooterJSON: `["Talk soon."]`,
	}

	got := BuildText(tpl)
	want := "Hi {{ username | handle }}!\nWe loved your videos.\n\n" +
		"We run collabs with creators in {{ country }}.\n\n" +
		"Talk soon."
	assert.Equal(t, want, got)
}

func TestBuildTextSkipsNonStrings(t *testing.T) {
	tpl := domain.MessageTemplate{
		HeaderJSON: `["keep", ["nested","dropped"], 42, "also keep"]`,
	}
	assert.Equal(t, "keep\nalso keep", BuildText(tpl))
}

func TestBuildTextEmptySections(t *testing.T) {
	assert.Equal(t, "", BuildText(domain.MessageTemplate{}))
	assert.Equal(t, "just body", BuildText(domain.MessageTemplate{BodyJSON: `["just body"]`}))
}

func TestBuildTextNonJSONFallback(t *testing.T) {
	tpl := domain.MessageTemplate{BodyJSON: "plain text body"}
	assert.Equal(t, "plain text body", BuildText(tpl))
}

func TestRenderForRecipient(t *testing.T) {
	r := NewRenderer()
	tpl := domain.MessageTemplate{
		ID:       7,
		BodyJSON: `["Hi {{ username | handle }} from {{ country }}"]`,
	}
	rec := domain.Recipient{Username: "creator_jane", Country: "KR"}

	out, err := r.RenderForRecipient(tpl, rec)
	require.NoError(t, err)
	assert.Equal(t, "Hi @creator_jane from KR", out)
}

func TestRenderBadTemplateReturnsOriginal(t *testing.T) {
	r := NewRenderer()
	text := "broken {% if %}"
	out, err := r.Render("", text, nil)
	assert.Error(t, err)
	assert.Equal(t, text, out)
}
