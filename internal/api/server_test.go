package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach-crm/internal/dispatch"
	"github.com/ignite/outreach-crm/internal/domain"
	"github.com/ignite/outreach-crm/internal/service/outreach"
)

// In-memory repositories backing the service under test.

type memConfigs struct {
	items  map[int64]*domain.AutoDMConfig
	nextID int64
}

func (m *memConfigs) Get(_ context.Context, id int64) (*domain.AutoDMConfig, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, outreach.ErrNotFound
	}
	cp := *c
	return &cp, nil
}
func (m *memConfigs) List(_ context.Context, _ outreach.ConfigFilter) ([]domain.AutoDMConfig, int, error) {
	out := make([]domain.AutoDMConfig, 0, len(m.items))
	for _, c := range m.items {
		out = append(out, *c)
	}
	return out, len(out), nil
}
func (m *memConfigs) Create(_ context.Context, c *domain.AutoDMConfig) (int64, error) {
	m.nextID++
	cp := *c
	cp.ID = m.nextID
	m.items[cp.ID] = &cp
	return cp.ID, nil
}
func (m *memConfigs) Update(_ context.Context, id int64, u outreach.ConfigUpdate) error {
	c, ok := m.items[id]
	if !ok {
		return outreach.ErrNotFound
	}
	if u.IsActive != nil {
		c.IsActive = *u.IsActive
	}
	return nil
}
func (m *memConfigs) Delete(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return outreach.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memRecipients struct {
	items  map[int64]*domain.Recipient
	nextID int64
}

func (m *memRecipients) Get(_ context.Context, id int64) (*domain.Recipient, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, outreach.ErrNotFound
	}
	cp := *r
	return &cp, nil
}
func (m *memRecipients) List(_ context.Context, _ outreach.RecipientFilter) ([]domain.Recipient, int, error) {
	out := make([]domain.Recipient, 0, len(m.items))
	for _, r := range m.items {
		out = append(out, *r)
	}
	return out, len(out), nil
}
func (m *memRecipients) Create(_ context.Context, r *domain.Recipient) (int64, error) {
	m.nextID++
	cp := *r
	cp.ID = m.nextID
	m.items[cp.ID] = &cp
	return cp.ID, nil
}
func (m *memRecipients) SetReview(_ context.Context, id int64, status domain.ReviewStatus, score int, at time.Time) error {
	r, ok := m.items[id]
	if !ok {
		return outreach.ErrNotFound
	}
	r.ReviewStatus = status
	r.ReviewScore = score
	r.ReviewedAt = &at
	return nil
}

type memSenders struct {
	items  map[int64]*domain.Sender
	nextID int64
}

func (m *memSenders) Get(_ context.Context, id int64) (*domain.Sender, error) {
	s, ok := m.items[id]
	if !ok {
		return nil, outreach.ErrNotFound
	}
	cp := *s
	return &cp, nil
}
func (m *memSenders) List(_ context.Context) ([]domain.Sender, error) {
	out := make([]domain.Sender, 0, len(m.items))
	for _, s := range m.items {
		out = append(out, *s)
	}
	return out, nil
}
func (m *memSenders) Create(_ context.Context, s *domain.Sender) (int64, error) {
	m.nextID++
	cp := *s
	cp.ID = m.nextID
	m.items[cp.ID] = &cp
	return cp.ID, nil
}
func (m *memSenders) Update(_ context.Context, id int64, _ outreach.SenderUpdate) error {
	if _, ok := m.items[id]; !ok {
		return outreach.ErrNotFound
	}
	return nil
}

type memTemplates struct {
	items  map[int64]*domain.MessageTemplate
	nextID int64
}

func (m *memTemplates) Get(_ context.Context, id int64) (*domain.MessageTemplate, error) {
	t, ok := m.items[id]
	if !ok {
		return nil, outreach.ErrNotFound
	}
	cp := *t
	return &cp, nil
}
func (m *memTemplates) List(_ context.Context) ([]domain.MessageTemplate, error) {
	out := make([]domain.MessageTemplate, 0, len(m.items))
	for _, t := range m.items {
		out = append(out, *t)
	}
	return out, nil
}
func (m *memTemplates) Create(_ context.Context, t *domain.MessageTemplate) (int64, error) {
	m.nextID++
	cp := *t
	cp.ID = m.nextID
	m.items[cp.ID] = &cp
	return cp.ID, nil
}
func (m *memTemplates) Update(_ context.Context, id int64, _ outreach.TemplateUpdate) error {
	if _, ok := m.items[id]; !ok {
		return outreach.ErrNotFound
	}
	return nil
}

type memBatches struct {
	items  map[int64]*domain.DispatchBatch
	nextID int64
}

func (m *memBatches) Get(_ context.Context, id int64) (*domain.DispatchBatch, error) {
	b, ok := m.items[id]
	if !ok {
		return nil, outreach.ErrNotFound
	}
	cp := *b
	return &cp, nil
}
func (m *memBatches) List(_ context.Context, _ outreach.BatchFilter) ([]domain.DispatchBatch, int, error) {
	out := make([]domain.DispatchBatch, 0, len(m.items))
	for _, b := range m.items {
		out = append(out, *b)
	}
	return out, len(out), nil
}
func (m *memBatches) Create(_ context.Context, b *domain.DispatchBatch, _ []int64) (int64, error) {
	m.nextID++
	cp := *b
	cp.ID = m.nextID
	m.items[cp.ID] = &cp
	return cp.ID, nil
}

type memOutcomes struct {
	successes int
}

func (m *memOutcomes) ListByBatch(_ context.Context, _ int64) ([]domain.OutcomeRecord, error) {
	return nil, nil
}
func (m *memOutcomes) CountSuccessesOn(_ context.Context, _ time.Time) (int, error) {
	return m.successes, nil
}

type stubRunner struct {
	stats dispatch.TickStats
	err   error
	last  dispatch.TickOptions
}

func (s *stubRunner) RunNow(_ context.Context, opts dispatch.TickOptions) (dispatch.TickStats, error) {
	s.last = opts
	return s.stats, s.err
}

type testAPI struct {
	server     *Server
	handler    http.Handler
	runner     *stubRunner
	outcomes   *memOutcomes
	recipients *memRecipients
	configs    *memConfigs
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	configs := &memConfigs{items: map[int64]*domain.AutoDMConfig{}}
	recipients := &memRecipients{items: map[int64]*domain.Recipient{}}
	senders := &memSenders{items: map[int64]*domain.Sender{}}
	templates := &memTemplates{items: map[int64]*domain.MessageTemplate{}}
	batches := &memBatches{items: map[int64]*domain.DispatchBatch{}}
	outcomes := &memOutcomes{}
	runner := &stubRunner{}

	svc := outreach.NewService(configs, recipients, senders, templates, batches, outcomes)
	server := NewServer(svc, runner, nil, nil, nil, 100)
	return &testAPI{
		server:     server,
		handler:    server.Router(),
		runner:     runner,
		outcomes:   outcomes,
		recipients: recipients,
		configs:    configs,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func TestCreateConfigEndpoint(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/api/configs", map[string]interface{}{
		"name":          "JP morning",
		"country":       "JP",
		"schedule_type": "daily",
		"schedule_time": 540,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var cfg domain.AutoDMConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.NotZero(t, cfg.ID)
	assert.Equal(t, 9, cfg.ScheduleHour())
}

func TestCreateConfigEndpointRejectsBadSchedule(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/api/configs", map[string]interface{}{
		"name":          "bad",
		"country":       "JP",
		"schedule_type": "daily",
		"schedule_time": 2000,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetConfigEndpointNotFound(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodGet, "/api/configs/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviewRecipientEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.recipients.items[1] = &domain.Recipient{
		ID: 1, Username: "creator_jane",
		Status: domain.RecipientUnconfirmed, ReviewStatus: domain.ReviewPending,
	}

	w := a.do(t, http.MethodPost, "/api/recipients/1/review", map[string]interface{}{
		"status": "approved",
		"score":  85,
	})
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, domain.ReviewApproved, a.recipients.items[1].ReviewStatus)

	// Pending is not a review decision.
	w = a.do(t, http.MethodPost, "/api/recipients/1/review", map[string]interface{}{
		"status": "pending",
		"score":  50,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuotaEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.outcomes.successes = 97

	w := a.do(t, http.MethodGet, "/api/quota", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 100, body["ceiling"])
	assert.Equal(t, 97, body["sent"])
	assert.Equal(t, 3, body["remaining"])
}

func TestDispatchRunEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.runner.stats = dispatch.TickStats{ConfigsSeen: 2, ConfigsDispatched: 1, Sent: 3}

	w := a.do(t, http.MethodPost, "/api/dispatch/run", map[string]interface{}{
		"config_id": 3,
		"force":     true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, a.runner.last.ConfigID)
	assert.Equal(t, int64(3), *a.runner.last.ConfigID)
	assert.True(t, a.runner.last.Force)

	var body map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body["sent"])
}

func TestDispatchRunEndpointConflictWhileTickHeld(t *testing.T) {
	a := newTestAPI(t)
	a.runner.err = errors.New("a dispatch tick is already running")

	w := a.do(t, http.MethodPost, "/api/dispatch/run", map[string]interface{}{})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHealthEndpointWithoutDependencies(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string                    `json:"status"`
		Checks map[string]componentCheck `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "not configured", body.Checks["database"].Message)
}
