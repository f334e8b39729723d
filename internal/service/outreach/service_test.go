package outreach

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach-crm/internal/domain"
)

// In-memory repositories for service tests.

type memConfigRepo struct {
	items  map[int64]*domain.AutoDMConfig
	nextID int64
}

func newMemConfigRepo() *memConfigRepo {
	return &memConfigRepo{items: map[int64]*domain.AutoDMConfig{}}
}

func (m *memConfigRepo) Get(_ context.Context, id int64) (*domain.AutoDMConfig, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memConfigRepo) List(_ context.Context, _ ConfigFilter) ([]domain.AutoDMConfig, int, error) {
	out := make([]domain.AutoDMConfig, 0, len(m.items))
	for _, c := range m.items {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *memConfigRepo) Create(_ context.Context, c *domain.AutoDMConfig) (int64, error) {
	m.nextID++
	cp := *c
	cp.ID = m.nextID
	m.items[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memConfigRepo) Update(_ context.Context, id int64, u ConfigUpdate) error {
	c, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	if u.ScheduleType != nil {
		c.ScheduleType = *u.ScheduleType
	}
	if u.ScheduleTime != nil {
		c.ScheduleTime = *u.ScheduleTime
	}
	if u.ScheduleDay != nil {
		c.ScheduleDay = *u.ScheduleDay
	}
	if u.IsActive != nil {
		c.IsActive = *u.IsActive
	}
	if u.Priority != nil {
		c.Priority = *u.Priority
	}
	return nil
}

func (m *memConfigRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memRecipientRepo struct {
	items  map[int64]*domain.Recipient
	nextID int64
}

func newMemRecipientRepo() *memRecipientRepo {
	return &memRecipientRepo{items: map[int64]*domain.Recipient{}}
}

func (m *memRecipientRepo) Get(_ context.Context, id int64) (*domain.Recipient, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRecipientRepo) List(_ context.Context, _ RecipientFilter) ([]domain.Recipient, int, error) {
	out := make([]domain.Recipient, 0, len(m.items))
	for _, r := range m.items {
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (m *memRecipientRepo) Create(_ context.Context, r *domain.Recipient) (int64, error) {
	for _, existing := range m.items {
		if existing.Username == r.Username {
			return 0, ErrDuplicateUsername
		}
	}
	m.nextID++
	cp := *r
	cp.ID = m.nextID
	m.items[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRecipientRepo) SetReview(_ context.Context, id int64, status domain.ReviewStatus, score int, reviewedAt time.Time) error {
	r, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	r.ReviewStatus = status
	r.ReviewScore = score
	r.ReviewedAt = &reviewedAt
	return nil
}

type memSenderRepo struct {
	items  map[int64]*domain.Sender
	nextID int64
}

func newMemSenderRepo() *memSenderRepo { return &memSenderRepo{items: map[int64]*domain.Sender{}} }

func (m *memSenderRepo) Get(_ context.Context, id int64) (*domain.Sender, error) {
	s, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSenderRepo) List(_ context.Context) ([]domain.Sender, error) {
	out := make([]domain.Sender, 0, len(m.items))
	for _, s := range m.items {
		out = append(out, *s)
	}
	return out, nil
}

func (m *memSenderRepo) Create(_ context.Context, s *domain.Sender) (int64, error) {
	m.nextID++
	cp := *s
	cp.ID = m.nextID
	m.items[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memSenderRepo) Update(_ context.Context, id int64, u SenderUpdate) error {
	s, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	if u.IsActive != nil {
		s.IsActive = *u.IsActive
	}
	if u.SessionFilePath != nil {
		s.SessionFilePath = u.SessionFilePath
	}
	return nil
}

type memTemplateRepo struct {
	items  map[int64]*domain.MessageTemplate
	nextID int64
}

func newMemTemplateRepo() *memTemplateRepo {
	return &memTemplateRepo{items: map[int64]*domain.MessageTemplate{}}
}

func (m *memTemplateRepo) Get(_ context.Context, id int64) (*domain.MessageTemplate, error) {
	t, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTemplateRepo) List(_ context.Context) ([]domain.MessageTemplate, error) {
	out := make([]domain.MessageTemplate, 0, len(m.items))
	for _, t := range m.items {
		out = append(out, *t)
	}
	return out, nil
}

func (m *memTemplateRepo) Create(_ context.Context, t *domain.MessageTemplate) (int64, error) {
	for _, existing := range m.items {
		if existing.TemplateCode == t.TemplateCode {
			return 0, ErrDuplicateCode
		}
	}
	m.nextID++
	cp := *t
	cp.ID = m.nextID
	m.items[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memTemplateRepo) Update(_ context.Context, id int64, u TemplateUpdate) error {
	t, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	if u.BodyJSON != nil {
		t.BodyJSON = *u.BodyJSON
	}
	return nil
}

type memBatchRepo struct {
	items   map[int64]*domain.DispatchBatch
	targets map[int64][]int64
	nextID  int64
}

func newMemBatchRepo() *memBatchRepo {
	return &memBatchRepo{items: map[int64]*domain.DispatchBatch{}, targets: map[int64][]int64{}}
}

func (m *memBatchRepo) Get(_ context.Context, id int64) (*domain.DispatchBatch, error) {
	b, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBatchRepo) List(_ context.Context, _ BatchFilter) ([]domain.DispatchBatch, int, error) {
	out := make([]domain.DispatchBatch, 0, len(m.items))
	for _, b := range m.items {
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (m *memBatchRepo) Create(_ context.Context, b *domain.DispatchBatch, targetIDs []int64) (int64, error) {
	m.nextID++
	cp := *b
	cp.ID = m.nextID
	m.items[cp.ID] = &cp
	m.targets[cp.ID] = targetIDs
	return cp.ID, nil
}

type memOutcomeRepo struct {
	outcomes []domain.OutcomeRecord
}

func (m *memOutcomeRepo) ListByBatch(_ context.Context, batchID int64) ([]domain.OutcomeRecord, error) {
	var out []domain.OutcomeRecord
	for _, o := range m.outcomes {
		if o.BatchID == batchID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOutcomeRepo) CountSuccessesOn(_ context.Context, _ time.Time) (int, error) {
	n := 0
	for _, o := range m.outcomes {
		if o.Result == domain.OutcomeSuccess {
			n++
		}
	}
	return n, nil
}

type testEnv struct {
	svc        *Service
	configs    *memConfigRepo
	recipients *memRecipientRepo
	senders    *memSenderRepo
	templates  *memTemplateRepo
	batches    *memBatchRepo
	outcomes   *memOutcomeRepo
}

func newTestEnv() *testEnv {
	env := &testEnv{
		configs:    newMemConfigRepo(),
		recipients: newMemRecipientRepo(),
		senders:    newMemSenderRepo(),
		templates:  newMemTemplateRepo(),
		batches:    newMemBatchRepo(),
		outcomes:   &memOutcomeRepo{},
	}
	env.svc = NewService(env.configs, env.recipients, env.senders, env.templates, env.batches, env.outcomes)
	return env
}

func TestCreateConfigValidSchedules(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	cfg, err := env.svc.CreateConfig(ctx, ConfigInput{
		Name: "JP morning", Country: "JP",
		ScheduleType: domain.ScheduleDaily, ScheduleTime: 9 * 60,
	})
	require.NoError(t, err)
	assert.NotZero(t, cfg.ID)

	_, err = env.svc.CreateConfig(ctx, ConfigInput{
		Name: "KR weekly", Country: "KR",
		ScheduleType: domain.ScheduleWeekly, ScheduleTime: 18 * 60, ScheduleDay: 0,
	})
	assert.NoError(t, err)

	_, err = env.svc.CreateConfig(ctx, ConfigInput{
		Name: "US monthly", Country: "US",
		ScheduleType: domain.ScheduleMonthly, ScheduleTime: 0, ScheduleDay: 31,
	})
	assert.NoError(t, err)
}

func TestCreateConfigRejectsBadSchedules(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	cases := []struct {
		name string
		in   ConfigInput
	}{
		{"minute too large", ConfigInput{Name: "x", Country: "JP",
			ScheduleType: domain.ScheduleDaily, ScheduleTime: 1440}},
		{"negative minute", ConfigInput{Name: "x", Country: "JP",
			ScheduleType: domain.ScheduleDaily, ScheduleTime: -1}},
		{"weekly day out of range", ConfigInput{Name: "x", Country: "JP",
			ScheduleType: domain.ScheduleWeekly, ScheduleTime: 600, ScheduleDay: 7}},
		{"monthly day zero", ConfigInput{Name: "x", Country: "JP",
			ScheduleType: domain.ScheduleMonthly, ScheduleTime: 600, ScheduleDay: 0}},
		{"unknown type", ConfigInput{Name: "x", Country: "JP",
			ScheduleType: "hourly", ScheduleTime: 600}},
		{"missing name", ConfigInput{Country: "JP",
			ScheduleType: domain.ScheduleDaily, ScheduleTime: 600}},
		{"missing country", ConfigInput{Name: "x",
			ScheduleType: domain.ScheduleDaily, ScheduleTime: 600}},
		{"score out of range", ConfigInput{Name: "x", Country: "JP",
			ScheduleType: domain.ScheduleDaily, ScheduleTime: 600, MinReviewScore: 101}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.CreateConfig(ctx, tc.in)
			assert.Error(t, err)
		})
	}
}

func TestUpdateConfigRevalidatesMergedSchedule(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	cfg, err := env.svc.CreateConfig(ctx, ConfigInput{
		Name: "JP", Country: "JP",
		ScheduleType: domain.ScheduleDaily, ScheduleTime: 540,
	})
	require.NoError(t, err)

	// Switching to weekly without a valid day must fail against the
	// stored ScheduleDay of 0... which is valid for weekly (Sunday).
	weekly := domain.ScheduleWeekly
	require.NoError(t, env.svc.UpdateConfig(ctx, cfg.ID, ConfigUpdate{ScheduleType: &weekly}))

	// Switching to monthly keeps day 0, which is invalid for monthly.
	monthly := domain.ScheduleMonthly
	assert.Error(t, env.svc.UpdateConfig(ctx, cfg.ID, ConfigUpdate{ScheduleType: &monthly}))

	// Supplying a valid day with the switch passes.
	day := 15
	assert.NoError(t, env.svc.UpdateConfig(ctx, cfg.ID, ConfigUpdate{
		ScheduleType: &monthly, ScheduleDay: &day,
	}))
}

func TestReviewRecipient(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	rec, err := env.svc.CreateRecipient(ctx, RecipientInput{Username: "creator_jane", Country: "JP"})
	require.NoError(t, err)
	assert.Equal(t, domain.RecipientUnconfirmed, rec.Status)
	assert.Equal(t, domain.ReviewPending, rec.ReviewStatus)

	require.NoError(t, env.svc.ReviewRecipient(ctx, rec.ID, domain.ReviewApproved, 85))

	got, err := env.svc.GetRecipient(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, got.ReviewStatus)
	assert.Equal(t, 85, got.ReviewScore)
	assert.NotNil(t, got.ReviewedAt)

	// Pending is not a decision; scores are bounded.
	assert.Error(t, env.svc.ReviewRecipient(ctx, rec.ID, domain.ReviewPending, 50))
	assert.Error(t, env.svc.ReviewRecipient(ctx, rec.ID, domain.ReviewApproved, 101))
	assert.Error(t, env.svc.ReviewRecipient(ctx, rec.ID, domain.ReviewApproved, -1))
}

func TestCreateRecipientDuplicateUsername(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.CreateRecipient(ctx, RecipientInput{Username: "creator_jane"})
	require.NoError(t, err)
	_, err = env.svc.CreateRecipient(ctx, RecipientInput{Username: "creator_jane"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestCreateBatchValidatesReferences(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	snd, err := env.svc.CreateSender(ctx, domain.Sender{Name: "Main", Username: "brand_main"})
	require.NoError(t, err)
	tpl, err := env.svc.CreateTemplate(ctx, domain.MessageTemplate{Name: "Intro", TemplateCode: "intro_v1"})
	require.NoError(t, err)

	// Missing title, missing targets, bad sender, bad template.
	_, err = env.svc.CreateBatch(ctx, BatchInput{SenderID: snd.ID, TemplateID: tpl.ID, TargetIDs: []int64{1}})
	assert.Error(t, err)
	_, err = env.svc.CreateBatch(ctx, BatchInput{Title: "push", SenderID: snd.ID, TemplateID: tpl.ID})
	assert.Error(t, err)
	_, err = env.svc.CreateBatch(ctx, BatchInput{Title: "push", SenderID: 99, TemplateID: tpl.ID, TargetIDs: []int64{1}})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.svc.CreateBatch(ctx, BatchInput{Title: "push", SenderID: snd.ID, TemplateID: 99, TargetIDs: []int64{1}})
	assert.ErrorIs(t, err, ErrNotFound)

	// Valid batch defaults start_at to now and stays manual.
	b, err := env.svc.CreateBatch(ctx, BatchInput{
		Title: "push", SenderID: snd.ID, TemplateID: tpl.ID, TargetIDs: []int64{1, 2},
	})
	require.NoError(t, err)
	assert.False(t, b.IsAuto)
	require.NotNil(t, b.StartAt)
	assert.WithinDuration(t, time.Now(), *b.StartAt, 5*time.Second)
	assert.Equal(t, []int64{1, 2}, env.batches.targets[b.ID])
}

func TestCreateTemplateDuplicateCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.CreateTemplate(ctx, domain.MessageTemplate{Name: "a", TemplateCode: "intro_v1"})
	require.NoError(t, err)
	_, err = env.svc.CreateTemplate(ctx, domain.MessageTemplate{Name: "b", TemplateCode: "intro_v1"})
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestQuotaTodayFloorsAtZero(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	for i := 0; i < 105; i++ {
		env.outcomes.outcomes = append(env.outcomes.outcomes, domain.OutcomeRecord{
			Result: domain.OutcomeSuccess,
		})
	}

	sent, remaining, err := env.svc.QuotaToday(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 105, sent)
	assert.Equal(t, 0, remaining)
}

func TestPreviewTemplate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	tpl, err := env.svc.CreateTemplate(ctx, domain.MessageTemplate{
		Name: "Intro", TemplateCode: "intro_v1",
		BodyJSON: `["Hi {{ username | handle }}!","Love your {{ country }} content."]`,
	})
	require.NoError(t, err)
	rec, err := env.svc.CreateRecipient(ctx, RecipientInput{Username: "creator_jane", Country: "JP"})
	require.NoError(t, err)

	text, err := env.svc.PreviewTemplate(ctx, tpl.ID, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hi @creator_jane!\nLove your JP content.", text)
}
