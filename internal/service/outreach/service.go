package outreach

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/outreach-crm/internal/domain"
	"github.com/ignite/outreach-crm/internal/message"
)

// Service implements the administrative business logic. All public methods
// are safe for concurrent use if the underlying repositories are.
type Service struct {
	configs    ConfigRepository
	recipients RecipientRepository
	senders    SenderRepository
	templates  TemplateRepository
	batches    BatchRepository
	outcomes   OutcomeRepository
	renderer   *message.Renderer
}

// NewService creates the outreach service backed by the given repositories.
func NewService(
	configs ConfigRepository,
	recipients RecipientRepository,
	senders SenderRepository,
	templates TemplateRepository,
	batches BatchRepository,
	outcomes OutcomeRepository,
) *Service {
	return &Service{
		configs:    configs,
		recipients: recipients,
		senders:    senders,
		templates:  templates,
		batches:    batches,
		outcomes:   outcomes,
		renderer:   message.NewRenderer(),
	}
}

// --- Configurations ---

// ConfigInput holds the fields for creating an auto-DM configuration.
type ConfigInput struct {
	Name           string              `json:"name"`
	Country        string              `json:"country"`
	IsActive       bool                `json:"is_active"`
	SenderID       *int64              `json:"sender_id"`
	TemplateID     *int64              `json:"template_id"`
	ScheduleType   domain.ScheduleType `json:"schedule_type"`
	ScheduleTime   int                 `json:"schedule_time"`
	ScheduleDay    int                 `json:"schedule_day"`
	MinReviewScore int                 `json:"min_review_score"`
	Priority       int                 `json:"priority"`
}

func validateSchedule(st domain.ScheduleType, minuteOfDay, day int) error {
	if minuteOfDay < 0 || minuteOfDay > 1439 {
		return fmt.Errorf("schedule_time must be a minute of day (0-1439), got %d", minuteOfDay)
	}
	switch st {
	case domain.ScheduleDaily:
		return nil
	case domain.ScheduleWeekly:
		if day < 0 || day > 6 {
			return fmt.Errorf("schedule_day must be a weekday 0-6 for weekly schedules, got %d", day)
		}
	case domain.ScheduleMonthly:
		if day < 1 || day > 31 {
			return fmt.Errorf("schedule_day must be a day of month 1-31 for monthly schedules, got %d", day)
		}
	default:
		return fmt.Errorf("unknown schedule_type %q", st)
	}
	return nil
}

// CreateConfig validates and persists a new auto-DM configuration.
func (s *Service) CreateConfig(ctx context.Context, in ConfigInput) (*domain.AutoDMConfig, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if in.Country == "" {
		return nil, fmt.Errorf("country is required")
	}
	if in.MinReviewScore < 0 || in.MinReviewScore > 100 {
		return nil, fmt.Errorf("min_review_score must be 0-100, got %d", in.MinReviewScore)
	}
	if err := validateSchedule(in.ScheduleType, in.ScheduleTime, in.ScheduleDay); err != nil {
		return nil, err
	}

	c := &domain.AutoDMConfig{
		Name:           in.Name,
		Country:        in.Country,
		IsActive:       in.IsActive,
		SenderID:       in.SenderID,
		TemplateID:     in.TemplateID,
		ScheduleType:   in.ScheduleType,
		ScheduleTime:   in.ScheduleTime,
		ScheduleDay:    in.ScheduleDay,
		MinReviewScore: in.MinReviewScore,
		Priority:       in.Priority,
	}
	id, err := s.configs.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return c, nil
}

// GetConfig returns a single configuration.
func (s *Service) GetConfig(ctx context.Context, id int64) (*domain.AutoDMConfig, error) {
	return s.configs.Get(ctx, id)
}

// ListConfigs returns configurations matching the filter.
func (s *Service) ListConfigs(ctx context.Context, f ConfigFilter) ([]domain.AutoDMConfig, int, error) {
	return s.configs.List(ctx, f)
}

// UpdateConfig applies a partial update after validating schedule changes
// against the stored configuration.
func (s *Service) UpdateConfig(ctx context.Context, id int64, u ConfigUpdate) error {
	cur, err := s.configs.Get(ctx, id)
	if err != nil {
		return err
	}

	st, minute, day := cur.ScheduleType, cur.ScheduleTime, cur.ScheduleDay
	if u.ScheduleType != nil {
		st = *u.ScheduleType
	}
	if u.ScheduleTime != nil {
		minute = *u.ScheduleTime
	}
	if u.ScheduleDay != nil {
		day = *u.ScheduleDay
	}
	if err := validateSchedule(st, minute, day); err != nil {
		return err
	}
	if u.MinReviewScore != nil && (*u.MinReviewScore < 0 || *u.MinReviewScore > 100) {
		return fmt.Errorf("min_review_score must be 0-100, got %d", *u.MinReviewScore)
	}

	return s.configs.Update(ctx, id, u)
}

// DeleteConfig removes a configuration.
func (s *Service) DeleteConfig(ctx context.Context, id int64) error {
	return s.configs.Delete(ctx, id)
}

// --- Recipients ---

// RecipientInput holds the fields for registering a recipient.
type RecipientInput struct {
	Username      string `json:"username"`
	Nickname      string `json:"nickname"`
	Country       string `json:"country"`
	FollowerCount int64  `json:"follower_count"`
	ProfileURL    string `json:"profile_url"`
}

// CreateRecipient registers a scraped account for review.
func (s *Service) CreateRecipient(ctx context.Context, in RecipientInput) (*domain.Recipient, error) {
	if in.Username == "" {
		return nil, fmt.Errorf("username is required")
	}
	r := &domain.Recipient{
		Username:      in.Username,
		Nickname:      in.Nickname,
		Country:       in.Country,
		Status:        domain.RecipientUnconfirmed,
		ReviewStatus:  domain.ReviewPending,
		FollowerCount: in.FollowerCount,
		ProfileURL:    in.ProfileURL,
	}
	id, err := s.recipients.Create(ctx, r)
	if err != nil {
		return nil, err
	}
	r.ID = id
	return r, nil
}

// GetRecipient returns a single recipient.
func (s *Service) GetRecipient(ctx context.Context, id int64) (*domain.Recipient, error) {
	return s.recipients.Get(ctx, id)
}

// ListRecipients returns recipients matching the filter.
func (s *Service) ListRecipients(ctx context.Context, f RecipientFilter) ([]domain.Recipient, int, error) {
	return s.recipients.List(ctx, f)
}

// ReviewRecipient records an approve/reject decision with a score.
func (s *Service) ReviewRecipient(ctx context.Context, id int64, status domain.ReviewStatus, score int) error {
	if status != domain.ReviewApproved && status != domain.ReviewRejected {
		return fmt.Errorf("review status must be approved or rejected, got %q", status)
	}
	if score < 0 || score > 100 {
		return fmt.Errorf("review_score must be 0-100, got %d", score)
	}
	return s.recipients.SetReview(ctx, id, status, score, time.Now())
}

// --- Senders and templates ---

// GetSender returns a single sending identity.
func (s *Service) GetSender(ctx context.Context, id int64) (*domain.Sender, error) {
	return s.senders.Get(ctx, id)
}

// ListSenders returns all sending identities.
func (s *Service) ListSenders(ctx context.Context) ([]domain.Sender, error) {
	return s.senders.List(ctx)
}

// CreateSender registers a sending identity.
func (s *Service) CreateSender(ctx context.Context, in domain.Sender) (*domain.Sender, error) {
	if in.Name == "" || in.Username == "" {
		return nil, fmt.Errorf("name and username are required")
	}
	if in.Platform == "" {
		in.Platform = "tiktok"
	}
	id, err := s.senders.Create(ctx, &in)
	if err != nil {
		return nil, err
	}
	in.ID = id
	return &in, nil
}

// UpdateSender applies a partial sender update.
func (s *Service) UpdateSender(ctx context.Context, id int64, u SenderUpdate) error {
	return s.senders.Update(ctx, id, u)
}

// GetTemplate returns a single message template.
func (s *Service) GetTemplate(ctx context.Context, id int64) (*domain.MessageTemplate, error) {
	return s.templates.Get(ctx, id)
}

// ListTemplates returns all message templates.
func (s *Service) ListTemplates(ctx context.Context) ([]domain.MessageTemplate, error) {
	return s.templates.List(ctx)
}

// CreateTemplate registers a message template.
func (s *Service) CreateTemplate(ctx context.Context, in domain.MessageTemplate) (*domain.MessageTemplate, error) {
	if in.Name == "" || in.TemplateCode == "" {
		return nil, fmt.Errorf("name and template_code are required")
	}
	id, err := s.templates.Create(ctx, &in)
	if err != nil {
		return nil, err
	}
	in.ID = id
	return &in, nil
}

// UpdateTemplate applies a partial template update.
func (s *Service) UpdateTemplate(ctx context.Context, id int64, u TemplateUpdate) error {
	return s.templates.Update(ctx, id, u)
}

// PreviewTemplate renders a template for one recipient.
func (s *Service) PreviewTemplate(ctx context.Context, templateID, recipientID int64) (string, error) {
	tpl, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return "", err
	}
	rec, err := s.recipients.Get(ctx, recipientID)
	if err != nil {
		return "", err
	}
	return s.renderer.RenderForRecipient(*tpl, *rec)
}

// --- Batches and outcomes ---

// BatchInput holds the fields for a manually authored batch. Targets are
// attached at creation; the pending-batch processor sends to them once
// start_at arrives.
type BatchInput struct {
	SenderID   int64      `json:"sender_id"`
	TemplateID int64      `json:"template_id"`
	Title      string     `json:"title"`
	StartAt    *time.Time `json:"start_at"`
	TargetIDs  []int64    `json:"target_ids"`
}

// CreateBatch creates a manual dispatch batch with its target set.
func (s *Service) CreateBatch(ctx context.Context, in BatchInput) (*domain.DispatchBatch, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if len(in.TargetIDs) == 0 {
		return nil, fmt.Errorf("at least one target is required")
	}
	if _, err := s.senders.Get(ctx, in.SenderID); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if _, err := s.templates.Get(ctx, in.TemplateID); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}

	startAt := in.StartAt
	if startAt == nil {
		now := time.Now()
		startAt = &now
	}
	b := &domain.DispatchBatch{
		SenderID:   in.SenderID,
		TemplateID: in.TemplateID,
		Title:      in.Title,
		IsAuto:     false,
		StartAt:    startAt,
	}
	id, err := s.batches.Create(ctx, b, in.TargetIDs)
	if err != nil {
		return nil, err
	}
	b.ID = id
	return b, nil
}

// GetBatch returns a single batch.
func (s *Service) GetBatch(ctx context.Context, id int64) (*domain.DispatchBatch, error) {
	return s.batches.Get(ctx, id)
}

// ListBatches returns batches matching the filter.
func (s *Service) ListBatches(ctx context.Context, f BatchFilter) ([]domain.DispatchBatch, int, error) {
	return s.batches.List(ctx, f)
}

// ListOutcomes returns the outcome rows for a batch.
func (s *Service) ListOutcomes(ctx context.Context, batchID int64) ([]domain.OutcomeRecord, error) {
	return s.outcomes.ListByBatch(ctx, batchID)
}

// QuotaToday reports today's success count against the given ceiling.
func (s *Service) QuotaToday(ctx context.Context, ceiling int) (sent, remaining int, err error) {
	sent, err = s.outcomes.CountSuccessesOn(ctx, time.Now())
	if err != nil {
		return 0, 0, err
	}
	remaining = ceiling - sent
	if remaining < 0 {
		remaining = 0
	}
	return sent, remaining, nil
}
