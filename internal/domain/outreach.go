package domain

import "time"

// ScheduleType enumerates recurrence rules for auto-DM configurations.
type ScheduleType string

const (
	ScheduleDaily   ScheduleType = "daily"
	ScheduleWeekly  ScheduleType = "weekly"
	ScheduleMonthly ScheduleType = "monthly"
)

// AutoDMConfig is a named, operator-authored dispatch rule. The dispatcher
// mutates only LastSentAt; everything else is edited by operators.
type AutoDMConfig struct {
	ID           int64        `json:"id" db:"id"`
	Name         string       `json:"name" db:"name"`
	Country      string       `json:"country" db:"country"`
	IsActive     bool         `json:"is_active" db:"is_active"`
	SenderID     *int64       `json:"sender_id" db:"sender_id"`
	TemplateID   *int64       `json:"template_id" db:"template_id"`
	ScheduleType ScheduleType `json:"schedule_type" db:"schedule_type"`
	// ScheduleTime is the minute of day (0..1439) the rule fires at.
	ScheduleTime int `json:"schedule_time" db:"schedule_time"`
	// ScheduleDay is a weekday 0-6 (0=Sunday) for weekly rules, or a
	// day of month 1-31 for monthly rules. Unused for daily rules.
	ScheduleDay    int `json:"schedule_day" db:"schedule_day"`
	MinReviewScore int `json:"min_review_score" db:"min_review_score"`
	// Priority orders configurations within a tick; lower fires first,
	// so earlier configurations win when quota is scarce.
	Priority   int        `json:"priority" db:"priority"`
	LastSentAt *time.Time `json:"last_sent_at" db:"last_sent_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// ScheduleHour returns the hour component of ScheduleTime.
func (c AutoDMConfig) ScheduleHour() int { return c.ScheduleTime / 60 }

// ScheduleMinute returns the minute component of ScheduleTime.
func (c AutoDMConfig) ScheduleMinute() int { return c.ScheduleTime % 60 }

// Sender is a sending identity on the automation backend. SessionFilePath
// is an opaque auth reference owned by the backend; this service never
// reads or writes the file itself.
type Sender struct {
	ID              int64     `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Username        string    `json:"username" db:"username"`
	Platform        string    `json:"platform" db:"platform"`
	SessionFilePath *string   `json:"session_file_path" db:"session_file_path"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// MessageTemplate is a structured DM template. Header, body and footer are
// JSON arrays of lines; TemplateCode is the machine identifier the
// automation backend renders from.
type MessageTemplate struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	TemplateCode string    `json:"template_code" db:"template_code"`
	HeaderJSON   string    `json:"header_json" db:"header_json"`
	BodyJSON     string    `json:"body_json" db:"body_json"`
	FooterJSON   string    `json:"footer_json" db:"footer_json"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// DispatchBatch groups one send event for one configuration (auto) or one
// manually authored outreach message (manual).
type DispatchBatch struct {
	ID         int64      `json:"id" db:"id"`
	ConfigID   *int64     `json:"config_id" db:"config_id"`
	SenderID   int64      `json:"sender_id" db:"sender_id"`
	TemplateID int64      `json:"template_id" db:"template_id"`
	Title      string     `json:"title" db:"title"`
	IsAuto     bool       `json:"is_auto" db:"is_auto"`
	IsComplete bool       `json:"is_complete" db:"is_complete"`
	StartAt    *time.Time `json:"start_at" db:"start_at"`
	EndAt      *time.Time `json:"end_at" db:"end_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// OutcomeResult is the per-recipient result of a dispatch attempt.
type OutcomeResult string

const (
	OutcomeSuccess OutcomeResult = "success"
	OutcomeError   OutcomeResult = "error"
)

// OutcomeRecord is one append-only row per (batch, recipient) dispatch
// attempt. It is the sole source of truth for who has been contacted and
// for the daily quota count. Never updated after creation.
type OutcomeRecord struct {
	ID          int64         `json:"id" db:"id"`
	BatchID     int64         `json:"batch_id" db:"batch_id"`
	RecipientID int64         `json:"recipient_id" db:"recipient_id"`
	SenderID    int64         `json:"sender_id" db:"sender_id"`
	MessageText string        `json:"message_text" db:"message_text"`
	Result      OutcomeResult `json:"result" db:"result"`
	Detail      string        `json:"detail" db:"detail"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}
