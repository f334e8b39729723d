package outreach

import (
	"context"
	"time"

	"github.com/ignite/outreach-crm/internal/domain"
)

// ConfigRepository is the data access contract for auto-DM configurations.
// Implementations must be safe for concurrent use.
type ConfigRepository interface {
	// Get returns a single configuration. Returns ErrNotFound if absent.
	Get(ctx context.Context, id int64) (*domain.AutoDMConfig, error)

	// List returns configurations ordered by priority ASC, id ASC.
	List(ctx context.Context, f ConfigFilter) ([]domain.AutoDMConfig, int, error)

	// Create inserts a new configuration and returns its ID.
	Create(ctx context.Context, c *domain.AutoDMConfig) (int64, error)

	// Update applies non-nil fields only.
	Update(ctx context.Context, id int64, u ConfigUpdate) error

	// Delete removes a configuration.
	Delete(ctx context.Context, id int64) error
}

// ConfigFilter controls filtering and pagination for configuration lists.
type ConfigFilter struct {
	Active *bool
	Limit  int
	Offset int
}

// ConfigUpdate holds mutable configuration fields. Nil fields are not applied.
type ConfigUpdate struct {
	Name           *string
	Country        *string
	IsActive       *bool
	SenderID       *int64
	TemplateID     *int64
	ScheduleType   *domain.ScheduleType
	ScheduleTime   *int
	ScheduleDay    *int
	MinReviewScore *int
	Priority       *int
}

// RecipientRepository is the data access contract for recipients.
type RecipientRepository interface {
	Get(ctx context.Context, id int64) (*domain.Recipient, error)
	List(ctx context.Context, f RecipientFilter) ([]domain.Recipient, int, error)
	// Create inserts a recipient. Returns ErrDuplicateUsername on a
	// username collision.
	Create(ctx context.Context, r *domain.Recipient) (int64, error)
	// SetReview records a review decision (status, score, reviewed_at).
	SetReview(ctx context.Context, id int64, status domain.ReviewStatus, score int, reviewedAt time.Time) error
}

// RecipientFilter controls filtering and pagination for recipient lists.
type RecipientFilter struct {
	Status       string
	ReviewStatus string
	Country      string
	MinScore     *int
	Limit        int
	Offset       int
}

// SenderRepository is the data access contract for sending identities.
type SenderRepository interface {
	Get(ctx context.Context, id int64) (*domain.Sender, error)
	List(ctx context.Context) ([]domain.Sender, error)
	Create(ctx context.Context, s *domain.Sender) (int64, error)
	Update(ctx context.Context, id int64, u SenderUpdate) error
}

// SenderUpdate holds mutable sender fields. Nil fields are not applied.
type SenderUpdate struct {
	Name            *string
	Username        *string
	Platform        *string
	SessionFilePath *string
	IsActive        *bool
}

// TemplateRepository is the data access contract for message templates.
type TemplateRepository interface {
	Get(ctx context.Context, id int64) (*domain.MessageTemplate, error)
	List(ctx context.Context) ([]domain.MessageTemplate, error)
	// Create inserts a template. Returns ErrDuplicateCode when
	// template_code is taken.
	Create(ctx context.Context, t *domain.MessageTemplate) (int64, error)
	Update(ctx context.Context, id int64, u TemplateUpdate) error
}

// TemplateUpdate holds mutable template fields. Nil fields are not applied.
type TemplateUpdate struct {
	Name       *string
	HeaderJSON *string
	BodyJSON   *string
	FooterJSON *string
}

// BatchRepository is the data access contract for dispatch batches.
type BatchRepository interface {
	Get(ctx context.Context, id int64) (*domain.DispatchBatch, error)
	List(ctx context.Context, f BatchFilter) ([]domain.DispatchBatch, int, error)
	// Create inserts a manual batch and attaches its targets.
	Create(ctx context.Context, b *domain.DispatchBatch, targetIDs []int64) (int64, error)
}

// BatchFilter controls filtering and pagination for batch lists.
type BatchFilter struct {
	ConfigID *int64
	IsAuto   *bool
	Limit    int
	Offset   int
}

// OutcomeRepository reads the append-only outcome log.
type OutcomeRepository interface {
	ListByBatch(ctx context.Context, batchID int64) ([]domain.OutcomeRecord, error)
	// CountSuccessesOn counts success outcomes created on the given
	// calendar day (local time).
	CountSuccessesOn(ctx context.Context, day time.Time) (int, error)
}
