package dispatch

import (
	"context"
	"time"

	"github.com/ignite/outreach-crm/internal/domain"
)

// Store is the persistence contract the engine runs against.
// Implementations must be safe for concurrent use.
type Store interface {
	// ListActiveConfigs returns active configurations ordered by
	// priority ASC, id ASC. When configID is non-nil only that
	// configuration is returned (if active).
	ListActiveConfigs(ctx context.Context, configID *int64) ([]domain.AutoDMConfig, error)

	// GetSender returns a sending identity, or an error if absent.
	GetSender(ctx context.Context, id int64) (*domain.Sender, error)

	// GetTemplate returns a message template, or an error if absent.
	GetTemplate(ctx context.Context, id int64) (*domain.MessageTemplate, error)

	// SelectTargets returns dispatch-eligible recipients for the
	// configuration: review_status=approved, status=unconfirmed,
	// matching country, review_score >= min_review_score, non-empty
	// username. At most limit rows, in a stable order.
	SelectTargets(ctx context.Context, cfg domain.AutoDMConfig, limit int) ([]domain.Recipient, error)

	// CountSuccessesOn counts success outcomes created on the given
	// calendar day.
	CountSuccessesOn(ctx context.Context, day time.Time) (int, error)

	// CreateBatch inserts a dispatch batch and returns its ID.
	CreateBatch(ctx context.Context, b *domain.DispatchBatch) (int64, error)

	// CompleteBatch marks a batch complete with the given end time.
	CompleteBatch(ctx context.Context, id int64, endAt time.Time) error

	// MarkConfigSent updates a configuration's last_sent_at marker.
	MarkConfigSent(ctx context.Context, id int64, at time.Time) error

	// RecordOutcome appends one outcome row. For a success outcome the
	// recipient is advanced from unconfirmed to dm_sent in the same
	// transaction, so a re-run cannot select them again.
	RecordOutcome(ctx context.Context, rec domain.OutcomeRecord) error

	// ListPendingBatches returns manually authored batches whose send
	// window is open: is_auto=false, is_complete=false, start_at <= now,
	// and end_at null or in the future.
	ListPendingBatches(ctx context.Context, now time.Time) ([]domain.DispatchBatch, error)

	// ListRemainingBatchTargets returns a pending batch's attached
	// targets that do not yet have a success outcome for that batch.
	ListRemainingBatchTargets(ctx context.Context, batchID int64) ([]domain.Recipient, error)
}

// SendRequest is one batch send against the automation backend.
type SendRequest struct {
	Usernames       []string
	TemplateCode    string
	SessionFilePath *string
	BatchID         int64
	Platform        string
	Timeout         time.Duration
}

// SendResult carries the backend's advisory response detail. The backend
// gives no per-recipient acknowledgment at call time; acceptance applies
// to the whole batch.
type SendResult struct {
	Detail string
}

// Sender is the capability interface over the external send API. A nil
// error means the batch was accepted; any error means the whole batch was
// rejected. Implementations must respect req.Timeout and must not retry.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
