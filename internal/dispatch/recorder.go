package dispatch

import (
	"context"

	"github.com/ignite/outreach-crm/internal/domain"
	"github.com/ignite/outreach-crm/internal/pkg/logger"
)

// Recorder appends per-recipient outcome rows after a batch send. Each row
// is written independently so one bad row cannot suppress the rest of the
// batch's history.
type Recorder struct {
	store Store
}

// NewRecorder creates a recorder over the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record writes one outcome row per target and returns how many rows were
// persisted. Insert failures are logged and skipped.
func (r *Recorder) Record(ctx context.Context, batch domain.DispatchBatch, targets []domain.Recipient, result domain.OutcomeResult, messageText, detail string) int {
	recorded := 0
	for _, t := range targets {
		rec := domain.OutcomeRecord{
			BatchID:     batch.ID,
			RecipientID: t.ID,
			SenderID:    batch.SenderID,
			MessageText: messageText,
			Result:      result,
			Detail:      detail,
		}
		if err := r.store.RecordOutcome(ctx, rec); err != nil {
			logger.Error("record outcome failed",
				"batch_id", batch.ID,
				"recipient_id", t.ID,
				"result", string(result),
				"error", err.Error())
			continue
		}
		recorded++
	}
	return recorded
}
