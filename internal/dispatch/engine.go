package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/outreach-crm/internal/domain"
	"github.com/ignite/outreach-crm/internal/message"
	"github.com/ignite/outreach-crm/internal/pkg/logger"
)

// Options configures an Engine.
type Options struct {
	// DailyLimit is the global per-day success ceiling across all
	// configurations.
	DailyLimit int
	// SendTimeout bounds one auto-dispatch batch send.
	SendTimeout time.Duration
	// PendingSendTimeout bounds one manual-batch send.
	PendingSendTimeout time.Duration
	// DefaultPlatform is used when a sender has no platform set.
	DefaultPlatform string
}

// Engine drives scheduled auto-dispatch and manual pending batches. One
// engine instance is shared by the worker loop and the manual run endpoint;
// the caller serializes ticks (see internal/worker).
type Engine struct {
	store    Store
	sender   Sender
	ledger   *Ledger
	selector *Selector
	recorder *Recorder
	opts     Options
}

// NewEngine wires an engine over the given store and send capability.
func NewEngine(store Store, sender Sender, opts Options) *Engine {
	if opts.DailyLimit <= 0 {
		opts.DailyLimit = 100
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 60 * time.Second
	}
	if opts.PendingSendTimeout <= 0 {
		opts.PendingSendTimeout = 15 * time.Second
	}
	if opts.DefaultPlatform == "" {
		opts.DefaultPlatform = "tiktok"
	}
	return &Engine{
		store:    store,
		sender:   sender,
		ledger:   NewLedger(store, opts.DailyLimit),
		selector: NewSelector(store),
		recorder: NewRecorder(store),
		opts:     opts,
	}
}

// Ledger exposes the engine's quota ledger for read-only reporting.
func (e *Engine) Ledger() *Ledger { return e.ledger }

// TickOptions narrows or forces a tick. ConfigID restricts the tick to one
// configuration; Force bypasses the schedule match (but never the quota).
type TickOptions struct {
	ConfigID *int64
	Force    bool
}

// TickStats summarizes one tick for logging and the worker's counters.
type TickStats struct {
	ConfigsSeen       int
	ConfigsDispatched int
	ConfigsSkipped    int
	Sent              int
	Failed            int
}

// RunTick walks active configurations in priority order and dispatches
// every one that is due. It never returns an error: per-configuration
// failures are recorded as error outcomes and logged, and a quota-read
// failure ends the tick early rather than risk sending past the ceiling.
func (e *Engine) RunTick(ctx context.Context, now time.Time, opts TickOptions) TickStats {
	var stats TickStats

	configs, err := e.store.ListActiveConfigs(ctx, opts.ConfigID)
	if err != nil {
		logger.Error("list active configs failed", "error", err.Error())
		return stats
	}
	stats.ConfigsSeen = len(configs)

	for _, cfg := range configs {
		if ctx.Err() != nil {
			logger.Warn("tick canceled", "config_id", cfg.ID)
			return stats
		}
		if !opts.Force && !ShouldRun(cfg, now) {
			stats.ConfigsSkipped++
			continue
		}

		remaining, err := e.ledger.Remaining(ctx, now)
		if err != nil {
			logger.Error("read daily allowance failed", "error", err.Error())
			return stats
		}
		if remaining <= 0 {
			logger.Info("daily allowance exhausted, ending tick",
				"config_id", cfg.ID, "ceiling", e.ledger.Ceiling())
			return stats
		}

		sent, failed, dispatched := e.dispatchConfig(ctx, cfg, now, remaining)
		stats.Sent += sent
		stats.Failed += failed
		if dispatched {
			stats.ConfigsDispatched++
		} else {
			stats.ConfigsSkipped++
		}
	}
	return stats
}

// dispatchConfig runs one configuration's selection, send and recording.
// dispatched is false when the configuration produced no batch at all.
func (e *Engine) dispatchConfig(ctx context.Context, cfg domain.AutoDMConfig, now time.Time, remaining int) (sent, failed int, dispatched bool) {
	if cfg.SenderID == nil || cfg.TemplateID == nil {
		logger.Warn("config missing sender or template, skipping", "config_id", cfg.ID)
		return 0, 0, false
	}
	snd, err := e.store.GetSender(ctx, *cfg.SenderID)
	if err != nil {
		logger.Error("load sender failed", "config_id", cfg.ID, "sender_id", *cfg.SenderID, "error", err.Error())
		return 0, 0, false
	}
	if !snd.IsActive {
		logger.Warn("sender inactive, skipping config", "config_id", cfg.ID, "sender_id", snd.ID)
		return 0, 0, false
	}
	tpl, err := e.store.GetTemplate(ctx, *cfg.TemplateID)
	if err != nil {
		logger.Error("load template failed", "config_id", cfg.ID, "template_id", *cfg.TemplateID, "error", err.Error())
		return 0, 0, false
	}

	targets, err := e.selector.Select(ctx, cfg, remaining)
	if err != nil {
		logger.Error("target selection failed", "config_id", cfg.ID, "error", err.Error())
		return 0, 0, false
	}
	if len(targets) == 0 {
		logger.Debug("no eligible targets", "config_id", cfg.ID, "country", cfg.Country)
		return 0, 0, false
	}

	batch := domain.DispatchBatch{
		ConfigID:   &cfg.ID,
		SenderID:   snd.ID,
		TemplateID: tpl.ID,
		Title:      fmt.Sprintf("%s %s", cfg.Name, now.Format("2006-01-02 15:04")),
		IsAuto:     true,
		StartAt:    &now,
	}
	batchID, err := e.store.CreateBatch(ctx, &batch)
	if err != nil {
		logger.Error("create batch failed", "config_id", cfg.ID, "error", err.Error())
		return 0, 0, false
	}
	batch.ID = batchID

	text := message.BuildText(*tpl)
	result, sendErr := e.send(ctx, *snd, *tpl, targets, batchID, e.opts.SendTimeout)
	if sendErr != nil {
		failed = e.recorder.Record(ctx, batch, targets, domain.OutcomeError, text, sendErr.Error())
		logger.Error("batch send failed",
			"config_id", cfg.ID,
			"batch_id", batchID,
			"targets", len(targets),
			"error", sendErr.Error())
	} else {
		sent = e.recorder.Record(ctx, batch, targets, domain.OutcomeSuccess, text, result.Detail)
		logger.Info("batch sent",
			"config_id", cfg.ID,
			"batch_id", batchID,
			"targets", len(targets))
	}

	// The batch closes and the config's marker advances whether or not the
	// send was accepted; a failed window is not retried.
	if err := e.store.CompleteBatch(ctx, batchID, time.Now()); err != nil {
		logger.Error("complete batch failed", "batch_id", batchID, "error", err.Error())
	}
	if err := e.store.MarkConfigSent(ctx, cfg.ID, now); err != nil {
		logger.Error("mark config sent failed", "config_id", cfg.ID, "error", err.Error())
	}
	return sent, failed, true
}

func (e *Engine) send(ctx context.Context, snd domain.Sender, tpl domain.MessageTemplate, targets []domain.Recipient, batchID int64, timeout time.Duration) (SendResult, error) {
	usernames := make([]string, 0, len(targets))
	for _, t := range targets {
		usernames = append(usernames, t.Username)
	}
	platform := snd.Platform
	if platform == "" {
		platform = e.opts.DefaultPlatform
	}
	logger.Info("sending batch",
		"batch_id", batchID,
		"platform", platform,
		"template_code", tpl.TemplateCode,
		"usernames", strings.Join(usernames, ","))
	return e.sender.Send(ctx, SendRequest{
		Usernames:       usernames,
		TemplateCode:    tpl.TemplateCode,
		SessionFilePath: snd.SessionFilePath,
		BatchID:         batchID,
		Platform:        platform,
		Timeout:         timeout,
	})
}

// PendingStats summarizes one pending-batch pass.
type PendingStats struct {
	BatchesSeen      int
	BatchesCompleted int
	Sent             int
	Failed           int
}

// ProcessPendingBatches sends manually authored batches whose window is
// open. Targets that already carry a success outcome for the batch are
// excluded, so a batch drains across passes until every target has
// succeeded, at which point it closes. Sends here are not quota-bounded,
// but their successes still count against the daily ceiling.
func (e *Engine) ProcessPendingBatches(ctx context.Context, now time.Time) PendingStats {
	var stats PendingStats

	batches, err := e.store.ListPendingBatches(ctx, now)
	if err != nil {
		logger.Error("list pending batches failed", "error", err.Error())
		return stats
	}
	stats.BatchesSeen = len(batches)

	for _, b := range batches {
		if ctx.Err() != nil {
			return stats
		}
		sent, failed, completed := e.processPendingBatch(ctx, b, now)
		stats.Sent += sent
		stats.Failed += failed
		if completed {
			stats.BatchesCompleted++
		}
	}
	return stats
}

func (e *Engine) processPendingBatch(ctx context.Context, b domain.DispatchBatch, now time.Time) (sent, failed int, completed bool) {
	snd, err := e.store.GetSender(ctx, b.SenderID)
	if err != nil {
		logger.Error("load sender failed", "batch_id", b.ID, "sender_id", b.SenderID, "error", err.Error())
		return 0, 0, false
	}
	tpl, err := e.store.GetTemplate(ctx, b.TemplateID)
	if err != nil {
		logger.Error("load template failed", "batch_id", b.ID, "template_id", b.TemplateID, "error", err.Error())
		return 0, 0, false
	}

	targets, err := e.store.ListRemainingBatchTargets(ctx, b.ID)
	if err != nil {
		logger.Error("list batch targets failed", "batch_id", b.ID, "error", err.Error())
		return 0, 0, false
	}
	if len(targets) == 0 {
		if err := e.store.CompleteBatch(ctx, b.ID, now); err != nil {
			logger.Error("complete batch failed", "batch_id", b.ID, "error", err.Error())
			return 0, 0, false
		}
		logger.Info("pending batch drained", "batch_id", b.ID)
		return 0, 0, true
	}

	text := message.BuildText(*tpl)
	result, sendErr := e.send(ctx, *snd, *tpl, targets, b.ID, e.opts.PendingSendTimeout)
	if sendErr != nil {
		failed = e.recorder.Record(ctx, b, targets, domain.OutcomeError, text, sendErr.Error())
		logger.Error("pending batch send failed", "batch_id", b.ID, "targets", len(targets), "error", sendErr.Error())
		return 0, failed, false
	}

	sent = e.recorder.Record(ctx, b, targets, domain.OutcomeSuccess, text, result.Detail)
	if sent < len(targets) {
		// Some success rows did not land; leave the batch open so the
		// next pass picks the unrecorded targets back up.
		logger.Warn("pending batch partially recorded", "batch_id", b.ID, "recorded", sent, "targets", len(targets))
		return sent, 0, false
	}
	if err := e.store.CompleteBatch(ctx, b.ID, time.Now()); err != nil {
		logger.Error("complete batch failed", "batch_id", b.ID, "error", err.Error())
		return sent, 0, false
	}
	logger.Info("pending batch sent", "batch_id", b.ID, "targets", len(targets))
	return sent, 0, true
}
