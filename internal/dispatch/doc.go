// Package dispatch implements the daily-quota-bounded DM dispatch engine.
//
// Once per tick the engine walks the active auto-DM configurations in
// priority order, checks each against its recurrence rule, selects
// eligible recipients up to the remaining global daily allowance, performs
// one batch send per configuration against the automation backend, and
// records one durable outcome row per recipient.
//
// The daily allowance is never cached: it is derived from the append-only
// outcome log before every configuration's dispatch, so correctness
// survives process restarts. Mutual exclusion across dispatcher processes
// is the caller's job (see internal/worker and internal/pkg/distlock).
package dispatch
