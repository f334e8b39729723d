package worker

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-crm/internal/dispatch"
	"github.com/ignite/outreach-crm/internal/pkg/distlock"
	"github.com/ignite/outreach-crm/internal/pkg/logger"
)

const (
	// DefaultTickInterval is how often the dispatcher wakes up. It must
	// divide a minute so no schedule minute is skipped.
	DefaultTickInterval = 60 * time.Second

	// DefaultLockTTL bounds how long a crashed dispatcher can hold the
	// tick lock.
	DefaultLockTTL = 120 * time.Second

	// tickLockKey serializes ticks across all dispatcher processes.
	tickLockKey = "outreach:dispatch:tick"
)

// Dispatcher drives the dispatch engine on a wall-clock tick. Only one
// process runs a tick at a time: every tick, scheduled or manual, goes
// through the same distributed lock.
type Dispatcher struct {
	engine      *dispatch.Engine
	redisClient *redis.Client // optional; nil falls back to PG advisory locks
	db          *sql.DB
	workerID    string

	tickInterval time.Duration
	lockTTL      time.Duration

	// Stats
	ticksRun     int64
	ticksSkipped int64
	dmsSent      int64
	dmsFailed    int64

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewDispatcher creates a dispatcher over the given engine.
func NewDispatcher(engine *dispatch.Engine, db *sql.DB) *Dispatcher {
	hostname, _ := os.Hostname()
	return &Dispatcher{
		engine:       engine,
		db:           db,
		workerID:     fmt.Sprintf("dispatcher-%s-%d", hostname, time.Now().UnixNano()%10000),
		tickInterval: DefaultTickInterval,
		lockTTL:      DefaultLockTTL,
	}
}

// SetRedisClient sets the Redis client for distributed locking. If unset,
// the dispatcher falls back to PostgreSQL advisory locks.
func (d *Dispatcher) SetRedisClient(client *redis.Client) {
	d.redisClient = client
}

// SetTickInterval overrides the tick interval.
func (d *Dispatcher) SetTickInterval(iv time.Duration) {
	if iv > 0 {
		d.tickInterval = iv
	}
}

// SetLockTTL overrides the tick lock TTL.
func (d *Dispatcher) SetLockTTL(ttl time.Duration) {
	if ttl > 0 {
		d.lockTTL = ttl
	}
}

// Start begins the tick loop.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher already running")
	}
	d.running = true
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.mu.Unlock()

	logger.Info("dispatcher starting",
		"worker_id", d.workerID,
		"tick_interval", d.tickInterval.String())

	d.wg.Add(1)
	go d.tickLoop()
	return nil
}

// Stop waits for an in-flight tick to finish, then stops the loop.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	logger.Info("dispatcher stopped",
		"ticks_run", atomic.LoadInt64(&d.ticksRun),
		"dms_sent", atomic.LoadInt64(&d.dmsSent),
		"dms_failed", atomic.LoadInt64(&d.dmsFailed))
}

func (d *Dispatcher) tickLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.tick(time.Now(), dispatch.TickOptions{})
		}
	}
}

// tick runs one locked engine pass: the scheduled dispatch walk followed
// by the pending-batch drain.
func (d *Dispatcher) tick(now time.Time, opts dispatch.TickOptions) {
	ctx, cancel := context.WithTimeout(d.ctx, d.lockTTL)
	defer cancel()

	lock := distlock.New(d.redisClient, d.db, tickLockKey, d.lockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		logger.Error("acquire tick lock failed", "error", err.Error())
		return
	}
	if !acquired {
		atomic.AddInt64(&d.ticksSkipped, 1)
		logger.Debug("tick already running elsewhere, skipping")
		return
	}
	defer lock.Release(ctx)

	stats := d.engine.RunTick(ctx, now, opts)
	pending := d.engine.ProcessPendingBatches(ctx, now)

	atomic.AddInt64(&d.ticksRun, 1)
	atomic.AddInt64(&d.dmsSent, int64(stats.Sent+pending.Sent))
	atomic.AddInt64(&d.dmsFailed, int64(stats.Failed+pending.Failed))

	if stats.ConfigsDispatched > 0 || pending.BatchesSeen > 0 {
		logger.Info("tick finished",
			"configs_dispatched", stats.ConfigsDispatched,
			"sent", stats.Sent+pending.Sent,
			"failed", stats.Failed+pending.Failed,
			"pending_batches", pending.BatchesSeen)
	}
}

// RunNow runs one tick immediately, outside the ticker cadence. It takes
// the same lock as scheduled ticks, so a manual run can never overlap one.
// Used by the manual dispatch endpoint.
func (d *Dispatcher) RunNow(ctx context.Context, opts dispatch.TickOptions) (dispatch.TickStats, error) {
	lock := distlock.New(d.redisClient, d.db, tickLockKey, d.lockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return dispatch.TickStats{}, fmt.Errorf("acquire tick lock: %w", err)
	}
	if !acquired {
		return dispatch.TickStats{}, fmt.Errorf("a dispatch tick is already running")
	}
	defer lock.Release(ctx)

	stats := d.engine.RunTick(ctx, time.Now(), opts)
	atomic.AddInt64(&d.ticksRun, 1)
	atomic.AddInt64(&d.dmsSent, int64(stats.Sent))
	atomic.AddInt64(&d.dmsFailed, int64(stats.Failed))
	return stats, nil
}

// Stats reports the dispatcher's lifetime counters.
func (d *Dispatcher) Stats() (ticksRun, ticksSkipped, sent, failed int64) {
	return atomic.LoadInt64(&d.ticksRun),
		atomic.LoadInt64(&d.ticksSkipped),
		atomic.LoadInt64(&d.dmsSent),
		atomic.LoadInt64(&d.dmsFailed)
}
