package recorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmelton/liftview/internal/model"
)

// BatchSender is the slice of the pgx pool the recorder uses.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Config holds recorder settings.
type Config struct {
	BatchSize     int           // Max rows per flush (default: 100)
	FlushInterval time.Duration // Flush cadence (default: 1s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     100,
		FlushInterval: time.Second,
	}
}

// Metrics counts recorder activity.
type Metrics struct {
	SnapshotInserts int64
	EventInserts    int64
	EventConflicts  int64
	Errors          int64
	Flushes         int64
}

// snapshotRow is one archived snapshot.
type snapshotRow struct {
	SimTime    float64
	ReceivedAt int64 // µs since epoch
	State      []byte
}

// eventRow is one archived simulation event.
type eventRow struct {
	SimTime   float64
	EventType string
	Details   []byte
}

// Recorder archives applied snapshots and polled events for one session.
type Recorder struct {
	cfg    Config
	db     BatchSender
	logger *slog.Logger

	// Session identity; one per recorder lifetime.
	session uuid.UUID

	snapshots *buffer[snapshotRow]
	events    *buffer[eventRow]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	metrics Metrics
}

// New creates a Recorder writing to the given pool.
func New(cfg Config, db BatchSender, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		cfg:       cfg,
		db:        db,
		logger:    logger,
		session:   uuid.New(),
		snapshots: newBuffer[snapshotRow](cfg.BatchSize * 2),
		events:    newBuffer[eventRow](cfg.BatchSize * 2),
	}
}

// Session returns this recorder's session identity.
func (r *Recorder) Session() uuid.UUID {
	return r.session
}

// Start begins the flush loop.
func (r *Recorder) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.flushLoop()

	r.logger.Info("session recorder started",
		"session", r.session,
		"batch_size", r.cfg.BatchSize,
		"flush_interval", r.cfg.FlushInterval,
	)
	return nil
}

// Stop flushes remaining rows and shuts down.
func (r *Recorder) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		r.logger.Warn("recorder stop timed out")
	}

	r.snapshots.close()
	r.events.close()

	// Final flush of everything left; a single pass drains at most one
	// batch per buffer, so repeat until both are empty.
	for r.snapshots.len() > 0 || r.events.len() > 0 {
		r.flush(context.Background())
	}

	r.logger.Info("session recorder stopped")
	return nil
}

// Stats returns current metrics.
func (r *Recorder) Stats() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics
}

// RecordSnapshot buffers one applied snapshot.
func (r *Recorder) RecordSnapshot(snap model.Snapshot) {
	state, err := json.Marshal(snap)
	if err != nil {
		r.logger.Warn("failed to encode snapshot", "error", err)
		return
	}

	r.snapshots.push(snapshotRow{
		SimTime:    snap.Time,
		ReceivedAt: time.Now().UnixMicro(),
		State:      state,
	})
}

// RecordEvents buffers one polled event batch.
func (r *Recorder) RecordEvents(events []model.Event) {
	for _, ev := range events {
		details, err := json.Marshal(ev.Details)
		if err != nil {
			r.logger.Warn("failed to encode event details", "error", err)
			continue
		}
		r.events.push(eventRow{
			SimTime:   ev.Time,
			EventType: ev.Type,
			Details:   details,
		})
	}
}

// flushLoop flushes buffered rows on the configured cadence.
func (r *Recorder) flushLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.flush(r.ctx)
		}
	}
}

// flush writes pending rows to the database.
func (r *Recorder) flush(ctx context.Context) {
	start := time.Now()

	snaps := r.snapshots.drain(r.cfg.BatchSize)
	events := r.events.drain(r.cfg.BatchSize)
	if len(snaps) == 0 && len(events) == 0 {
		return
	}

	if err := r.insertSnapshots(ctx, snaps); err != nil {
		r.logger.Error("snapshot insert failed", "error", err, "count", len(snaps))
		r.mu.Lock()
		r.metrics.Errors++
		r.mu.Unlock()
	}

	conflicts, err := r.insertEvents(ctx, events)
	if err != nil {
		r.logger.Error("event insert failed", "error", err, "count", len(events))
		r.mu.Lock()
		r.metrics.Errors++
		r.mu.Unlock()
	}

	r.mu.Lock()
	r.metrics.SnapshotInserts += int64(len(snaps))
	r.metrics.EventInserts += int64(len(events) - conflicts)
	r.metrics.EventConflicts += int64(conflicts)
	r.metrics.Flushes++
	r.mu.Unlock()

	r.logger.Debug("flushed session rows",
		"snapshots", len(snaps),
		"events", len(events),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// insertSnapshots appends snapshot rows using pgx.Batch.
func (r *Recorder) insertSnapshots(ctx context.Context, rows []snapshotRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO session_snapshots (session_id, sim_time, received_at, state)
			VALUES ($1, $2, $3, $4)
		`, r.session, row.SimTime, row.ReceivedAt, row.State)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// insertEvents appends event rows with ON CONFLICT DO NOTHING; re-polled
// batches overlap, so conflicts are expected and counted.
func (r *Recorder) insertEvents(ctx context.Context, rows []eventRow) (conflicts int, err error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO session_events (session_id, sim_time, event_type, details)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (session_id, sim_time, event_type, details) DO NOTHING
		`, r.session, row.SimTime, row.EventType, row.Details)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return conflicts, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}
	return conflicts, nil
}
