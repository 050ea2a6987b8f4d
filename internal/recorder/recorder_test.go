package recorder

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmelton/liftview/internal/model"
)

// fakeBatchResults acknowledges every queued statement as one inserted row.
type fakeBatchResults struct {
	remaining int
}

func (f *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	f.remaining--
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeBatchResults) Query() (pgx.Rows, error) { return nil, nil }
func (f *fakeBatchResults) QueryRow() pgx.Row        { return nil }
func (f *fakeBatchResults) Close() error             { return nil }

// fakeSender counts rows across batches.
type fakeSender struct {
	mu      sync.Mutex
	batches int
	rows    int
}

func (f *fakeSender) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.mu.Lock()
	f.batches++
	f.rows += b.Len()
	f.mu.Unlock()
	return &fakeBatchResults{remaining: b.Len()}
}

func (f *fakeSender) totals() (batches, rows int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batches, f.rows
}

func TestRecorder_StopDrainsBacklog(t *testing.T) {
	sender := &fakeSender{}
	r := New(Config{BatchSize: 100, FlushInterval: time.Hour}, sender, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Well past one batch per buffer; the flush interval never fires, so
	// everything rides on the final drain.
	events := make([]model.Event, 250)
	for i := range events {
		events[i] = model.Event{
			Time:    float64(i),
			Type:    "passenger_waiting",
			Details: map[string]any{"floor": i % 10},
		}
	}
	r.RecordEvents(events)

	for i := 0; i < 130; i++ {
		r.RecordSnapshot(model.Snapshot{Time: float64(i), CompletedTrips: i})
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	_, rows := sender.totals()
	if rows != 250+130 {
		t.Errorf("rows written = %d, want %d", rows, 250+130)
	}

	m := r.Stats()
	if m.EventInserts != 250 {
		t.Errorf("EventInserts = %d, want 250", m.EventInserts)
	}
	if m.SnapshotInserts != 130 {
		t.Errorf("SnapshotInserts = %d, want 130", m.SnapshotInserts)
	}
}

func TestRecorder_FlushOnInterval(t *testing.T) {
	sender := &fakeSender{}
	r := New(Config{BatchSize: 100, FlushInterval: 10 * time.Millisecond}, sender, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		r.Stop(stopCtx)
	}()

	r.RecordSnapshot(model.Snapshot{Time: 1.5})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, rows := sender.totals(); rows > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("snapshot never flushed on interval")
}

func TestRecorder_SessionIdentity(t *testing.T) {
	a := New(DefaultConfig(), &fakeSender{}, nil)
	b := New(DefaultConfig(), &fakeSender{}, nil)

	if a.Session() == b.Session() {
		t.Error("two recorders share a session id")
	}
	if got := fmt.Sprintf("%s", a.Session()); len(got) != 36 {
		t.Errorf("session %q is not a canonical uuid", got)
	}
}
