package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dmelton/liftview/internal/connection"
)

// Handler receives the decoded payload of one frame of its registered kind.
type Handler func(payload json.RawMessage, frame connection.RawFrame)

// Stats contains runtime statistics.
type Stats struct {
	FramesReceived int64
	FramesRouted   int64
	DecodeErrors   int64
	UnknownKinds   int64
}

// envelope is the wire shape of every pushed frame.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Dispatcher decodes inbound frames and routes them by kind to registered
// handlers. A single goroutine consumes the frame channel, so handler
// invocation order equals frame arrival order.
type Dispatcher struct {
	logger *slog.Logger

	// Input from Connection Manager.
	input <-chan connection.RawFrame

	handlers map[string]Handler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	received int64
	routed   int64
	decode   int64
	unknown  int64
}

// New creates a Message Dispatcher reading from the given frame channel.
func New(input <-chan connection.RawFrame, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger:   logger,
		input:    input,
		handlers: make(map[string]Handler),
	}
}

// Handle registers the handler for a frame kind. Registration happens before
// Start; exactly one handler serves each kind.
func (d *Dispatcher) Handle(kind string, h Handler) {
	d.handlers[kind] = h
}

// Start begins routing frames.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(1)
	go d.routeLoop()

	d.logger.Info("message dispatcher started", "kinds", len(d.handlers))
	return nil
}

// Stop gracefully shuts down the dispatcher.
func (d *Dispatcher) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("message dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("message dispatcher stop timed out")
		return ctx.Err()
	}
}

// Stats returns current statistics.
func (d *Dispatcher) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Stats{
		FramesReceived: d.received,
		FramesRouted:   d.routed,
		DecodeErrors:   d.decode,
		UnknownKinds:   d.unknown,
	}
}

// routeLoop is the single routing goroutine.
func (d *Dispatcher) routeLoop() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case frame, ok := <-d.input:
			if !ok {
				d.logger.Info("frame channel closed")
				return
			}
			d.route(frame)
		}
	}
}

// route decodes and routes a single frame. Decode failures drop the frame and
// never propagate; unknown kinds are ignored for forward compatibility.
func (d *Dispatcher) route(frame connection.RawFrame) {
	d.mu.Lock()
	d.received++
	d.mu.Unlock()

	var env envelope
	if err := json.Unmarshal(frame.Data, &env); err != nil {
		d.logger.Warn("failed to decode frame", "error", err)
		d.mu.Lock()
		d.decode++
		d.mu.Unlock()
		return
	}

	if env.Type == "" {
		d.logger.Warn("frame missing type field")
		d.mu.Lock()
		d.decode++
		d.mu.Unlock()
		return
	}

	h, ok := d.handlers[env.Type]
	if !ok {
		d.logger.Debug("ignoring unknown frame kind", "kind", env.Type)
		d.mu.Lock()
		d.unknown++
		d.mu.Unlock()
		return
	}

	h(env.Data, frame)

	d.mu.Lock()
	d.routed++
	d.mu.Unlock()
}
