package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Policy decides when the next reconnection attempt happens. Swapping in a
// backoff or attempt cap touches no callers.
type Policy interface {
	// Next returns the wait before the given attempt (1-based) and whether
	// to attempt at all.
	Next(attempt int) (time.Duration, bool)
}

// FixedDelay retries forever with a constant wait.
type FixedDelay struct {
	Delay time.Duration
}

func (p FixedDelay) Next(int) (time.Duration, bool) {
	return p.Delay, true
}

// Reconnector re-establishes the push connection after unintentional drops.
// One attempt is scheduled per drop; the pending wait is cancelled on
// teardown, and skipped if a connection was re-acquired independently in the
// meantime.
type Reconnector struct {
	manager *Manager
	policy  Policy
	logger  *slog.Logger

	notify chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReconnector creates a Reconnector. Wire NotifyDisconnect as the
// manager's disconnect hook.
func NewReconnector(manager *Manager, policy Policy, logger *slog.Logger) *Reconnector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconnector{
		manager: manager,
		policy:  policy,
		logger:  logger,
		// Capacity one: exactly one pending attempt per drop.
		notify: make(chan struct{}, 1),
	}
}

// NotifyDisconnect schedules a reconnection attempt. Safe to call from the
// manager's disconnect callback.
func (r *Reconnector) NotifyDisconnect(error) {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Start begins observing disconnect notifications.
func (r *Reconnector) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	return nil
}

// Stop cancels any pending attempt and waits for the loop to exit.
func (r *Reconnector) Stop(ctx context.Context) error {
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
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reconnector) run() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.notify:
			r.reconnect()
		}
	}
}

// reconnect waits out the policy delay and re-acquires, repeating until the
// connection is open, the policy gives up, or the reconnector is torn down.
func (r *Reconnector) reconnect() {
	for attempt := 1; ; attempt++ {
		delay, ok := r.policy.Next(attempt)
		if !ok {
			r.logger.Warn("reconnect policy gave up", "attempts", attempt-1)
			return
		}

		timer := time.NewTimer(delay)
		select {
		case <-r.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		// Re-acquired independently while we waited; nothing to do.
		if r.manager.IsOpen() {
			return
		}

		if err := r.manager.Acquire(r.ctx); err != nil {
			r.logger.Warn("reconnect attempt failed",
				"attempt", attempt,
				"error", err,
			)
			continue
		}

		r.logger.Info("push connection re-established", "attempt", attempt)
		return
	}
}
