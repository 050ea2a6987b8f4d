package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmelton/liftview/internal/model"
)

// Fetcher pulls events and statistics from the simulator.
type Fetcher interface {
	GetEvents(ctx context.Context, limit, skip int) (*model.EventsPage, error)
	GetStats(ctx context.Context) (*model.Stats, error)
}

// Gate exposes the running flag and its transitions.
type Gate interface {
	Running() bool
	RunningChanges() <-chan bool
}

// Sink receives polled data.
type Sink interface {
	ReplaceEvents(events []model.Event)
	AppendStatsPoint(p model.StatsPoint)
}

// Config holds poller configuration.
type Config struct {
	EventsInterval time.Duration // Events poll period (default: 2s)
	EventsLimit    int           // Max events per fetch (default: 50)
	StatsInterval  time.Duration // Statistics poll period (default: 5s)
	Timeout        time.Duration // Per-request timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		EventsInterval: 2 * time.Second,
		EventsLimit:    50,
		StatsInterval:  5 * time.Second,
		Timeout:        10 * time.Second,
	}
}

// Poller runs the events and statistics timers while the simulation runs.
type Poller struct {
	cfg     Config
	fetcher Fetcher
	gate    Gate
	sink    Sink
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Poller.
func New(cfg Config, fetcher Fetcher, gate Gate, sink Sink, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:     cfg,
		fetcher: fetcher,
		gate:    gate,
		sink:    sink,
		logger:  logger,
	}
}

// Start begins watching the running flag.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("polling fallback started",
		"events_interval", p.cfg.EventsInterval,
		"stats_interval", p.cfg.StatsInterval,
	)
	return nil
}

// Stop cancels both timers and waits for them to exit.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("polling fallback stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run starts and stops the timer goroutines on running-flag transitions.
// Timers are active if and only if the flag is true.
func (p *Poller) run() {
	defer p.wg.Done()

	var stopTimers context.CancelFunc
	if p.gate.Running() {
		stopTimers = p.activate()
	}

	for {
		select {
		case <-p.ctx.Done():
			if stopTimers != nil {
				stopTimers()
			}
			return

		case running, ok := <-p.gate.RunningChanges():
			if !ok {
				if stopTimers != nil {
					stopTimers()
				}
				return
			}

			switch {
			case running && stopTimers == nil:
				stopTimers = p.activate()
			case !running && stopTimers != nil:
				stopTimers()
				stopTimers = nil
			}
		}
	}
}

// activate starts both timer goroutines under a per-activation context.
func (p *Poller) activate() context.CancelFunc {
	ctx, cancel := context.WithCancel(p.ctx)

	p.wg.Add(2)
	go p.eventsLoop(ctx)
	go p.statsLoop(ctx)

	p.logger.Debug("polling timers started")
	return cancel
}

// eventsLoop fetches the most recent events on each tick.
func (p *Poller) eventsLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.EventsInterval)
	defer ticker.Stop()

	// Poll immediately on activation.
	p.pollEvents(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollEvents(ctx)
		}
	}
}

// statsLoop fetches aggregate metrics on each tick.
func (p *Poller) statsLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.StatsInterval)
	defer ticker.Stop()

	p.pollStats(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollStats(ctx)
		}
	}
}

// pollEvents replaces the local event list with the server's most recent
// view. Failures are logged; the next tick proceeds regardless.
func (p *Poller) pollEvents(ctx context.Context) {
	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	page, err := p.fetcher.GetEvents(reqCtx, p.cfg.EventsLimit, 0)
	if err != nil {
		p.logger.Warn("events poll failed", "error", err)
		return
	}

	p.sink.ReplaceEvents(page.Events)
}

// pollStats appends one derived sample to the rolling history.
func (p *Poller) pollStats(ctx context.Context) {
	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	stats, err := p.fetcher.GetStats(reqCtx)
	if err != nil {
		p.logger.Warn("stats poll failed", "error", err)
		return
	}

	p.sink.AppendStatsPoint(model.PointFromStats(*stats, time.Now()))
}
