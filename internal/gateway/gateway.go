package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmelton/liftview/internal/model"
	"github.com/dmelton/liftview/internal/store"
)

// Validation errors caught before any request is issued.
var (
	ErrSameFloor    = errors.New("start and destination floors must be different")
	ErrBadDirection = errors.New(`direction must be "up" or "down"`)
)

// Commander is the command half of the REST client.
type Commander interface {
	Start(ctx context.Context, cfg model.SimulationConfig) error
	Stop(ctx context.Context) error
	Reset(ctx context.Context) error
	UpdateConfig(ctx context.Context, cfg model.SimulationConfig) error
	AddPassenger(ctx context.Context, startFloor, destFloor int) (*model.Passenger, error)
	PressButton(ctx context.Context, floor int, direction string) (*model.Event, error)
}

// Gateway translates user intents into one-shot requests. On failure the
// running flag and the store are left unchanged and the error is surfaced to
// the caller; command side effects otherwise arrive via the next pushed
// snapshot.
type Gateway struct {
	client Commander
	store  *store.Store
	logger *slog.Logger
}

// New creates a Command Gateway.
func New(client Commander, st *store.Store, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		client: client,
		store:  st,
		logger: logger,
	}
}

// Start begins the simulation and, on success, sets the running flag.
func (g *Gateway) Start(ctx context.Context, cfg model.SimulationConfig) error {
	if err := g.client.Start(ctx, cfg); err != nil {
		return err
	}

	g.store.SetRunning(true)
	g.logger.Info("simulation started",
		"elevators", cfg.NumElevators,
		"floors", cfg.NumFloors,
		"time_scale", cfg.TimeScale,
		"passenger_rate", cfg.PassengerRate,
	)
	return nil
}

// Stop pauses the simulation and, on success, clears the running flag.
func (g *Gateway) Stop(ctx context.Context) error {
	if err := g.client.Stop(ctx); err != nil {
		return err
	}

	g.store.SetRunning(false)
	g.logger.Info("simulation stopped")
	return nil
}

// Reset clears server state and, on success, the local store and event list.
func (g *Gateway) Reset(ctx context.Context) error {
	if err := g.client.Reset(ctx); err != nil {
		return err
	}

	g.store.SetRunning(false)
	g.store.Clear()
	g.logger.Info("simulation reset")
	return nil
}

// UpdateConfig updates the simulation configuration. No local state changes;
// the result is observed via the next pushed snapshot.
func (g *Gateway) UpdateConfig(ctx context.Context, cfg model.SimulationConfig) error {
	return g.client.UpdateConfig(ctx, cfg)
}

// AddPassenger creates a passenger. Identical start and destination floors
// are rejected locally; no request is sent.
func (g *Gateway) AddPassenger(ctx context.Context, startFloor, destFloor int) (*model.Passenger, error) {
	if startFloor == destFloor {
		return nil, fmt.Errorf("add passenger: %w", ErrSameFloor)
	}

	return g.client.AddPassenger(ctx, startFloor, destFloor)
}

// PressButton simulates a call button press on a floor. Direction must be
// "up" or "down" (case-insensitive); anything else is rejected locally.
func (g *Gateway) PressButton(ctx context.Context, floor int, direction string) (*model.Event, error) {
	direction = strings.ToLower(direction)
	if direction != "up" && direction != "down" {
		return nil, fmt.Errorf("press button: %w", ErrBadDirection)
	}

	return g.client.PressButton(ctx, floor, direction)
}
