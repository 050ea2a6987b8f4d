package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmelton/liftview/internal/model"
)

// passengerRequest is the body for POST /passengers.
type passengerRequest struct {
	StartFloor       int `json:"start_floor"`
	DestinationFloor int `json:"destination_floor"`
}

// buttonRequest is the body for POST /button.
type buttonRequest struct {
	Floor     int    `json:"floor"`
	Direction string `json:"direction"`
}

// Start begins the simulation with the given configuration.
func (c *Client) Start(ctx context.Context, cfg model.SimulationConfig) error {
	if err := c.command(ctx, http.MethodPost, "/start", cfg, nil); err != nil {
		return fmt.Errorf("start simulation: %w", err)
	}
	return nil
}

// Stop pauses the simulation.
func (c *Client) Stop(ctx context.Context) error {
	if err := c.command(ctx, http.MethodPost, "/stop", nil, nil); err != nil {
		return fmt.Errorf("stop simulation: %w", err)
	}
	return nil
}

// Reset clears all simulation state on the server.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.command(ctx, http.MethodPost, "/reset", nil, nil); err != nil {
		return fmt.Errorf("reset simulation: %w", err)
	}
	return nil
}

// GetStatus fetches the running flag and aggregate counters.
func (c *Client) GetStatus(ctx context.Context) (*model.Status, error) {
	var status model.Status
	if err := c.get(ctx, "/status", nil, &status); err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	return &status, nil
}

// GetState fetches one snapshot over the pull channel. Used to seed the store
// before the first push frame arrives.
func (c *Client) GetState(ctx context.Context) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := c.get(ctx, "/state", nil, &snap); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &snap, nil
}

// GetEvents fetches a page of recent events, newest first.
func (c *Client) GetEvents(ctx context.Context, limit, skip int) (*model.EventsPage, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if skip > 0 {
		query.Set("skip", strconv.Itoa(skip))
	}

	var page model.EventsPage
	if err := c.get(ctx, "/events", query, &page); err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	return &page, nil
}

// GetStats fetches aggregate simulation metrics.
func (c *Client) GetStats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := c.get(ctx, "/stats", nil, &stats); err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &stats, nil
}

// GetConfig fetches the current simulation configuration.
func (c *Client) GetConfig(ctx context.Context) (*model.ServerConfig, error) {
	var cfg model.ServerConfig
	if err := c.get(ctx, "/config", nil, &cfg); err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	return &cfg, nil
}

// UpdateConfig updates the simulation configuration.
func (c *Client) UpdateConfig(ctx context.Context, cfg model.SimulationConfig) error {
	if err := c.command(ctx, http.MethodPut, "/config", cfg, nil); err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	return nil
}

// AddPassenger creates a passenger waiting on startFloor bound for destFloor.
func (c *Client) AddPassenger(ctx context.Context, startFloor, destFloor int) (*model.Passenger, error) {
	req := passengerRequest{
		StartFloor:       startFloor,
		DestinationFloor: destFloor,
	}

	var p model.Passenger
	if err := c.command(ctx, http.MethodPost, "/passengers", req, &p); err != nil {
		return nil, fmt.Errorf("add passenger: %w", err)
	}
	return &p, nil
}

// PressButton simulates pressing a call button on a floor.
func (c *Client) PressButton(ctx context.Context, floor int, direction string) (*model.Event, error) {
	req := buttonRequest{
		Floor:     floor,
		Direction: direction,
	}

	var ev model.Event
	if err := c.command(ctx, http.MethodPost, "/button", req, &ev); err != nil {
		return nil, fmt.Errorf("press button: %w", err)
	}
	return &ev, nil
}
