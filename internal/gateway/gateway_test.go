package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/dmelton/liftview/internal/model"
	"github.com/dmelton/liftview/internal/store"
)

// fakeCommander records calls and returns scripted errors.
type fakeCommander struct {
	startCalls     int
	stopCalls      int
	resetCalls     int
	configCalls    int
	passengerCalls int
	buttonCalls    int

	err error

	lastDirection string
}

func (f *fakeCommander) Start(context.Context, model.SimulationConfig) error {
	f.startCalls++
	return f.err
}

func (f *fakeCommander) Stop(context.Context) error {
	f.stopCalls++
	return f.err
}

func (f *fakeCommander) Reset(context.Context) error {
	f.resetCalls++
	return f.err
}

func (f *fakeCommander) UpdateConfig(context.Context, model.SimulationConfig) error {
	f.configCalls++
	return f.err
}

func (f *fakeCommander) AddPassenger(_ context.Context, start, dest int) (*model.Passenger, error) {
	f.passengerCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &model.Passenger{ID: 1, StartFloor: start, DestinationFloor: dest}, nil
}

func (f *fakeCommander) PressButton(_ context.Context, floor int, direction string) (*model.Event, error) {
	f.buttonCalls++
	f.lastDirection = direction
	if f.err != nil {
		return nil, f.err
	}
	return &model.Event{Type: "button_pressed"}, nil
}

func TestGateway_StartSetsRunning(t *testing.T) {
	cmd := &fakeCommander{}
	st := store.New(20, nil)
	g := New(cmd, st, nil)

	err := g.Start(context.Background(), model.SimulationConfig{NumElevators: 3, NumFloors: 10})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !st.Running() {
		t.Error("running flag not set after start")
	}
}

func TestGateway_StartFailureLeavesFlag(t *testing.T) {
	cmd := &fakeCommander{err: errors.New("server exploded")}
	st := store.New(20, nil)
	g := New(cmd, st, nil)

	err := g.Start(context.Background(), model.SimulationConfig{})
	if err == nil {
		t.Fatal("expected error")
	}
	if st.Running() {
		t.Error("running flag set despite command failure")
	}
}

func TestGateway_StopClearsRunning(t *testing.T) {
	cmd := &fakeCommander{}
	st := store.New(20, nil)
	st.SetRunning(true)
	g := New(cmd, st, nil)

	if err := g.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if st.Running() {
		t.Error("running flag still set after stop")
	}
}

func TestGateway_ResetClearsStore(t *testing.T) {
	cmd := &fakeCommander{}
	st := store.New(20, nil)
	st.SetRunning(true)
	st.ApplySnapshot(model.Snapshot{Time: 5})
	st.ReplaceEvents([]model.Event{{Time: 1, Type: "x"}})
	g := New(cmd, st, nil)

	if err := g.Reset(context.Background()); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if st.Running() {
		t.Error("running flag still set after reset")
	}
	if !st.Snapshot().IsZero() {
		t.Error("snapshot not cleared after reset")
	}
	if len(st.Events()) != 0 {
		t.Error("events not cleared after reset")
	}
}

func TestGateway_ResetFailureKeepsStore(t *testing.T) {
	cmd := &fakeCommander{err: errors.New("unavailable")}
	st := store.New(20, nil)
	st.SetRunning(true)
	st.ApplySnapshot(model.Snapshot{Time: 5})
	g := New(cmd, st, nil)

	if err := g.Reset(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !st.Running() {
		t.Error("running flag cleared despite reset failure")
	}
	if st.Snapshot().IsZero() {
		t.Error("snapshot cleared despite reset failure")
	}
}

func TestGateway_AddPassengerSameFloorRejected(t *testing.T) {
	cmd := &fakeCommander{}
	g := New(cmd, store.New(20, nil), nil)

	_, err := g.AddPassenger(context.Background(), 3, 3)
	if !errors.Is(err, ErrSameFloor) {
		t.Errorf("error = %v, want ErrSameFloor", err)
	}
	if cmd.passengerCalls != 0 {
		t.Errorf("passenger calls = %d, want 0 (rejected locally)", cmd.passengerCalls)
	}
}

func TestGateway_AddPassenger(t *testing.T) {
	cmd := &fakeCommander{}
	g := New(cmd, store.New(20, nil), nil)

	p, err := g.AddPassenger(context.Background(), 1, 8)
	if err != nil {
		t.Fatalf("AddPassenger failed: %v", err)
	}
	if p.StartFloor != 1 || p.DestinationFloor != 8 {
		t.Errorf("passenger = %+v, want start 1, dest 8", p)
	}
}

func TestGateway_PressButtonDirection(t *testing.T) {
	tests := []struct {
		direction string
		wantErr   bool
		wantSent  string
	}{
		{"up", false, "up"},
		{"down", false, "down"},
		{"UP", false, "up"},
		{"Down", false, "down"},
		{"sideways", true, ""},
		{"", true, ""},
	}

	for _, tt := range tests {
		cmd := &fakeCommander{}
		g := New(cmd, store.New(20, nil), nil)

		_, err := g.PressButton(context.Background(), 2, tt.direction)
		if tt.wantErr {
			if !errors.Is(err, ErrBadDirection) {
				t.Errorf("PressButton(%q) error = %v, want ErrBadDirection", tt.direction, err)
			}
			if cmd.buttonCalls != 0 {
				t.Errorf("PressButton(%q) issued a request, want local reject", tt.direction)
			}
			continue
		}

		if err != nil {
			t.Errorf("PressButton(%q) failed: %v", tt.direction, err)
			continue
		}
		if cmd.lastDirection != tt.wantSent {
			t.Errorf("PressButton(%q) sent %q, want %q", tt.direction, cmd.lastDirection, tt.wantSent)
		}
	}
}
