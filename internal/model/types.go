package model

import (
	"encoding/json"
	"time"
)

// Elevator directions as reported by the simulator.
const (
	DirectionUp   = "UP"
	DirectionDown = "DOWN"
	DirectionIdle = "IDLE"
)

// Elevator states as reported by the simulator.
const (
	StateMoving  = "MOVING"
	StateStopped = "STOPPED"
	StateLoading = "LOADING"
)

// -----------------------------------------------------------------------------
// Push Channel Types
// -----------------------------------------------------------------------------

// Snapshot is a complete description of simulation state at one instant.
// It is always replaced wholesale, never merged field-by-field.
type Snapshot struct {
	Time              float64        `json:"time"`
	Elevators         []ElevatorView `json:"elevators"`
	WaitingPassengers map[int]int    `json:"waiting_passengers"` // floor → count
	CompletedTrips    int            `json:"completed_trips"`
	UpRequests        []int          `json:"up_requests"`
	DownRequests      []int          `json:"down_requests"`
	FloorCount        int            `json:"num_floors"` // zero on servers that omit it
}

// IsZero reports whether the snapshot is the initial empty value
// (no push frame applied yet).
func (s Snapshot) IsZero() bool {
	return s.Time == 0 && s.Elevators == nil
}

// ElevatorView is one elevator's state within a snapshot.
type ElevatorView struct {
	ID               int     `json:"id"`
	CurrentFloor     float64 `json:"current_floor"`
	DestinationFloor *int    `json:"destination_floor"` // nil when idle
	Direction        string  `json:"direction"`
	State            string  `json:"state"`
	Passengers       int     `json:"passengers"`
	TargetFloors     []int   `json:"target_floors"`
	IsFull           bool    `json:"is_full"`
}

// -----------------------------------------------------------------------------
// Pull Channel Types
// -----------------------------------------------------------------------------

// Event is one entry from the simulator's event log. The server flattens
// event details into the top-level object, so the known fields are pulled out
// and everything else lands in Details.
type Event struct {
	Time    float64
	Type    string
	Details map[string]any
}

// UnmarshalJSON splits the flattened wire object into Time, Type and Details.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["time"].(float64); ok {
		e.Time = v
	}
	if v, ok := raw["type"].(string); ok {
		e.Type = v
	}
	delete(raw, "time")
	delete(raw, "type")
	e.Details = raw

	return nil
}

// MarshalJSON re-flattens the event into the wire shape.
func (e Event) MarshalJSON() ([]byte, error) {
	raw := make(map[string]any, len(e.Details)+2)
	for k, v := range e.Details {
		raw[k] = v
	}
	raw["time"] = e.Time
	raw["type"] = e.Type
	return json.Marshal(raw)
}

// EventsPage is the paginated response from GET /events.
type EventsPage struct {
	Total  int     `json:"total"`
	Skip   int     `json:"skip"`
	Limit  int     `json:"limit"`
	Events []Event `json:"events"` // newest first
}

// Stats holds aggregate metrics from GET /stats.
type Stats struct {
	AverageWaitTime        float64         `json:"average_wait_time"`
	AverageRideTime        float64         `json:"average_ride_time"`
	AverageTotalTime       float64         `json:"average_total_time"`
	TotalCompletedTrips    int             `json:"total_completed_trips"`
	TotalWaitingPassengers int             `json:"total_waiting_passengers"`
	ElevatorUtilization    map[int]float64 `json:"elevator_utilization"`
}

// StatsPoint is one derived sample in the rolling statistics history.
type StatsPoint struct {
	At             time.Time
	AvgWait        float64
	AvgRide        float64
	AvgTotal       float64
	CompletedTrips int
	Waiting        int
}

// PointFromStats derives a history sample from a stats response.
func PointFromStats(s Stats, at time.Time) StatsPoint {
	return StatsPoint{
		At:             at,
		AvgWait:        s.AverageWaitTime,
		AvgRide:        s.AverageRideTime,
		AvgTotal:       s.AverageTotalTime,
		CompletedTrips: s.TotalCompletedTrips,
		Waiting:        s.TotalWaitingPassengers,
	}
}

// -----------------------------------------------------------------------------
// Command Types
// -----------------------------------------------------------------------------

// SimulationConfig is the request body for POST /start and PUT /config.
type SimulationConfig struct {
	NumElevators  int     `json:"num_elevators,omitempty"`
	NumFloors     int     `json:"num_floors,omitempty"`
	TimeScale     float64 `json:"time_scale,omitempty"`
	PassengerRate float64 `json:"passenger_rate,omitempty"`
}

// ServerConfig is the response from GET /config.
type ServerConfig struct {
	NumElevators int     `json:"num_elevators"`
	NumFloors    int     `json:"num_floors"`
	TimeScale    float64 `json:"time_scale"`
	IsRunning    bool    `json:"is_running"`
}

// Status is the response from GET /status, used once at startup to seed the
// running flag.
type Status struct {
	Running           bool    `json:"running"`
	Time              float64 `json:"time"`
	Elevators         int     `json:"elevators"`
	Floors            int     `json:"floors"`
	WaitingPassengers int     `json:"waiting_passengers"`
	CompletedTrips    int     `json:"completed_trips"`
}

// Passenger is the response from POST /passengers.
type Passenger struct {
	ID               int      `json:"id"`
	StartFloor       int      `json:"start_floor"`
	DestinationFloor int      `json:"destination_floor"`
	WaitStartTime    float64  `json:"wait_start_time"`
	ElevatorID       *int     `json:"elevator_id"`
	BoardingTime     *float64 `json:"boarding_time"`
	ArrivalTime      *float64 `json:"arrival_time"`
	WaitTime         *float64 `json:"wait_time"`
	RideTime         *float64 `json:"ride_time"`
	TotalTime        *float64 `json:"total_time"`
}
