package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// RawFrame is a frame from the Connection Manager to the Message Dispatcher.
type RawFrame struct {
	Data       []byte    // Raw frame bytes from WebSocket
	Generation uint64    // Connection generation the frame arrived on
	ReceivedAt time.Time // Local timestamp when the client received it
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // WebSocket URL (e.g., ws://localhost:8000/ws)
	PingInterval time.Duration // Keepalive ping cadence
	PingTimeout  time.Duration // Max time without ping/pong before the connection is stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval: 15 * time.Second,
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   256,
	}
}

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	WSURL           string        // WebSocket URL of the simulator push channel
	PingInterval    time.Duration // Keepalive ping cadence
	PingTimeout     time.Duration // Stale-connection threshold
	WriteTimeout    time.Duration // Write deadline for sends
	FrameBufferSize int           // Buffer size for the output frame channel
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		PingInterval:    15 * time.Second,
		PingTimeout:     60 * time.Second,
		WriteTimeout:    5 * time.Second,
		FrameBufferSize: 256,
	}
}

// ManagerStats provides statistics about the connection manager.
type ManagerStats struct {
	Open         bool
	Generation   uint64
	DroppedSends int64
}
