package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL          = "http://localhost:8000"
	DefaultWSURL            = "ws://localhost:8000/ws"
	DefaultAPITimeout       = 30 * time.Second
	DefaultMaxRetries       = 3
	DefaultReconnectDelay   = 3 * time.Second
	DefaultPingInterval     = 15 * time.Second
	DefaultPingTimeout      = 60 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultFrameBufferSize  = 256
	DefaultEventsInterval   = 2 * time.Second
	DefaultEventsLimit      = 50
	DefaultStatsInterval    = 5 * time.Second
	DefaultStatsHistorySize = 20
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 4
	DefaultMinConns         = 1
	DefaultBatchSize        = 100
	DefaultFlushInterval    = 1 * time.Second
	DefaultHealthPort       = 8081
)

func (c *ViewerConfig) applyDefaults() {
	// Server defaults
	if c.Server.RestURL == "" {
		c.Server.RestURL = DefaultRestURL
	}
	if c.Server.WSURL == "" {
		c.Server.WSURL = DefaultWSURL
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = DefaultAPITimeout
	}
	if c.Server.MaxRetries == 0 {
		c.Server.MaxRetries = DefaultMaxRetries
	}

	// Connection defaults
	if c.Connection.ReconnectDelay == 0 {
		c.Connection.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Connection.PingInterval == 0 {
		c.Connection.PingInterval = DefaultPingInterval
	}
	if c.Connection.PingTimeout == 0 {
		c.Connection.PingTimeout = DefaultPingTimeout
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connection.FrameBufferSize == 0 {
		c.Connection.FrameBufferSize = DefaultFrameBufferSize
	}

	// Polling defaults
	if c.Polling.EventsInterval == 0 {
		c.Polling.EventsInterval = DefaultEventsInterval
	}
	if c.Polling.EventsLimit == 0 {
		c.Polling.EventsLimit = DefaultEventsLimit
	}
	if c.Polling.StatsInterval == 0 {
		c.Polling.StatsInterval = DefaultStatsInterval
	}
	if c.Polling.StatsHistorySize == 0 {
		c.Polling.StatsHistorySize = DefaultStatsHistorySize
	}

	// Recorder defaults
	if c.Recorder.BatchSize == 0 {
		c.Recorder.BatchSize = DefaultBatchSize
	}
	if c.Recorder.FlushInterval == 0 {
		c.Recorder.FlushInterval = DefaultFlushInterval
	}
	if c.Recorder.Enabled {
		applyDBDefaults(&c.Recorder.Postgres)
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
