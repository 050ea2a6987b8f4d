package config

import "time"

// ViewerConfig is the root configuration for a viewer instance.
type ViewerConfig struct {
	Instance   InstanceConfig   `yaml:"instance"`
	Server     ServerConfig     `yaml:"server"`
	Connection ConnectionConfig `yaml:"connection"`
	Polling    PollingConfig    `yaml:"polling"`
	Recorder   RecorderConfig   `yaml:"recorder"`
	Health     HealthConfig     `yaml:"health"`
}

// InstanceConfig identifies this viewer.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds simulator endpoints and REST client settings.
type ServerConfig struct {
	RestURL    string        `yaml:"rest_url"`
	WSURL      string        `yaml:"ws_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// ConnectionConfig holds push-channel settings.
type ConnectionConfig struct {
	ReconnectDelay  time.Duration `yaml:"reconnect_delay"`
	PingInterval    time.Duration `yaml:"ping_interval"`
	PingTimeout     time.Duration `yaml:"ping_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	FrameBufferSize int           `yaml:"frame_buffer_size"`
}

// PollingConfig holds pull-fallback settings.
type PollingConfig struct {
	EventsInterval   time.Duration `yaml:"events_interval"`
	EventsLimit      int           `yaml:"events_limit"`
	StatsInterval    time.Duration `yaml:"stats_interval"`
	StatsHistorySize int           `yaml:"stats_history_size"`
}

// RecorderConfig holds session recorder settings. The recorder is off unless
// enabled explicitly.
type RecorderConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Postgres      DBConfig      `yaml:"postgres"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// HealthConfig holds the local health endpoint settings.
type HealthConfig struct {
	Port int `yaml:"port"`
}
