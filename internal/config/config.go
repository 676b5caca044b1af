// Package config defines service configuration and its loading.
//
// Values are layered: defaults from New, then an optional YAML file named
// by ACCEL_CONFIG, then ACCEL_* environment variables. Nested keys use a
// double underscore in env names, e.g. ACCEL_MQTT__BROKER.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// AllowedOrigins lists extra browser origins allowed to open the
	// prediction websocket; same-origin pages are always allowed.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// Mode is the session kind: live or record.
	Mode string `koanf:"mode"`
	// Activity names the recorded class in record mode.
	Activity string `koanf:"activity"`
	// SessionSeconds ends a session after this long; 0 runs until signaled.
	SessionSeconds int `koanf:"session_seconds"`

	// WireMode is packed or per_axis.
	WireMode string `koanf:"wire_mode"`
	// Encoding is text or binary (per-axis scalars only).
	Encoding string `koanf:"encoding"`
	// Delimiter separates fields in text payloads.
	Delimiter string `koanf:"delimiter"`
	// TrailingSentinel strips one empty trailing field from packed text.
	TrailingSentinel bool `koanf:"trailing_sentinel"`

	// LookBackWindowSize is W, the number of samples per window.
	LookBackWindowSize int `koanf:"look_back_window_size"`
	// NumFeatures is F; only 3 is supported.
	NumFeatures int `koanf:"num_features"`

	// MaxInFlight bounds partial samples per source in per-axis mode.
	MaxInFlight int `koanf:"max_in_flight"`
	// MaxSources bounds distinct sources tracked by the assembler.
	MaxSources int `koanf:"max_sources"`

	// QueueSize bounds the in-memory notification queue.
	QueueSize int `koanf:"queue_size"`

	// Store selects the record sink: csv or sqlite.
	Store string `koanf:"store"`
	// OutputDir holds CSV recordings, or the SQLite file when DBPath is empty.
	OutputDir string `koanf:"output_dir"`
	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// ModelFile is the classifier weights file for live mode.
	ModelFile string `koanf:"model_file"`

	// Classes lists activity classes in output order.
	Classes []Class `koanf:"classes"`

	MQTT MQTT `koanf:"mqtt"`
}

// Class is one activity class.
type Class struct {
	Name   string    `koanf:"name"`
	OneHot []float64 `koanf:"one_hot"`
	// Pattern matches recording file names; defaults to ^<name>.*\.csv$.
	Pattern string `koanf:"pattern"`
}

// MQTT configures the broker transport. It is disabled when Broker is empty.
type MQTT struct {
	Broker          string   `koanf:"broker"`
	ClientID        string   `koanf:"client_id"`
	Topics          []string `koanf:"topics"`
	QoS             int      `koanf:"qos"`
	PredictionTopic string   `koanf:"prediction_topic"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		Mode:               "live",
		Activity:           "experiment",
		WireMode:           "packed",
		Encoding:           "text",
		Delimiter:          ";",
		TrailingSentinel:   true,
		LookBackWindowSize: 20,
		NumFeatures:        3,
		MaxInFlight:        1,
		MaxSources:         16,
		QueueSize:          4096,
		Store:              "csv",
		OutputDir:          "./data",
		Classes: []Class{
			{Name: "circle", OneHot: []float64{1, 0, 0}},
			{Name: "up-down", OneHot: []float64{0, 1, 0}},
			{Name: "stationary", OneHot: []float64{0, 0, 1}},
		},
		MQTT: MQTT{
			ClientID: "accelstream",
			Topics:   []string{"accel/#"},
		},
	}
}
