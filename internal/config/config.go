package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/humus-dev/humus/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "humus.json"

	// DefaultPort is the default server port.
	DefaultPort = 7070

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultWriteTimeout bounds a single WebSocket write.
	DefaultWriteTimeout = "10s"

	// DefaultSendQueue is the number of frames buffered per client.
	DefaultSendQueue = 16

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log format.
	DefaultLogFormat = "text"

	// DefaultMetricsNamespace is the Prometheus namespace.
	DefaultMetricsNamespace = "humus"

	// DefaultSnapshotKey is the object name used for the latest tree.
	DefaultSnapshotKey = "latest"
)

// Snapshot backends.
const (
	BackendNone   = ""
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// Config represents the complete humus.json configuration.
type Config struct {
	// Server contains HTTP and WebSocket settings.
	Server ServerConfig `json:"server,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty"`

	// Session contains render session settings.
	Session SessionConfig `json:"session,omitempty"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Snapshot contains baseline persistence settings.
	Snapshot SnapshotConfig `json:"snapshot,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// WriteTimeout bounds each WebSocket write (e.g., "10s").
	WriteTimeout string `json:"writeTimeout,omitempty"`

	// SendQueue is the per-client frame buffer. Clients that fall this far
	// behind are resynchronized with a full tree.
	SendQueue int `json:"sendQueue,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// SessionConfig contains render session settings.
type SessionConfig struct {
	// Validate checks every tree before rendering it.
	Validate bool `json:"validate,omitempty"`

	// ID fixes the session ID. Empty means a random ID per start.
	ID string `json:"id,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled serves /metrics and records session metrics.
	Enabled bool `json:"enabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`
}

// SnapshotConfig selects where the latest tree is persisted.
type SnapshotConfig struct {
	// Backend is "", "memory" or "s3". Empty disables persistence.
	Backend string `json:"backend,omitempty"`

	// Key is the snapshot name (default: "latest").
	Key string `json:"key,omitempty"`

	// Bucket is the S3 bucket.
	Bucket string `json:"bucket,omitempty"`

	// Region is the S3 region.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint (MinIO, LocalStack).
	Endpoint string `json:"endpoint,omitempty"`

	// Profile selects a shared AWS config profile.
	Profile string `json:"profile,omitempty"`

	// Prefix is prepended to object keys.
	Prefix string `json:"prefix,omitempty"`

	// PathStyle forces path-style bucket addressing.
	PathStyle bool `json:"pathStyle,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         DefaultHost,
			Port:         DefaultPort,
			WriteTimeout: DefaultWriteTimeout,
			SendQueue:    DefaultSendQueue,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultMetricsNamespace,
		},
		Snapshot: SnapshotConfig{
			Key: DefaultSnapshotKey,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for humus.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
// Fields missing from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C001").
				WithDetail("no " + ConfigFileName + " found in " + filepath.Dir(path)).
				Wrap(err)
		}
		return nil, errors.New("C001").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("C002").
			WithDetail(path).
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("C002").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C001").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for fields explicitly zeroed in the
// file.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.SendQueue == 0 {
		c.Server.SendQueue = DefaultSendQueue
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Snapshot.Key == "" {
		c.Snapshot.Key = DefaultSnapshotKey
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("C003").WithDetail("server.port must be between 0 and 65535")
	}
	if _, err := c.WriteTimeout(); err != nil {
		return errors.New("C003").WithDetail("server.writeTimeout").Wrap(err)
	}
	if c.Server.SendQueue < 1 {
		return errors.New("C003").WithDetail("server.sendQueue must be positive")
	}
	if _, ok := logLevels[c.Log.Level]; !ok {
		return errors.New("C003").WithDetailf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("C003").WithDetailf("log.format %q is not text or json", c.Log.Format)
	}
	switch c.Snapshot.Backend {
	case BackendNone, BackendMemory:
	case BackendS3:
		if c.Snapshot.Bucket == "" {
			return errors.New("C003").WithDetail("snapshot.bucket is required for the s3 backend")
		}
	default:
		return errors.New("C003").WithDetailf("snapshot.backend %q is not memory or s3", c.Snapshot.Backend)
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// WriteTimeout parses Server.WriteTimeout.
func (c *Config) WriteTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.WriteTimeout)
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// LogLevel returns Log.Level as a slog level. Unknown levels map to info.
func (c *Config) LogLevel() slog.Level {
	if l, ok := logLevels[c.Log.Level]; ok {
		return l
	}
	return slog.LevelInfo
}

// NewLogger builds the process logger described by Log.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
