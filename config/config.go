// Package config provides loading and parsing of engine.yaml configuration files.
// Engine configurations define deployment identity, run defaults, and the runtime
// settings for queue workers, the registry, and the health server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents an engine.yaml configuration file.
// This is the primary configuration for aggregation worker deployments.
type Config struct {
	// Identity
	Name        string `yaml:"name"`
	Version     string `yaml:"version,omitempty"`
	Description string `yaml:"description,omitempty"`

	// Run defaults applied to queued runs that do not set their own.
	Defaults *DefaultsConfig `yaml:"defaults,omitempty"`

	// Redis connection shared by the run queue and the exposure cache.
	Redis *RedisConfig `yaml:"redis,omitempty"`

	// Registry configuration (for etcd-based worker discovery)
	Registry *RegistryConfig `yaml:"registry,omitempty"`

	// Worker configuration (for queue-based execution)
	Worker *WorkerConfig `yaml:"worker,omitempty"`

	// Serve configuration (for the daemon health server)
	Serve *ServeConfig `yaml:"serve,omitempty"`
}

// DefaultsConfig overrides the engine's built-in run defaults.
// Unset fields defer to the model defaults (EUR, 100000 sims, seed 111).
type DefaultsConfig struct {
	// Currency is the reporting currency for losses (e.g. "EUR", "USD").
	Currency string `yaml:"currency,omitempty"`

	// Sims is the Monte Carlo sample count per asset.
	Sims int `yaml:"sims,omitempty"`

	// Seed seeds the run's random generator.
	Seed uint64 `yaml:"seed,omitempty"`
}

// RedisConfig defines the Redis connection for queueing and caching.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g. "redis://localhost:6379/0").
	URL string `yaml:"url,omitempty"`

	// CacheTTL is how long cached exposure values live.
	// Format: Go duration string (e.g., "15m", "1h")
	// Default: 15m
	CacheTTL string `yaml:"cache_ttl,omitempty"`

	// ConnectTimeout bounds the initial connection attempt.
	// Format: Go duration string (e.g., "5s")
	// Default: 5s
	ConnectTimeout string `yaml:"connect_timeout,omitempty"`
}

// GetURL returns the Redis URL or the default value.
func (r *RedisConfig) GetURL() string {
	if r == nil || r.URL == "" {
		return "redis://localhost:6379/0"
	}
	return r.URL
}

// GetCacheTTL parses the cache TTL string and returns a duration.
// Returns the default value if not set or invalid.
func (r *RedisConfig) GetCacheTTL() time.Duration {
	if r == nil || r.CacheTTL == "" {
		return 15 * time.Minute
	}
	d, err := time.ParseDuration(r.CacheTTL)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// GetConnectTimeout parses the connect timeout string and returns a duration.
// Returns the default value if not set or invalid.
func (r *RedisConfig) GetConnectTimeout() time.Duration {
	if r == nil || r.ConnectTimeout == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(r.ConnectTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// RegistryConfig defines etcd-based worker registration and discovery.
type RegistryConfig struct {
	// Endpoints are the etcd endpoints to connect to.
	// The PERILPOOL_REGISTRY_ENDPOINTS environment variable takes precedence.
	Endpoints []string `yaml:"endpoints,omitempty"`

	// LeaseTTL is the registration lease lifetime; a worker that stops
	// refreshing disappears from the registry after this long.
	// Format: Go duration string (e.g., "30s")
	// Default: 30s
	LeaseTTL string `yaml:"lease_ttl,omitempty"`

	// TLS enables mutual TLS towards etcd.
	TLS *TLSConfig `yaml:"tls,omitempty"`
}

// GetLeaseTTL parses the lease TTL string and returns a duration.
// Returns the default value if not set or invalid.
func (r *RegistryConfig) GetLeaseTTL() time.Duration {
	if r == nil || r.LeaseTTL == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(r.LeaseTTL)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// TLSConfig holds certificate paths for a mutually authenticated connection.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file,omitempty"`
}

// WorkerConfig defines configuration for queue-based run execution.
type WorkerConfig struct {
	// Concurrency is the number of concurrent run consumers.
	// Aggregation runs are CPU-bound, so the useful range is small (1-4).
	// Default: 2
	Concurrency int `yaml:"concurrency,omitempty"`

	// ShutdownTimeout is the time to wait for in-flight runs on shutdown.
	// Format: Go duration string (e.g., "30s", "1m")
	// Default: 30s
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`

	// QueuePrefix is the Redis key prefix for the run queue.
	// Default: "perilpool" (resulting in "perilpool:runs:queue")
	QueuePrefix string `yaml:"queue_prefix,omitempty"`

	// HeartbeatInterval is the interval between worker heartbeats.
	// Format: Go duration string (e.g., "10s")
	// Default: 10s
	HeartbeatInterval string `yaml:"heartbeat_interval,omitempty"`
}

// GetShutdownTimeout parses the shutdown timeout string and returns a duration.
// Returns the default value if not set or invalid.
func (w *WorkerConfig) GetShutdownTimeout() time.Duration {
	if w == nil || w.ShutdownTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(w.ShutdownTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetHeartbeatInterval parses the heartbeat interval string and returns a duration.
// Returns the default value if not set or invalid.
func (w *WorkerConfig) GetHeartbeatInterval() time.Duration {
	if w == nil || w.HeartbeatInterval == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(w.HeartbeatInterval)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetConcurrency returns the configured concurrency or the default value.
func (w *WorkerConfig) GetConcurrency() int {
	if w == nil || w.Concurrency <= 0 {
		return 2
	}
	return w.Concurrency
}

// GetQueuePrefix returns the queue prefix or the default value.
func (w *WorkerConfig) GetQueuePrefix() string {
	if w == nil || w.QueuePrefix == "" {
		return "perilpool"
	}
	return w.QueuePrefix
}

// ServeConfig defines the daemon health server.
type ServeConfig struct {
	// Port is the gRPC listen port.
	// Default: 50052
	Port int `yaml:"port,omitempty"`

	// GracefulTimeout is the time to wait for connections to drain on stop.
	// Format: Go duration string (e.g., "30s")
	// Default: 30s
	GracefulTimeout string `yaml:"graceful_timeout,omitempty"`

	// TLS enables TLS on the listener.
	TLS *TLSConfig `yaml:"tls,omitempty"`
}

// GetPort returns the configured port or the default value.
func (s *ServeConfig) GetPort() int {
	if s == nil || s.Port <= 0 {
		return 50052
	}
	return s.Port
}

// GetGracefulTimeout parses the graceful timeout string and returns a duration.
// Returns the default value if not set or invalid.
func (s *ServeConfig) GetGracefulTimeout() time.Duration {
	if s == nil || s.GracefulTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(s.GracefulTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Load reads and parses an engine.yaml file from the given path.
// If the path is a directory, it looks for engine.yaml or engine.yml in that directory.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	var configPath string
	if info.IsDir() {
		// Try engine.yaml first, then engine.yml
		yamlPath := filepath.Join(path, "engine.yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			ymlPath := filepath.Join(path, "engine.yml")
			if _, err := os.Stat(ymlPath); err == nil {
				configPath = ymlPath
			} else {
				return nil, fmt.Errorf("no engine.yaml or engine.yml found in %s", path)
			}
		}
	} else {
		configPath = path
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// LoadFromDir searches for engine.yaml starting from the given directory
// and walking up to parent directories until found or root is reached.
func LoadFromDir(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		config, err := Load(absDir)
		if err == nil {
			return config, nil
		}

		// Move to parent directory
		parent := filepath.Dir(absDir)
		if parent == absDir {
			// Reached root
			return nil, fmt.Errorf("no engine.yaml found in %s or parent directories", dir)
		}
		absDir = parent
	}
}

// LoadFromCurrentDir loads engine.yaml from the current working directory.
func LoadFromCurrentDir() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return LoadFromDir(cwd)
}
