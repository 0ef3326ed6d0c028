package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide, driver-independent configuration for the
// gateway: listen parameters, worker sizing, cache bounds, and maintenance
// sweeper timing.
type Config struct {
	ListenIP        string `yaml:"listen_ip"`
	ListenPortRange [2]int `yaml:"listen_port_range"`

	BufferSize int `yaml:"buffer_size"`
	MaxWorkers int `yaml:"max_workers"`
	QueueSize  int `yaml:"queue_size"`

	StaticCacheEntries int `yaml:"static_cache_entries"`
	StaticCacheBytes   int `yaml:"static_cache_bytes"`
	StreamCacheEntries int `yaml:"stream_cache_entries"`
	StreamCacheBytes   int `yaml:"stream_cache_bytes"`

	CleanIntervalSeconds int `yaml:"clean_interval"`
	NodeTimeoutSeconds   int `yaml:"node_timeout"`

	LogLevel string `yaml:"log_level"`
}

// Default returns a Config populated with the documented defaults.
func Default() *Config {
	return &Config{
		ListenIP:        "0.0.0.0",
		ListenPortRange: [2]int{1025, 2048},

		BufferSize: 1024,
		MaxWorkers: 10,
		QueueSize:  100,

		StaticCacheEntries: 50,
		StaticCacheBytes:   4 * 1024 * 1024,
		StreamCacheEntries: 8,
		StreamCacheBytes:   16 * 1024 * 1024,

		CleanIntervalSeconds: 0,
		NodeTimeoutSeconds:   30,

		LogLevel: "info",
	}
}

// Load reads a YAML config file at path and overlays it on top of Default().
// A missing field in the file keeps its default value; the file need not
// specify every key.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading gateway config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing gateway config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would make the driver or caches
// impossible to start correctly.
func (c *Config) Validate() error {
	if c.ListenPortRange[0] <= 0 || c.ListenPortRange[1] <= 0 {
		return fmt.Errorf("listen_port_range must be positive: got %v", c.ListenPortRange)
	}
	if c.ListenPortRange[0] > c.ListenPortRange[1] {
		return fmt.Errorf("listen_port_range start %d must not exceed end %d", c.ListenPortRange[0], c.ListenPortRange[1])
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer_size must be positive: got %d", c.BufferSize)
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("max_workers must be positive: got %d", c.MaxWorkers)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive: got %d", c.QueueSize)
	}
	if c.StaticCacheEntries <= 0 || c.StaticCacheBytes <= 0 {
		return fmt.Errorf("static cache bounds must be positive: entries=%d bytes=%d", c.StaticCacheEntries, c.StaticCacheBytes)
	}
	if c.StreamCacheEntries <= 0 || c.StreamCacheBytes <= 0 {
		return fmt.Errorf("stream cache bounds must be positive: entries=%d bytes=%d", c.StreamCacheEntries, c.StreamCacheBytes)
	}
	if c.CleanIntervalSeconds < 0 {
		return fmt.Errorf("clean_interval must not be negative: got %d", c.CleanIntervalSeconds)
	}
	if c.NodeTimeoutSeconds < 0 {
		return fmt.Errorf("node_timeout must not be negative: got %d", c.NodeTimeoutSeconds)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// SweeperEnabled reports whether the Maintenance Sweeper (component N)
// should run. clean_interval == 0 disables it, per spec.
func (c *Config) SweeperEnabled() bool {
	return c.CleanIntervalSeconds > 0
}
