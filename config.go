package taskora

import (
	"fmt"
	"os"
	"time"

	"github.com/taskora/taskora/messaging/memory"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the subsystem configuration. It
// can be populated from YAML, JSON or environment-driven tooling. The
// zero-value is useful – all nested fields inherit their package defaults.
type Config struct {
	Coordinator CoordinatorConfig `json:"coordinator" yaml:"coordinator"`
	Queue       QueueConfig       `json:"queue" yaml:"queue"`
}

// CoordinatorConfig configures the worker pool.
type CoordinatorConfig struct {
	// WorkerCount is the number of workers executing submitted items.
	WorkerCount int `json:"workers" yaml:"workers"`
	// ArchiveTTL is how long terminal items stay visible to Lookup,
	// expressed as a Go duration string (e.g. "5m").
	ArchiveTTL string `json:"archiveTTL" yaml:"archiveTTL"`
}

// QueueConfig configures the submit queue. Whether a full queue blocks or
// rejects submitters is a deliberate, explicit choice – see the messaging
// memory queue for the two policies.
type QueueConfig struct {
	Buffer     int    `json:"buffer" yaml:"buffer"`
	FullPolicy string `json:"fullPolicy" yaml:"fullPolicy"`
}

// DefaultConfig returns a Config mirroring the package defaults.
func DefaultConfig() *Config {
	return &Config{
		Coordinator: CoordinatorConfig{
			WorkerCount: 5,
			ArchiveTTL:  "5m",
		},
		Queue: QueueConfig{
			Buffer:     100,
			FullPolicy: string(memory.FullReject),
		},
	}
}

// LoadConfig reads a YAML configuration file. Unset fields keep their
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Coordinator.WorkerCount <= 0 {
		return fmt.Errorf("coordinator.workers must be > 0")
	}
	if c.Coordinator.ArchiveTTL != "" {
		if _, err := time.ParseDuration(c.Coordinator.ArchiveTTL); err != nil {
			return fmt.Errorf("coordinator.archiveTTL: %w", err)
		}
	}
	if c.Queue.Buffer <= 0 {
		return fmt.Errorf("queue.buffer must be > 0")
	}
	switch memory.FullPolicy(c.Queue.FullPolicy) {
	case memory.FullReject, memory.FullBlock, "":
	default:
		return fmt.Errorf("queue.fullPolicy must be %q or %q", memory.FullReject, memory.FullBlock)
	}
	return nil
}

// archiveTTL returns the parsed TTL, falling back to the default on empty.
func (c *Config) archiveTTL() time.Duration {
	if c.Coordinator.ArchiveTTL == "" {
		return 5 * time.Minute
	}
	d, err := time.ParseDuration(c.Coordinator.ArchiveTTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}
