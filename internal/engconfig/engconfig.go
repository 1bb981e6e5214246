// Package engconfig loads the engine's YAML configuration.
//
// Generalized from the teacher's package-level Config map (read once from a
// hardcoded config.yaml in the working directory) into an explicit typed
// Load, so callers choose their own config path and get a struct instead of
// string-keyed lookups.
package engconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds every knob spec.md leaves as an explicit construction
// parameter: the socket the coordinator listens on, the number of
// reducers, and the reaper's period/deadline.
type Config struct {
	// CoordinatorSock is the Unix-domain socket path the coordinator
	// listens on and workers dial.
	CoordinatorSock string `yaml:"coordinator_sock"`

	// IntermediateDir is the directory holding mr-inp-<r> and mr-out-<r>
	// files. Empty means the current working directory.
	IntermediateDir string `yaml:"intermediate_dir"`

	// NumReducers is R, the number of reduce jobs/partitions.
	NumReducers int `yaml:"num_reducers"`

	// ReaperPeriod is P in spec.md §4.2, default 2s.
	ReaperPeriod time.Duration `yaml:"reaper_period"`

	// JobTimeout is T in spec.md §4.2, default 10s.
	JobTimeout time.Duration `yaml:"job_timeout"`
}

// Default returns the configuration used when no config file is supplied:
// R=10 per spec.md §6, P=2s and T=10s per spec.md §4.2.
func Default() *Config {
	return &Config{
		CoordinatorSock: defaultSock(),
		NumReducers:     10,
		ReaperPeriod:    2 * time.Second,
		JobTimeout:      10 * time.Second,
	}
}

// defaultSock cooks up a unique-ish Unix-domain socket path in /var/tmp,
// the same scheme the teacher and the pack's other MapReduce labs use.
func defaultSock() string {
	return fmt.Sprintf("/var/tmp/mrengine-%d.sock", os.Getuid())
}

// Load reads and parses a YAML config file at path, filling in defaults for
// any field left zero. An empty path returns Default() unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("engconfig: read %s: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("engconfig: parse %s: %w", path, err)
	}

	if overlay.CoordinatorSock != "" {
		cfg.CoordinatorSock = overlay.CoordinatorSock
	}
	if overlay.IntermediateDir != "" {
		cfg.IntermediateDir = overlay.IntermediateDir
	}
	if overlay.NumReducers > 0 {
		cfg.NumReducers = overlay.NumReducers
	}
	if overlay.ReaperPeriod > 0 {
		cfg.ReaperPeriod = overlay.ReaperPeriod
	}
	if overlay.JobTimeout > 0 {
		cfg.JobTimeout = overlay.JobTimeout
	}

	if cfg.ReaperPeriod >= cfg.JobTimeout {
		return nil, fmt.Errorf("engconfig: reaper_period (%s) must be less than job_timeout (%s)", cfg.ReaperPeriod, cfg.JobTimeout)
	}

	return cfg, nil
}
