// Package config loads the optional YAML configuration for the
// orchestration core. Every field has a working default; a missing file is
// not an error for callers that treat configuration as optional.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Executor   ExecutorConfig   `yaml:"executor"`
	Router     RouterConfig     `yaml:"router"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SchedulerConfig tunes strategy selection.
type SchedulerConfig struct {
	ApplicabilityWeight float64 `yaml:"applicability_weight"`
	HistoryWeight       float64 `yaml:"history_weight"`
	FitnessWeight       float64 `yaml:"fitness_weight"`
}

// ExecutorConfig tunes phase execution.
type ExecutorConfig struct {
	DefaultPhaseTimeoutMS int `yaml:"default_phase_timeout_ms"`
}

// RouterConfig tunes message dispatch.
type RouterConfig struct {
	QueueSize        int `yaml:"queue_size"`
	DelayOffsetMS    int `yaml:"delay_offset_ms"`
	ScheduleOffsetMS int `yaml:"schedule_offset_ms"`
}

// AggregatorConfig tunes result merging.
type AggregatorConfig struct {
	MinQuality float64 `yaml:"min_quality"`
}

// LoggingConfig tunes the ambient logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			ApplicabilityWeight: 0.4,
			HistoryWeight:       0.3,
			FitnessWeight:       0.3,
		},
		Executor: ExecutorConfig{
			DefaultPhaseTimeoutMS: 30000,
		},
		Router: RouterConfig{
			QueueSize:        64,
			DelayOffsetMS:    100,
			ScheduleOffsetMS: 1000,
		},
		Aggregator: AggregatorConfig{
			MinQuality: 0.7,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file over the defaults: omitted fields keep their
// default values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise surface as confusing runtime
// behavior.
func (c *Config) Validate() error {
	for name, w := range map[string]float64{
		"scheduler.applicability_weight": c.Scheduler.ApplicabilityWeight,
		"scheduler.history_weight":       c.Scheduler.HistoryWeight,
		"scheduler.fitness_weight":       c.Scheduler.FitnessWeight,
		"aggregator.min_quality":         c.Aggregator.MinQuality,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("config: %s must be in [0,1], got %v", name, w)
		}
	}
	if c.Executor.DefaultPhaseTimeoutMS <= 0 {
		return fmt.Errorf("config: executor.default_phase_timeout_ms must be positive")
	}
	if c.Router.QueueSize <= 0 {
		return fmt.Errorf("config: router.queue_size must be positive")
	}
	return nil
}

// DefaultPhaseTimeout returns the executor timeout as a duration.
func (c *Config) DefaultPhaseTimeout() time.Duration {
	return time.Duration(c.Executor.DefaultPhaseTimeoutMS) * time.Millisecond
}

// DelayOffset returns the router delay offset as a duration.
func (c *Config) DelayOffset() time.Duration {
	return time.Duration(c.Router.DelayOffsetMS) * time.Millisecond
}

// ScheduleOffset returns the router schedule offset as a duration.
func (c *Config) ScheduleOffset() time.Duration {
	return time.Duration(c.Router.ScheduleOffsetMS) * time.Millisecond
}
