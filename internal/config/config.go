// Package config provides the hot-reloadable configuration surface for
// the streamio core and its demo CLI. It is grounded on altmount's
// internal/config manager.go: a viper-backed struct with YAML tags, a
// copier-based DeepCopy for safe snapshot handoff to change callbacks,
// and a Manager wrapping it with a thread-safe getter and reload hooks —
// trimmed from the teacher's dozens of app subsystems down to the four
// concerns this core actually has knobs for.
package config

import (
	"fmt"
	"time"

	"github.com/jinzhu/copier"
)

// Config is the complete tunable surface for a streamio deployment.
type Config struct {
	Segment    SegmentConfig    `yaml:"segment" mapstructure:"segment" json:"segment"`
	Timeout    TimeoutConfig    `yaml:"timeout" mapstructure:"timeout" json:"timeout"`
	TaskRunner TaskRunnerConfig `yaml:"task_runner" mapstructure:"task_runner" json:"task_runner"`
	Log        LogConfig        `yaml:"log" mapstructure:"log" json:"log,omitempty"`
}

// SegmentConfig tunes the segment pool backing every Buffer.
type SegmentConfig struct {
	// PoolPartitions is the number of independent LRU shards the pool
	// splits its free segments across; 0 means one per GOMAXPROCS.
	PoolPartitions int `yaml:"pool_partitions" mapstructure:"pool_partitions" json:"pool_partitions"`
	// MaxPooledPerPartition caps how many free segments each shard keeps
	// before evicting the least-recently-recycled one.
	MaxPooledPerPartition int `yaml:"max_pooled_per_partition" mapstructure:"max_pooled_per_partition" json:"max_pooled_per_partition"`
}

// TimeoutConfig tunes the AsyncTimeout watchdog's default budgets.
type TimeoutConfig struct {
	// DefaultReadTimeout bounds a Reader operation with no narrower
	// scope-level deadline, 0 meaning "no timeout".
	DefaultReadTimeout time.Duration `yaml:"default_read_timeout" mapstructure:"default_read_timeout" json:"default_read_timeout"`
	// DefaultWriteTimeout is the Writer equivalent.
	DefaultWriteTimeout time.Duration `yaml:"default_write_timeout" mapstructure:"default_write_timeout" json:"default_write_timeout"`
}

// TaskRunnerConfig tunes the shared FIFO/scheduled executor.
type TaskRunnerConfig struct {
	// MaxWorkers caps the number of concurrent FIFO worker goroutines.
	MaxWorkers int `yaml:"max_workers" mapstructure:"max_workers" json:"max_workers"`
	// ShutdownGrace bounds how long the run command waits for its task
	// queue to go idle before it calls TaskRunner.Shutdown.
	ShutdownGrace time.Duration `yaml:"shutdown_grace" mapstructure:"shutdown_grace" json:"shutdown_grace"`
}

// LogConfig mirrors altmount's log rotation configuration shape (kept
// verbatim: File/Level/MaxSize/MaxAge/MaxBackups/Compress all map
// directly onto internal/slogutil.SetupLogRotation and lumberjack).
type LogConfig struct {
	File       string `yaml:"file" mapstructure:"file" json:"file,omitempty"`
	Level      string `yaml:"level" mapstructure:"level" json:"level,omitempty"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size" json:"max_size,omitempty"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age" json:"max_age,omitempty"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups" json:"max_backups,omitempty"`
	Compress   bool   `yaml:"compress" mapstructure:"compress" json:"compress,omitempty"`
}

// DefaultConfig returns sane out-of-the-box values, the way altmount's
// DefaultConfig seeds a fresh install.
func DefaultConfig() *Config {
	return &Config{
		Segment: SegmentConfig{
			PoolPartitions:        0,
			MaxPooledPerPartition: 256,
		},
		Timeout: TimeoutConfig{
			DefaultReadTimeout:  30 * time.Second,
			DefaultWriteTimeout: 30 * time.Second,
		},
		TaskRunner: TaskRunnerConfig{
			MaxWorkers:    8,
			ShutdownGrace: 10 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    5,
			MaxAge:     14,
			MaxBackups: 5,
		},
	}
}

// Validate rejects configuration values that would make the core
// misbehave rather than merely perform sub-optimally.
func (c *Config) Validate() error {
	if c.Segment.PoolPartitions < 0 {
		return fmt.Errorf("segment.pool_partitions must be >= 0")
	}
	if c.Segment.MaxPooledPerPartition <= 0 {
		return fmt.Errorf("segment.max_pooled_per_partition must be > 0")
	}
	if c.Timeout.DefaultReadTimeout < 0 {
		return fmt.Errorf("timeout.default_read_timeout must be >= 0")
	}
	if c.Timeout.DefaultWriteTimeout < 0 {
		return fmt.Errorf("timeout.default_write_timeout must be >= 0")
	}
	if c.TaskRunner.MaxWorkers <= 0 {
		return fmt.Errorf("task_runner.max_workers must be > 0")
	}
	if c.TaskRunner.ShutdownGrace < 0 {
		return fmt.Errorf("task_runner.shutdown_grace must be >= 0")
	}
	return nil
}

// DeepCopy returns a fully independent copy of c, the way altmount's
// Config.DeepCopy uses jinzhu/copier so OnConfigChange callbacks never
// observe a config another goroutine is concurrently mutating.
func (c *Config) DeepCopy() *Config {
	if c == nil {
		return nil
	}
	out := &Config{}
	if err := copier.CopyWithOption(out, c, copier.Option{DeepCopy: true}); err != nil {
		shallow := *c
		return &shallow
	}
	return out
}
