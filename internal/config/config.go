// Package config defines the executor node configuration, loaded from a
// YAML file with defaults applied for anything unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fhestate/fhestate/internal/cache"
	"github.com/fhestate/fhestate/internal/ledger"
)

type Config struct {
	RPC      RPCConfig      `yaml:"rpc"`
	Program  ProgramConfig  `yaml:"program"`
	Keys     KeysConfig     `yaml:"keys"`
	Cache    CacheConfig    `yaml:"cache"`
	Executor ExecutorConfig `yaml:"executor"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type RPCConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type ProgramConfig struct {
	ID string `yaml:"id"`
}

type KeysConfig struct {
	Dir    string `yaml:"dir"`
	Wallet string `yaml:"wallet"`
}

type CacheConfig struct {
	Dir string `yaml:"dir"`
}

type ExecutorConfig struct {
	DataDir         string `yaml:"data_dir"`
	PollIntervalSec int    `yaml:"poll_interval_sec"`
	TaskTimeoutSec  int    `yaml:"task_timeout_sec"`
	QueueCapacity   int    `yaml:"queue_capacity"`
	Retry           RetryConfig `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int `yaml:"max_attempts"`
	BaseBackoffSec int `yaml:"base_backoff_sec"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		RPC:     RPCConfig{Endpoint: ledger.DefaultRPC},
		Keys:    KeysConfig{Dir: "fhe_keys", Wallet: "deploy-wallet.json"},
		Cache:   CacheConfig{Dir: cache.DefaultDir},
		Logging: LoggingConfig{Level: "info"},
		Executor: ExecutorConfig{
			DataDir:         ".fhestate",
			PollIntervalSec: 2,
			TaskTimeoutSec:  600,
			QueueCapacity:   64,
			Retry: RetryConfig{
				MaxAttempts:    5,
				BaseBackoffSec: 4,
			},
		},
	}
}

// Load reads path if it exists and fills unset fields with defaults. A
// missing file yields the defaults without error; a malformed file does
// not.
func Load(path string) (Config, error) {
	cfg := Default()
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.RPC.Endpoint == "" {
		c.RPC.Endpoint = def.RPC.Endpoint
	}
	if c.Keys.Dir == "" {
		c.Keys.Dir = def.Keys.Dir
	}
	if c.Keys.Wallet == "" {
		c.Keys.Wallet = def.Keys.Wallet
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = def.Cache.Dir
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Executor.DataDir == "" {
		c.Executor.DataDir = def.Executor.DataDir
	}
	if c.Executor.PollIntervalSec <= 0 {
		c.Executor.PollIntervalSec = def.Executor.PollIntervalSec
	}
	if c.Executor.TaskTimeoutSec <= 0 {
		c.Executor.TaskTimeoutSec = def.Executor.TaskTimeoutSec
	}
	if c.Executor.QueueCapacity <= 0 {
		c.Executor.QueueCapacity = def.Executor.QueueCapacity
	}
	if c.Executor.Retry.MaxAttempts <= 0 {
		c.Executor.Retry.MaxAttempts = def.Executor.Retry.MaxAttempts
	}
	if c.Executor.Retry.BaseBackoffSec <= 0 {
		c.Executor.Retry.BaseBackoffSec = def.Executor.Retry.BaseBackoffSec
	}
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Executor.PollIntervalSec) * time.Second
}

// TaskTimeout returns the per-task timeout as a duration.
func (c *Config) TaskTimeout() time.Duration {
	return time.Duration(c.Executor.TaskTimeoutSec) * time.Second
}
