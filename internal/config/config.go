// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Failover  FailoverConfig  `mapstructure:"failover"`
	Runner    RunnerConfig    `mapstructure:"runner"`
	Output    OutputConfig    `mapstructure:"output"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	DB        DBConfig        `mapstructure:"db"`
	Publisher PublisherConfig `mapstructure:"publisher"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// SourcesConfig points at the source descriptor file, if any. The built-in
// descriptor table is used when File is empty.
type SourcesConfig struct {
	File string `mapstructure:"file"`
}

// CacheConfig controls the TTL document cache.
type CacheConfig struct {
	Dir       string `mapstructure:"dir"`
	TTLHours  int    `mapstructure:"ttl_hours"`
	Disabled  bool   `mapstructure:"disabled"`
	WriteMeta bool   `mapstructure:"write_meta"`
}

// FetchConfig bounds both fetch strategies.
type FetchConfig struct {
	TimeoutSeconds     int  `mapstructure:"timeout_seconds"`
	NavTimeoutSeconds  int  `mapstructure:"nav_timeout_seconds"`
	WaitTimeoutSeconds int  `mapstructure:"wait_timeout_seconds"`
	MaxBrowserSessions int  `mapstructure:"max_browser_sessions"`
	BlockAuxiliary     bool `mapstructure:"block_auxiliary"`
}

// FailoverConfig controls the domain failover controller.
type FailoverConfig struct {
	FreshnessHours int `mapstructure:"freshness_hours"`
	JitterMinMs    int `mapstructure:"jitter_min_ms"`
	JitterMaxMs    int `mapstructure:"jitter_max_ms"`
}

// RunnerConfig governs orchestration across sources.
type RunnerConfig struct {
	FanOut   int    `mapstructure:"fan_out"`
	Category string `mapstructure:"category"`
}

// OutputConfig sets artifact destinations.
type OutputConfig struct {
	Dir      string `mapstructure:"dir"`
	Provider string `mapstructure:"provider"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
}

// MetricsConfig enables the optional metrics/health endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// DBConfig controls the optional catalog store sink.
type DBConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
}

// PublisherConfig holds metadata for run-completion notifications.
type PublisherConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SHOWFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("cache.dir", "data/cache")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("cache.write_meta", true)
	v.SetDefault("fetch.timeout_seconds", 60)
	v.SetDefault("fetch.nav_timeout_seconds", 45)
	v.SetDefault("fetch.wait_timeout_seconds", 15)
	v.SetDefault("fetch.max_browser_sessions", 2)
	v.SetDefault("fetch.block_auxiliary", true)
	v.SetDefault("failover.freshness_hours", 6)
	v.SetDefault("failover.jitter_min_ms", 250)
	v.SetDefault("failover.jitter_max_ms", 1250)
	v.SetDefault("runner.fan_out", 2)
	v.SetDefault("output.dir", "data/catalog")
	v.SetDefault("output.provider", "local")
	v.SetDefault("output.prefix", "catalog")
	v.SetDefault("db.provider", "noop")
	v.SetDefault("publisher.provider", "memory")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Cache.TTLHours <= 0 {
		return fmt.Errorf("cache.ttl_hours must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.MaxBrowserSessions <= 0 {
		return fmt.Errorf("fetch.max_browser_sessions must be > 0")
	}
	if c.Runner.FanOut <= 0 {
		return fmt.Errorf("runner.fan_out must be > 0")
	}
	if c.Failover.JitterMaxMs < c.Failover.JitterMinMs {
		return fmt.Errorf("failover.jitter_max_ms must be >= failover.jitter_min_ms")
	}
	switch c.Output.Provider {
	case "local", "noop":
	case "gcs":
		if c.Output.Bucket == "" {
			return fmt.Errorf("output.bucket must be set when output.provider is gcs")
		}
	default:
		return fmt.Errorf("unknown output provider: %s", c.Output.Provider)
	}
	switch c.DB.Provider {
	case "noop":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.provider is postgres")
		}
	default:
		return fmt.Errorf("unknown db provider: %s", c.DB.Provider)
	}
	switch c.Publisher.Provider {
	case "memory", "noop":
	case "pubsub":
		if c.Publisher.ProjectID == "" || c.Publisher.TopicName == "" {
			return fmt.Errorf("publisher.project_id and publisher.topic_name must be set for pubsub")
		}
	default:
		return fmt.Errorf("unknown publisher provider: %s", c.Publisher.Provider)
	}
	return nil
}

// FetchTimeout returns the overall per-fetch budget.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// CacheTTL returns the document cache time-to-live.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// FreshnessWindow returns how long a last-success domain is trusted first.
func (c Config) FreshnessWindow() time.Duration {
	return time.Duration(c.Failover.FreshnessHours) * time.Hour
}
