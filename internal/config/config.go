// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/neonlead/leadscraper/internal/scraper"
)

// Config captures all service configuration knobs loaded via Viper. Every
// component receives the piece it needs at construction; nothing reads the
// environment at runtime.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Scraper ScraperConfig `mapstructure:"scraper"`
	DB      DBConfig      `mapstructure:"db"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Search  SearchConfig  `mapstructure:"search"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ScraperConfig governs the scrape pipeline.
type ScraperConfig struct {
	UserAgent            string `mapstructure:"user_agent"`
	DefaultConcurrency   int    `mapstructure:"default_concurrency"`
	DefaultTimeoutMs     int    `mapstructure:"default_timeout_ms"`
	ProxyList            string `mapstructure:"proxy_list"`
	HeadlessEnabled      bool   `mapstructure:"headless_enabled"`
	InProcessWorkerQueue int    `mapstructure:"in_process_queue_depth"`
}

// DBConfig controls access to the job/result store. An empty DSN selects the
// in-memory store.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// QueueConfig selects the durable queue transport. Provider "memory" runs an
// in-process worker; "pubsub" requires project, topic and (for workers)
// subscription ids; empty disables job submission entirely.
type QueueConfig struct {
	Provider       string `mapstructure:"provider"`
	ProjectID      string `mapstructure:"project_id"`
	TopicID        string `mapstructure:"topic_id"`
	SubscriptionID string `mapstructure:"subscription_id"`
}

// SearchConfig holds keyword-search provider credentials.
type SearchConfig struct {
	BingKey      string `mapstructure:"bing_key"`
	BingEndpoint string `mapstructure:"bing_endpoint"`
	SerpAPIKey   string `mapstructure:"serpapi_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEADSCRAPER")
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
	// Every key needs a default (even an empty one): AutomaticEnv only
	// surfaces keys viper already knows about, so an unregistered key could
	// not be set through the environment at all.
	v.SetDefault("server.port", 8080)
	v.SetDefault("scraper.user_agent", scraper.UserAgent)
	v.SetDefault("scraper.default_concurrency", 5)
	v.SetDefault("scraper.default_timeout_ms", 12000)
	v.SetDefault("scraper.proxy_list", "")
	v.SetDefault("scraper.headless_enabled", true)
	v.SetDefault("scraper.in_process_queue_depth", 64)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("queue.provider", "")
	v.SetDefault("queue.project_id", "")
	v.SetDefault("queue.topic_id", "")
	v.SetDefault("queue.subscription_id", "")
	v.SetDefault("search.bing_key", "")
	v.SetDefault("search.bing_endpoint", "")
	v.SetDefault("search.serpapi_key", "")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scraper.DefaultConcurrency <= 0 {
		return fmt.Errorf("scraper.default_concurrency must be > 0")
	}
	if c.Scraper.DefaultTimeoutMs <= 0 {
		return fmt.Errorf("scraper.default_timeout_ms must be > 0")
	}
	switch c.Queue.Provider {
	case "", "memory":
	case "pubsub":
		if c.Queue.ProjectID == "" || c.Queue.TopicID == "" {
			return fmt.Errorf("queue.project_id and queue.topic_id are required for pubsub")
		}
	default:
		return fmt.Errorf("unknown queue provider: %s", c.Queue.Provider)
	}
	return nil
}
