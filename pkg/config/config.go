package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	xutil "CrashRadar/pkg/util"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// SymbolEntry binds a model feature name to a provider ticker. An empty symbol
// keeps the feature in the schema but skips fetching it.
type SymbolEntry struct {
	Feature string `yaml:"feature"`
	Symbol  string `yaml:"symbol"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"40s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"http://localhost:3000\"]"`
	} `yaml:"server"`
	Log struct {
		Level     string `yaml:"level" default:"info"`
		Format    string `yaml:"format" default:"json"`
		Output    string `yaml:"output" default:"stdout"`
		Collector struct {
			Enabled   bool          `yaml:"enabled"`
			Topic     string        `yaml:"topic" default:"crashradar.logs"`
			Interval  time.Duration `yaml:"interval" default:"30s"`
			Threshold int           `yaml:"threshold" default:"100"`
		} `yaml:"collector"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Provider struct {
		BaseURL       string        `yaml:"base_url" default:"https://query2.finance.yahoo.com"`
		UserAgent     string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; CrashRadar/1.0)"`
		Timeout       time.Duration `yaml:"timeout" default:"10s"`
		AdjustedClose bool          `yaml:"adjusted_close" default:"true"`
		CacheTTL      time.Duration `yaml:"cache_ttl" default:"5m"`
		RateLimit     struct {
			RPS   float64 `yaml:"rps" default:"5"`
			Burst int     `yaml:"burst" default:"5"`
		} `yaml:"rate_limit"`
		Breaker struct {
			MaxRequests         uint32        `yaml:"max_requests" default:"1"`
			Interval            time.Duration `yaml:"interval" default:"60s"`
			Timeout             time.Duration `yaml:"timeout" default:"30s"`
			ConsecutiveFailures uint32        `yaml:"consecutive_failures" default:"3"`
			FailureRatio        float64       `yaml:"failure_ratio" default:"0.5"`
			MinRequests         uint32        `yaml:"min_requests" default:"10"`
		} `yaml:"breaker"`
	} `yaml:"provider"`
	Forecast struct {
		LookbackDays int           `yaml:"lookback_days" default:"10"`
		Timeout      time.Duration `yaml:"timeout" default:"30s"`
		Concurrency  int           `yaml:"concurrency" default:"4"`
		Window       int           `yaml:"window" default:"7"`
		Symbols      []SymbolEntry `yaml:"symbols"`
	} `yaml:"forecast"`
	MarketData struct {
		CacheTTL  time.Duration `yaml:"cache_ttl" default:"1m"`
		RateLimit struct {
			RPS   float64 `yaml:"rps" default:"2"`
			Burst int     `yaml:"burst" default:"10"`
		} `yaml:"rate_limit"`
	} `yaml:"market_data"`
	Model struct {
		Kind    string        `yaml:"kind" default:"artifact"`
		Path    string        `yaml:"path" default:"models/crash_model.json"`
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout" default:"3s"`
		Retries int           `yaml:"retries" default:"3"`
	} `yaml:"model"`
	Cache struct {
		Backend    string `yaml:"backend" default:"memory"`
		MaxEntries int    `yaml:"max_entries" default:"10000"`
		Redis      struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled         bool     `yaml:"enabled"`
		Brokers         []string `yaml:"brokers"`
		Topic           string   `yaml:"topic" default:"crashradar.predictions"`
		RequiredAcks    int      `yaml:"required_acks" default:"-1"`
		Compression     string   `yaml:"compression" default:"gzip"`
		AutoCreateTopic bool     `yaml:"auto_create_topic"`
		BufferSize      int      `yaml:"buffer_size" default:"256"`
		Producer        struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"500ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
}

// Default returns a configuration populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CRASHRADAR_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("MODEL_URL"); v != "" {
		c.Model.URL = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = xutil.SplitCSV(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format must be 'json' or 'console', got '%s'", c.Log.Format)
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if c.Forecast.LookbackDays < 1 {
		return fmt.Errorf("forecast.lookback_days must be at least 1")
	}
	if c.Forecast.Window < 1 {
		return fmt.Errorf("forecast.window must be at least 1")
	}
	for i, s := range c.Forecast.Symbols {
		if s.Feature == "" {
			return fmt.Errorf("forecast.symbols[%d].feature is required", i)
		}
	}
	switch c.Model.Kind {
	case "artifact":
		if c.Model.Path == "" {
			return fmt.Errorf("model.path is required for kind 'artifact'")
		}
	case "remote":
		if c.Model.URL == "" {
			return fmt.Errorf("model.url is required for kind 'remote'")
		}
	default:
		return fmt.Errorf("model.kind must be 'artifact' or 'remote', got '%s'", c.Model.Kind)
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got '%s'", c.Cache.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Log.Collector.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("log.collector requires kafka to be enabled")
	}
	return nil
}
