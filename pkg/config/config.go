package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Quotes struct {
		DefaultSymbols []string      `yaml:"default_symbols"`
		TTL            time.Duration `yaml:"ttl"`
		APIURL         string        `yaml:"api_url"`
		APIKey         string        `yaml:"api_key"`
		FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	} `yaml:"quotes"`
	Refresh struct {
		Interval    time.Duration `yaml:"interval"`
		Concurrency int           `yaml:"concurrency"`
		MinSuccess  int           `yaml:"min_success"`
	} `yaml:"refresh"`
	Alerts struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"alerts"`
	Notifications struct {
		FlushInterval time.Duration `yaml:"flush_interval"`
		RetentionDays int           `yaml:"retention_days"`
	} `yaml:"notifications"`
	Broadcast struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"broadcast"`
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Host     string        `yaml:"host"`
		Port     int           `yaml:"port"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		AlertsTopic  string   `yaml:"alerts_topic"`
		QuotesTopic  string   `yaml:"quotes_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Consumer     struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	History struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"history"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("QUOTES_API_KEY"); v != "" {
		c.Quotes.APIKey = v
	}
	if v := os.Getenv("QUOTES_API_URL"); v != "" {
		c.Quotes.APIURL = v
	}
	if v := os.Getenv("DEFAULT_SYMBOLS"); v != "" {
		c.Quotes.DefaultSymbols = strings.Split(v, ",")
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port := splitHostPort(v, c.Redis.Port)
		c.Redis.Host = host
		c.Redis.Port = port
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Quotes.TTL == 0 {
		c.Quotes.TTL = 24 * time.Hour
	}
	if c.Quotes.FetchTimeout == 0 {
		c.Quotes.FetchTimeout = 10 * time.Second
	}
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = 5 * time.Second
	}
	if c.Refresh.Concurrency == 0 {
		c.Refresh.Concurrency = 8
	}
	if c.Refresh.MinSuccess == 0 {
		c.Refresh.MinSuccess = 5
	}
	if c.Alerts.Interval == 0 {
		c.Alerts.Interval = time.Minute
	}
	if c.Notifications.FlushInterval == 0 {
		c.Notifications.FlushInterval = 30 * time.Second
	}
	if c.Notifications.RetentionDays == 0 {
		c.Notifications.RetentionDays = 30
	}
	if c.Broadcast.Interval == 0 {
		c.Broadcast.Interval = 5 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Quotes.DefaultSymbols) == 0 {
		return fmt.Errorf("quotes.default_symbols cannot be empty")
	}
	if c.Quotes.APIURL == "" {
		return fmt.Errorf("quotes.api_url is required")
	}
	if c.Refresh.Interval < time.Second {
		return fmt.Errorf("refresh.interval must be at least 1s, got %s", c.Refresh.Interval)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.History.Enabled && c.History.Host == "" {
		return fmt.Errorf("history.host is required when history is enabled")
	}
	return nil
}

func splitHostPort(addr string, defPort int) (string, int) {
	host := addr
	port := defPort
	if i := strings.LastIndexByte(addr, ':'); i > 0 {
		host = addr[:i]
		if p, err := parsePort(addr[i+1:]); err == nil {
			port = p
		}
	}
	return host, port
}

func parsePort(s string) (int, error) {
	var p int
	_, err := fmt.Sscanf(s, "%d", &p)
	return p, err
}
