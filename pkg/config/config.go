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
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Binance struct {
		WebSocketURL      string        `yaml:"websocket_url"`
		RestURL           string        `yaml:"rest_url"`
		Symbols           []string      `yaml:"symbols"`
		Timeframes        []string      `yaml:"timeframes"`
		MaxStreamsPerConn int           `yaml:"max_streams_per_conn"`
		BackoffBase       time.Duration `yaml:"backoff_base"`
		BackoffMax        time.Duration `yaml:"backoff_max"`
		HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
		PongTimeout       time.Duration `yaml:"pong_timeout"`
	} `yaml:"binance"`
	Classifier struct {
		RefSymbol string  `yaml:"ref_symbol"`
		Timeframe string  `yaml:"timeframe"`
		VolBand   float64 `yaml:"vol_band"`
		TrendBand float64 `yaml:"trend_band"`
	} `yaml:"classifier"`
	Selector struct {
		UserID       string        `yaml:"user_id"`
		Interval     time.Duration `yaml:"interval"`
		PerfCacheTTL time.Duration `yaml:"perf_cache_ttl"`
	} `yaml:"selector"`
	Backfill struct {
		Limit           int           `yaml:"limit"`
		InterBatchDelay time.Duration `yaml:"inter_batch_delay"`
	} `yaml:"backfill"`
	CandleWriter struct {
		BatchSize     int           `yaml:"batch_size"`
		FlushInterval time.Duration `yaml:"flush_interval"`
	} `yaml:"candle_writer"`
	Kafka struct {
		Enabled         bool     `yaml:"enabled"`
		Brokers         []string `yaml:"brokers"`
		SelectionsTopic string   `yaml:"selections_topic"`
		OutcomesTopic   string   `yaml:"outcomes_topic"`
		RequiredAcks    int      `yaml:"required_acks"`
		Compression     string   `yaml:"compression"`
		Producer        struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
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
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TickTTL  time.Duration `yaml:"tick_ttl"`
	} `yaml:"redis"`
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

	// Validate required fields
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

	// Override with environment variables
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Binance.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("BINANCE_WS_URL"); v != "" {
		c.Binance.WebSocketURL = v
	}
	if v := os.Getenv("BINANCE_REST_URL"); v != "" {
		c.Binance.RestURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("SELECTOR_USER_ID"); v != "" {
		c.Selector.UserID = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Binance.WebSocketURL == "" {
		return fmt.Errorf("binance.websocket_url is required")
	}
	if c.Binance.RestURL == "" {
		return fmt.Errorf("binance.rest_url is required")
	}
	if len(c.Binance.Symbols) == 0 {
		return fmt.Errorf("binance.symbols cannot be empty")
	}
	if len(c.Binance.Timeframes) == 0 {
		return fmt.Errorf("binance.timeframes cannot be empty")
	}
	for _, tf := range c.Binance.Timeframes {
		switch tf {
		case "1m", "5m", "15m", "1h":
		default:
			return fmt.Errorf("binance.timeframes: unsupported timeframe '%s'", tf)
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	return nil
}
