package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration. Values come from defaults, then an optional
// YAML file, then environment variables.
type Config struct {
	Server   Server         `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Log      LogConfig      `yaml:"log"`
	Outbox   OutboxConfig   `yaml:"outbox"`

	// TermCacheTTL bounds how long concept display terms stay in Redis.
	TermCacheTTL time.Duration `yaml:"term_cache_ttl"`
	// DefaultBranch is created on startup when missing.
	DefaultBranch string `yaml:"default_branch"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr string `yaml:"addr"`
	// AdminToken guards the /admin routes; empty leaves them open.
	AdminToken string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig is empty-URL disabled.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	Partitions        int32    `yaml:"partitions"`
	ReplicationFactor int16    `yaml:"replication_factor"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type OutboxConfig struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
}

// Default returns the configuration used for local development.
func Default() Config {
	return Config{
		Server: Server{Addr: ":8080"},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic:             "mrcm.audit",
			Partitions:        3,
			ReplicationFactor: 1,
		},
		Log:           LogConfig{Level: "info", Format: "json"},
		Outbox:        OutboxConfig{Interval: 2 * time.Second, BatchSize: 100},
		TermCacheTTL:  10 * time.Minute,
		DefaultBranch: "MAIN",
	}
}

// Load reads the optional YAML file at path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a Config from defaults and environment variables only.
func FromEnv() (Config, error) {
	return Load("")
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "MRCM_ADDR")
	setString(&cfg.Server.AdminToken, "MRCM_ADMIN_TOKEN")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Kafka.Topic, "KAFKA_AUDIT_TOPIC")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.DefaultBranch, "MRCM_DEFAULT_BRANCH")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if err := setDuration(&cfg.TermCacheTTL, "TERM_CACHE_TTL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Outbox.Interval, "OUTBOX_INTERVAL"); err != nil {
		return err
	}
	if v := os.Getenv("OUTBOX_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OUTBOX_BATCH_SIZE: %w", err)
		}
		cfg.Outbox.BatchSize = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
