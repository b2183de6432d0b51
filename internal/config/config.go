// Package config defines all configuration structures for the NMR report
// checker.  No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"math"
	"net"
	"net/url"
	"strconv"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP and gRPC server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RateLimitRPS is the per-client request rate on /api/v1. Zero disables limiting.
	RateLimitRPS    float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
	// CORSOrigins enables CORS on the API for these origins ("*" and "*.example.org" allowed).
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// RenderConfig holds spectrum synthesis parameters.
type RenderConfig struct {
	LoPPM            float64 `mapstructure:"lo_ppm"`
	HiPPM            float64 `mapstructure:"hi_ppm"`
	Points           int     `mapstructure:"points"`
	BaseLineWidth    float64 `mapstructure:"base_line_width"`
	TailEpsilon      float64 `mapstructure:"tail_epsilon"`
	MinWindow        int     `mapstructure:"min_window"`
	PaddingPPM       float64 `mapstructure:"padding_ppm"`
	BroadeningFactor float64 `mapstructure:"broadening_factor"`
}

// ClassifierConfig holds impurity matching parameters.
type ClassifierConfig struct {
	TolerancePPM float64 `mapstructure:"tolerance_ppm"`
}

// ValidatorConfig toggles optional format rules.
type ValidatorConfig struct {
	StrictCouplingCount bool `mapstructure:"strict_coupling_count"`
}

// AnalysisConfig holds service-level limits.
type AnalysisConfig struct {
	MaxReportBytes int           `mapstructure:"max_report_bytes"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	HistoryLimit   int           `mapstructure:"history_limit"`
}

// DatabaseConfig holds PostgreSQL connection parameters for analysis history.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig holds Redis connection parameters for the result cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	RequiredAcks string        `mapstructure:"required_acks"` // "none" | "one" | "all"
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// MetricsConfig holds Prometheus parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Subsystem string `mapstructure:"subsystem"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.  Every infrastructure adapter
// and the analysis service read their settings from the relevant sub-struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Render     RenderConfig     `mapstructure:"render"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Validator  ValidatorConfig  `mapstructure:"validator"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.  Disabled infrastructure sections
// are not checked.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("config: server.grpc_port %d is out of range [0, 65535]", c.Server.GRPCPort)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("config: server.rate_limit_rps must not be negative, got %g", c.Server.RateLimitRPS)
	}

	// Render
	if !finite(c.Render.LoPPM) || !finite(c.Render.HiPPM) {
		return fmt.Errorf("config: render.lo_ppm and render.hi_ppm must be finite")
	}
	if c.Render.LoPPM == c.Render.HiPPM {
		return fmt.Errorf("config: render.lo_ppm and render.hi_ppm must differ, both are %g", c.Render.LoPPM)
	}
	if c.Render.Points < 2 {
		return fmt.Errorf("config: render.points must be ≥ 2, got %d", c.Render.Points)
	}
	if c.Render.BaseLineWidth <= 0 {
		return fmt.Errorf("config: render.base_line_width must be > 0, got %g", c.Render.BaseLineWidth)
	}
	if c.Render.TailEpsilon <= 0 || c.Render.TailEpsilon >= 1 {
		return fmt.Errorf("config: render.tail_epsilon must be in (0, 1), got %g", c.Render.TailEpsilon)
	}

	// Classifier
	if c.Classifier.TolerancePPM < 0 {
		return fmt.Errorf("config: classifier.tolerance_ppm must be ≥ 0, got %g", c.Classifier.TolerancePPM)
	}

	// Analysis
	if c.Analysis.MaxReportBytes < 1 {
		return fmt.Errorf("config: analysis.max_report_bytes must be ≥ 1, got %d", c.Analysis.MaxReportBytes)
	}

	// Database
	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required")
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("config: database.max_conns must be ≥ 1, got %d", c.Database.MaxConns)
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	}

	// Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required")
		}
		switch c.Kafka.RequiredAcks {
		case "none", "one", "all":
		default:
			return fmt.Errorf("config: kafka.required_acks %q is invalid; expected none|one|all", c.Kafka.RequiredAcks)
		}
	}

	// MinIO
	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: minio.endpoint is required")
		}
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.bucket is required")
		}
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

// DSN returns the PostgreSQL connection string for the database section.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

//Personal.AI order the ending
