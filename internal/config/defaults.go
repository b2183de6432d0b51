package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort      = 8080
	DefaultGRPCPort        = 9090
	DefaultServerMode      = "release"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultMaxBodySize     = 1 << 20
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRateLimitBurst  = 20

	DefaultLoPPM            = -1.0
	DefaultHiPPM            = 15.0
	DefaultPoints           = 65536
	DefaultBaseLineWidth    = 0.001
	DefaultTailEpsilon      = 1e-7
	DefaultMinWindow        = 4
	DefaultPaddingPPM       = 0.5
	DefaultBroadeningFactor = 20.0

	DefaultTolerancePPM = 0.03

	DefaultMaxReportBytes = 64 << 10
	DefaultCacheTTL       = time.Hour
	DefaultHistoryLimit   = 50

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "nmrcheck"
	DefaultDBMaxConns = 10

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "nmrcheck:"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "nmr.analysis.completed"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "nmr-spectra"
	DefaultPresignExpiry = 15 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "nmrcheck"
)

// NewDefaultConfig returns a Config with every field at its default.  All
// infrastructure sections are disabled.
func NewDefaultConfig() *Config {
	cfg := &Config{
		Render: RenderConfig{
			LoPPM:            DefaultLoPPM,
			HiPPM:            DefaultHiPPM,
			PaddingPPM:       DefaultPaddingPPM,
			BroadeningFactor: DefaultBroadeningFactor,
		},
		Classifier: ClassifierConfig{TolerancePPM: DefaultTolerancePPM},
		Metrics:    MetricsConfig{Enabled: true},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-value field in cfg with the default.
// Fields that have already been set (non-zero values) are left unchanged so
// that explicit configuration always wins.  Render bounds, padding and
// classifier tolerance accept zero as a real value; they are defaulted
// through viper instead (see registerDefaults).
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = DefaultGRPCPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.RateLimitRPS > 0 && cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = DefaultRateLimitBurst
	}

	// ── Render ────────────────────────────────────────────────────────────────
	if cfg.Render.LoPPM == 0 && cfg.Render.HiPPM == 0 {
		cfg.Render.LoPPM, cfg.Render.HiPPM = DefaultLoPPM, DefaultHiPPM
	}
	if cfg.Render.Points == 0 {
		cfg.Render.Points = DefaultPoints
	}
	if cfg.Render.BaseLineWidth == 0 {
		cfg.Render.BaseLineWidth = DefaultBaseLineWidth
	}
	if cfg.Render.TailEpsilon == 0 {
		cfg.Render.TailEpsilon = DefaultTailEpsilon
	}
	if cfg.Render.MinWindow == 0 {
		cfg.Render.MinWindow = DefaultMinWindow
	}
	if cfg.Render.BroadeningFactor == 0 {
		cfg.Render.BroadeningFactor = DefaultBroadeningFactor
	}

	// ── Analysis ──────────────────────────────────────────────────────────────
	if cfg.Analysis.MaxReportBytes == 0 {
		cfg.Analysis.MaxReportBytes = DefaultMaxReportBytes
	}
	if cfg.Analysis.CacheTTL == 0 {
		cfg.Analysis.CacheTTL = DefaultCacheTTL
	}
	if cfg.Analysis.HistoryLimit == 0 {
		cfg.Analysis.HistoryLimit = DefaultHistoryLimit
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	// DB is an int; 0 is a valid explicit value and also the default.

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.RequiredAcks == "" {
		cfg.Kafka.RequiredAcks = "one"
	}
	if cfg.Kafka.MaxAttempts == 0 {
		cfg.Kafka.MaxAttempts = 3
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = DefaultPresignExpiry
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// registerDefaults seeds v with the defaults whose zero value is meaningful.
// Registering a key also lets AutomaticEnv resolve it during Unmarshal.
func registerDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.grpc_port", d.Server.GRPCPort)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.max_body_size", d.Server.MaxBodySize)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.rate_limit_rps", d.Server.RateLimitRPS)
	v.SetDefault("server.rate_limit_burst", d.Server.RateLimitBurst)
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("render.lo_ppm", d.Render.LoPPM)
	v.SetDefault("render.hi_ppm", d.Render.HiPPM)
	v.SetDefault("render.points", d.Render.Points)
	v.SetDefault("render.base_line_width", d.Render.BaseLineWidth)
	v.SetDefault("render.tail_epsilon", d.Render.TailEpsilon)
	v.SetDefault("render.min_window", d.Render.MinWindow)
	v.SetDefault("render.padding_ppm", d.Render.PaddingPPM)
	v.SetDefault("render.broadening_factor", d.Render.BroadeningFactor)

	v.SetDefault("classifier.tolerance_ppm", d.Classifier.TolerancePPM)
	v.SetDefault("validator.strict_coupling_count", false)

	v.SetDefault("analysis.max_report_bytes", d.Analysis.MaxReportBytes)
	v.SetDefault("analysis.cache_ttl", d.Analysis.CacheTTL)
	v.SetDefault("analysis.history_limit", d.Analysis.HistoryLimit)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.db_name", d.Database.DBName)
	v.SetDefault("database.ssl_mode", d.Database.SSLMode)
	v.SetDefault("database.max_conns", d.Database.MaxConns)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", d.Redis.KeyPrefix)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.topic", d.Kafka.Topic)
	v.SetDefault("kafka.required_acks", d.Kafka.RequiredAcks)
	v.SetDefault("kafka.max_attempts", d.Kafka.MaxAttempts)

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", d.MinIO.Endpoint)
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", d.MinIO.Bucket)
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.presign_expiry", d.MinIO.PresignExpiry)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
}

//Personal.AI order the ending
