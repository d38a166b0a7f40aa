package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Auth        AuthConfig        `yaml:"auth"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Moderation  ModerationConfig  `yaml:"moderation"`
	Translation TranslationConfig `yaml:"translation"`
	MathEngine  MathEngineConfig  `yaml:"math_engine"`
	Queue       QueueConfig       `yaml:"queue"`
	Log         LogConfig         `yaml:"log"`
	CORS        CORSConfig        `yaml:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	RateLimitPerMin int           `yaml:"rate_limit_per_min" env:"SERVER_RATE_LIMIT_PER_MIN" env-default:"240"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// RedisConfig holds the key-value store connection settings. Redis backs the
// clustering snapshot cache, the translation cache, and the task queue.
type RedisConfig struct {
	URL          string        `yaml:"url"           env:"REDIS_URL"           env-default:"redis://localhost:6379/0"`
	SnapshotTTL  time.Duration `yaml:"snapshot_ttl"  env:"REDIS_SNAPSHOT_TTL"  env-default:"30s"`
	TranslateTTL time.Duration `yaml:"translate_ttl" env:"REDIS_TRANSLATE_TTL" env-default:"720h"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	JWTIssuer string        `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"agora"`
	TokenTTL  time.Duration `yaml:"token_ttl"  env:"AUTH_TOKEN_TTL"  env-default:"720h"`
}

// SchedulerConfig holds next-comment selection policy.
type SchedulerConfig struct {
	// TopicPoolRatio is the probability of trying the participant's topic
	// agenda before the priority pool. 0 disables the agenda pool entirely.
	TopicPoolRatio float64 `yaml:"topic_pool_ratio" env:"SCHEDULER_TOPIC_POOL_RATIO" env-default:"0"`
}

// ModerationConfig holds the external classifier endpoints.
type ModerationConfig struct {
	BaseURL string        `yaml:"base_url" env:"MODERATION_BASE_URL"`
	Timeout time.Duration `yaml:"timeout"  env:"MODERATION_TIMEOUT" env-default:"5s"`
}

// TranslationConfig holds the translation service settings.
type TranslationConfig struct {
	BaseURL string        `yaml:"base_url" env:"TRANSLATION_BASE_URL"`
	Timeout time.Duration `yaml:"timeout"  env:"TRANSLATION_TIMEOUT" env-default:"10s"`
}

// MathEngineConfig holds the clustering/opinion-space engine settings.
type MathEngineConfig struct {
	BaseURL string        `yaml:"base_url" env:"MATH_ENGINE_BASE_URL"`
	Timeout time.Duration `yaml:"timeout"  env:"MATH_ENGINE_TIMEOUT" env-default:"5s"`
}

// QueueConfig holds background task settings.
type QueueConfig struct {
	Concurrency int `yaml:"concurrency" env:"QUEUE_CONCURRENCY" env-default:"10"`
	// BookkeepingDelay defers derived-state updates slightly so bursts of
	// votes coalesce into fewer tasks.
	BookkeepingDelay time.Duration `yaml:"bookkeeping_delay" env:"QUEUE_BOOKKEEPING_DELAY" env-default:"2s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PUT,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}
