package domain

import "time"

// Config holds the complete Shrike configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Tier determines feature availability
	Tier Tier `json:"tier"`

	// Rules is the path to the typology rule document. Empty means the
	// builtin default rule set.
	Rules string `json:"rules"`

	// Classifier settings
	Classifier ClassifierConfig `json:"classifier"`

	// Enrichment settings (optional LLM layer)
	Enrichment EnrichmentConfig `json:"enrichment"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	EventBus   EventBusConfig   `json:"eventBus"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// ClassifierConfig controls per-item result shaping.
type ClassifierConfig struct {
	// IncludeDetails attaches per-typology detail and matched patterns.
	IncludeDetails bool `json:"includeDetails"`

	// IncludeFeatures attaches auxiliary text features, buzzwords,
	// CTA phrases, and sentiment indicators.
	IncludeFeatures bool `json:"includeFeatures"`

	// NormalizeScores attaches a per-item normalized score vector.
	NormalizeScores bool `json:"normalizeScores"`

	// Workers bounds batch classification parallelism.
	Workers int `json:"workers"`
}

// EnrichmentConfig controls the optional budget-gated LLM enhancement.
type EnrichmentConfig struct {
	Enabled     bool    `json:"enabled"`
	Endpoint    string  `json:"endpoint"`
	APIKey      string  `json:"-"`
	Model       string  `json:"model"`
	BudgetLimit float64 `json:"budgetLimit"` // USD per session
	TimeoutSecs int     `json:"timeoutSecs"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"serviceName"`
}

// Tier represents the product tier.
type Tier string

const (
	// TierCommunity is the free tier with SQLite + channels
	TierCommunity Tier = "community"

	// TierPro is the paid tier with PostgreSQL + NATS + Redis
	TierPro Tier = "pro"
)

// DefaultConfig returns a default configuration for Community tier.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Tier: TierCommunity,
		Classifier: ClassifierConfig{
			IncludeDetails:  true,
			IncludeFeatures: true,
			NormalizeScores: true,
			Workers:         8,
		},
		Enrichment: EnrichmentConfig{
			Enabled:     false,
			Model:       "gpt-4o-mini",
			BudgetLimit: 5.00,
			TimeoutSecs: 10,
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./shrike.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     5 * time.Minute,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "shrike",
		},
	}
}

// ProConfig returns a configuration for Pro tier.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierPro
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "shrike",
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Tracing.Enabled = true
	return cfg
}
