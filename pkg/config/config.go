// Package config loads the engine configuration from a YAML file with VSM_*
// environment overrides. Malformed overrides and out-of-range values fail
// at start-up rather than on first use; enumerated retrieval settings are
// parsed by the packages that own them.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// RetrievalConfig selects the scoring defaults used when a request does not
// name its own.
type RetrievalConfig struct {
	Method    string         `yaml:"method"`
	Weighting string         `yaml:"weighting"`
	TopK      int            `yaml:"topK"`
	Workers   int            `yaml:"workers"`
	Feedback  FeedbackConfig `yaml:"feedback"`
}

type FeedbackConfig struct {
	Strategy string  `yaml:"strategy"`
	Weight   float64 `yaml:"weight"`
}

// CorpusConfig locates the documents, queries and judgments on disk.
type CorpusConfig struct {
	DocumentsDir  string `yaml:"documentsDir"`
	DocumentsGlob string `yaml:"documentsGlob"`
	QueriesDir    string `yaml:"queriesDir"`
	JudgmentsFile string `yaml:"judgmentsFile"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// MaxResults caps the k a client may request.
	MaxResults     int      `yaml:"maxResults"`
	RateLimitRPS   float64  `yaml:"rateLimitRPS"`
	RateLimitBurst int      `yaml:"rateLimitBurst"`
	CORSOrigins    []string `yaml:"corsOrigins"`
	// WatchCorpus rebuilds the collection when the documents change.
	WatchCorpus bool `yaml:"watchCorpus"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

type KafkaTopics struct {
	SearchEvents   string `yaml:"searchEvents"`
	EvaluationRuns string `yaml:"evaluationRuns"`
}

// RedisConfig holds Redis connection and result-cache parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// AnalyticsConfig configures the stats service that consumes search events.
type AnalyticsConfig struct {
	Port             int           `yaml:"port"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Retrieval: RetrievalConfig{
			Method:    "cosine",
			Weighting: "tf-idf",
			TopK:      10,
			Workers:   runtime.NumCPU(),
			Feedback: FeedbackConfig{
				Strategy: "concatenate",
				Weight:   0.5,
			},
		},
		Corpus: CorpusConfig{
			DocumentsDir:  "data/collection",
			QueriesDir:    "data/queries",
			JudgmentsFile: "data/rel.tsv",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxResults:      100,
			RateLimitRPS:    50,
			RateLimitBurst:  100,
			CORSOrigins:     []string{"*"},
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "vectorsearch",
			User:            "vectorsearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "vectorsearch-stats",
			Topics: KafkaTopics{
				SearchEvents:   "search-events",
				EvaluationRuns: "evaluation-runs",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
		Analytics: AnalyticsConfig{
			Port:             8081,
			SnapshotInterval: time.Minute,
		},
	}
}

// Validate checks required settings and numeric bounds.
func (c *Config) Validate() error {
	if c.Retrieval.Method == "" || c.Retrieval.Weighting == "" || c.Retrieval.Feedback.Strategy == "" {
		return apperrors.New(apperrors.ErrInvalidConfig, "retrieval", "method, weighting and feedback strategy are required")
	}
	if c.Retrieval.TopK <= 0 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "retrieval.topK", "must be positive, got %d", c.Retrieval.TopK)
	}
	if w := c.Retrieval.Feedback.Weight; math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "retrieval.feedback.weight", "must be a non-negative number, got %v", w)
	}
	if c.Retrieval.Workers < 0 {
		return apperrors.New(apperrors.ErrInvalidConfig, "retrieval.workers", "must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "server.port", "invalid port %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 0 {
		return apperrors.New(apperrors.ErrInvalidConfig, "server.rateLimitRPS", "must not be negative")
	}
	if c.Analytics.Port <= 0 || c.Analytics.Port > 65535 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "analytics.port", "invalid port %d", c.Analytics.Port)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return apperrors.New(apperrors.ErrInvalidConfig, "kafka.brokers", "at least one broker is required")
	}
	return nil
}

// applyEnvOverrides reads VSM_* environment variables and overrides the
// corresponding config fields. A value that does not parse is an error.
func applyEnvOverrides(cfg *Config) error {
	var errs []error
	invalid := func(key, v string, err error) {
		errs = append(errs, apperrors.Newf(apperrors.ErrInvalidConfig, key, "cannot parse %s=%q: %v", key, v, err))
	}
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				invalid(key, v, err)
				return
			}
			*dst = n
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				invalid(key, v, err)
				return
			}
			*dst = f
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				invalid(key, v, err)
				return
			}
			*dst = b
		}
	}

	setString("VSM_RETRIEVAL_METHOD", &cfg.Retrieval.Method)
	setString("VSM_RETRIEVAL_WEIGHTING", &cfg.Retrieval.Weighting)
	setInt("VSM_RETRIEVAL_TOPK", &cfg.Retrieval.TopK)
	setInt("VSM_RETRIEVAL_WORKERS", &cfg.Retrieval.Workers)
	setString("VSM_FEEDBACK_STRATEGY", &cfg.Retrieval.Feedback.Strategy)
	setFloat("VSM_FEEDBACK_WEIGHT", &cfg.Retrieval.Feedback.Weight)

	setString("VSM_CORPUS_DOCUMENTS_DIR", &cfg.Corpus.DocumentsDir)
	setString("VSM_CORPUS_DOCUMENTS_GLOB", &cfg.Corpus.DocumentsGlob)
	setString("VSM_CORPUS_QUERIES_DIR", &cfg.Corpus.QueriesDir)
	setString("VSM_CORPUS_JUDGMENTS_FILE", &cfg.Corpus.JudgmentsFile)

	setInt("VSM_SERVER_PORT", &cfg.Server.Port)
	setInt("VSM_SERVER_MAX_RESULTS", &cfg.Server.MaxResults)
	setBool("VSM_SERVER_WATCH_CORPUS", &cfg.Server.WatchCorpus)
	setFloat("VSM_SERVER_RATE_LIMIT_RPS", &cfg.Server.RateLimitRPS)
	if v := os.Getenv("VSM_SERVER_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}
	setInt("VSM_ANALYTICS_PORT", &cfg.Analytics.Port)

	setBool("VSM_POSTGRES_ENABLED", &cfg.Postgres.Enabled)
	setString("VSM_POSTGRES_HOST", &cfg.Postgres.Host)
	setInt("VSM_POSTGRES_PORT", &cfg.Postgres.Port)
	setString("VSM_POSTGRES_DATABASE", &cfg.Postgres.Database)
	setString("VSM_POSTGRES_USER", &cfg.Postgres.User)
	setString("VSM_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	setString("VSM_POSTGRES_SSLMODE", &cfg.Postgres.SSLMode)

	setBool("VSM_KAFKA_ENABLED", &cfg.Kafka.Enabled)
	if v := os.Getenv("VSM_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}

	setBool("VSM_REDIS_ENABLED", &cfg.Redis.Enabled)
	setString("VSM_REDIS_ADDR", &cfg.Redis.Addr)
	setString("VSM_REDIS_PASSWORD", &cfg.Redis.Password)

	setString("VSM_LOGGING_LEVEL", &cfg.Logging.Level)
	setString("VSM_LOGGING_FORMAT", &cfg.Logging.Format)
	setBool("VSM_METRICS_ENABLED", &cfg.Metrics.Enabled)
	setInt("VSM_METRICS_PORT", &cfg.Metrics.Port)
	return errors.Join(errs...)
}
