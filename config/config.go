package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName    string `env:"APP_NAME" env-default:"clover"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	PrettyLogs bool   `env:"PRETTY_LOGS" env-default:"false"`
	// Directory reports and metrics are written to
	ResultsDir string `env:"RESULTS_DIR" env-default:"results"`

	// Search API endpoint
	SearchURL string `env:"SEARCH_API_URL" env-default:"" validate:"omitempty,url"`
	// Bearer token sent with every search request
	SearchToken string `env:"SEARCH_API_TOKEN" env-default:""`
	// Per-request timeout
	SearchTimeout time.Duration `env:"SEARCH_API_TIMEOUT" env-default:"30s"`
	// Maximum hits requested per query
	SearchLimit int `env:"SEARCH_API_LIMIT" env-default:"100" validate:"gt=0"`
	// Schemas searched when the entity type is unknown
	SearchSchemas []string `env:"SEARCH_API_SCHEMAS" env-default:"col,rights,mex,watch,soe,pep,sanction"`
	// Search strategies requested from the API
	SearchTypes []string `env:"SEARCH_API_TYPES" env-default:"keyword,phonetic,similarity"`
	// JMESPath expression locating the hit list in a response
	SearchResultsExpression string `env:"SEARCH_API_RESULTS_EXPRESSION" env-default:"results || data || hits"`
	// Retries after the first attempt on transport errors, 429 and 5xx
	SearchMaxRetries int `env:"SEARCH_API_MAX_RETRIES" env-default:"2" validate:"gte=0"`
	// Initial retry backoff, doubled per attempt
	SearchRetryBackoff time.Duration `env:"SEARCH_API_RETRY_BACKOFF" env-default:"500ms"`
	// Client side rate limit, 0 disables
	SearchRequestsPerSecond float64 `env:"SEARCH_API_REQUESTS_PER_SECOND" env-default:"5" validate:"gte=0"`
	// Maximum accepted response body size in bytes
	SearchMaxResponseSize int `env:"SEARCH_API_MAX_RESPONSE_SIZE" env-default:"10485760" validate:"gt=0"`

	// Runner settings
	// Cases executed concurrently, 1 runs sequentially
	Workers int `env:"RUNNER_WORKERS" env-default:"1" validate:"gte=1"`
	// Per-case timeout
	CaseTimeout time.Duration `env:"RUNNER_CASE_TIMEOUT" env-default:"2m"`
	// Pause between probe injection requests
	ProbeDelay time.Duration `env:"PROBE_DELAY" env-default:"500ms"`
	// Pause between probe edge case requests
	ProbeEdgeDelay time.Duration `env:"PROBE_EDGE_DELAY" env-default:"300ms"`
	// Report formats written after each run
	ReportFormats []string `env:"REPORT_FORMATS" env-default:"xlsx,html,json" validate:"dive,oneof=xlsx html json"`

	// Response cache
	CacheEnabled bool `env:"CACHE_ENABLED" env-default:"false"`
	// Redis host
	RedisHost string `env:"REDIS_HOST" env-default:"localhost"`
	// Redis port
	RedisPort int `env:"REDIS_PORT" env-default:"6379"`
	// Redis password
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	// Redis database number
	RedisDB int `env:"REDIS_DB" env-default:"0"`
	// Cached response lifetime
	CacheTTL time.Duration `env:"CACHE_TTL" env-default:"1h"`
	// Cache key prefix
	CachePrefix string `env:"CACHE_PREFIX" env-default:"clover:search:"`

	// Run events
	EventsEnabled bool `env:"EVENTS_ENABLED" env-default:"false"`
	// Kafka brokers (comma-separated)
	KafkaBrokers string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	// Kafka topic for case and run events
	KafkaEventsTopic string `env:"KAFKA_EVENTS_TOPIC" env-default:"clover-runs"`

	// Write prometheus metrics to ResultsDir after each run
	MetricsEnabled bool `env:"METRICS_ENABLED" env-default:"true"`
}

// Load reads an optional .env file, binds the environment and validates the result.
// A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

