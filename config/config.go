package config

import (
	"fmt"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server struct {
		Env      string `envconfig:"ENV"`
		LogLevel string `envconfig:"LOG_LEVEL"`
		Port     string `envconfig:"PORT"`
		Host     string `envconfig:"HOST"`
		Shutdown struct {
			CleanupPeriodSeconds int64 `envconfig:"CLEANUP_PERIOD_SECONDS"`
			GracePeriodSeconds   int64 `envconfig:"GRACE_PERIOD_SECONDS"`
		} `envconfig:"SHUTDOWN"`
	} `envconfig:"SERVER"`

	App struct {
		Name     string `envconfig:"APP_NAME"`
		Timezone string `envconfig:"TIMEZONE"`
		CORS     struct {
			AllowCredentials bool     `envconfig:"ALLOW_CREDENTIALS"`
			AllowedHeaders   []string `envconfig:"ALLOWED_HEADERS"`
			AllowedMethods   []string `envconfig:"ALLOWED_METHODS"`
			AllowedOrigins   []string `envconfig:"ALLOWED_ORIGINS"`
			Enable           bool     `envconfig:"ENABLE"`
			MaxAgeSeconds    int      `envconfig:"MAX_AGE_SECONDS"`
		} `envconfig:"CORS"`
		RateLimiter struct {
			Enable        bool `envconfig:"ENABLE"`
			MaxRequests   int  `envconfig:"MAX_REQUESTS"`
			WindowSeconds int  `envconfig:"WINDOW_SECONDS"`
		} `envconfig:"RATE_LIMITER"`
		APIKey string `envconfig:"API_KEY"`
	} `envconfig:"APP"`

	Booking struct {
		ReservationTTLSeconds  int `envconfig:"RESERVATION_TTL_SECONDS" default:"120"`
		IdempotencyTTLSeconds  int `envconfig:"IDEMPOTENCY_TTL_SECONDS" default:"86400"`
		SweepIntervalSeconds   int `envconfig:"SWEEP_INTERVAL_SECONDS"  default:"60"`
		PublishTimeoutMillis   int `envconfig:"PUBLISH_TIMEOUT_MILLIS"  default:"2000"`
		AppointmentListMaxSize int `envconfig:"APPOINTMENT_LIST_MAX_SIZE" default:"100"`
	} `envconfig:"BOOKING"`

	Cache struct {
		Redis struct {
			Primary  RedisEndpoint `envconfig:"PRIMARY"`
			PoolSize int           `envconfig:"POOL_SIZE" default:"10"`
		} `envconfig:"REDIS"`
		TTL int `envconfig:"TTL"`
	} `envconfig:"CACHE"`

	JWT struct {
		AccessSecret string `envconfig:"ACCESS_SECRET"`
	} `envconfig:"JWT"`

	DB struct {
		Postgres struct {
			MaxRetry               int              `envconfig:"MAX_RETRY"                 default:"5"`
			RetryWaitTime          int              `envconfig:"RETRY_WAIT_TIME"           default:"2"`
			MaxOpenConns           int              `envconfig:"MAX_OPEN_CONNS"            default:"20"`
			MaxIdleConns           int              `envconfig:"MAX_IDLE_CONNS"            default:"10"`
			ConnMaxLifetimeSeconds int              `envconfig:"CONN_MAX_LIFETIME_SECONDS" default:"300"`
			MigrationTable         string           `envconfig:"MIGRATION_TABLE"`
			AutoMigrate            bool             `envconfig:"AUTO_MIGRATE"`
			Prefix                 string           `envconfig:"PREFIX"`
			Read                   PostgresEndpoint `envconfig:"READ"`
			Write                  PostgresEndpoint `envconfig:"WRITE"`
		} `envconfig:"POSTGRES"`
	} `envconfig:"DB"`

	Kafka struct {
		Brokers       []string `envconfig:"BROKERS"`
		ConsumerGroup string   `envconfig:"CONSUMER_GROUP"`
		TopicPrefix   string   `envconfig:"TOPIC_PREFIX"`
		SASL          struct {
			Username string `envconfig:"USERNAME"`
			Password string `envconfig:"PASSWORD"`
		} `envconfig:"SASL"`
	} `envconfig:"KAFKA"`

	Event struct {
		// Driver selects the bus implementation: "kafka" or "memory".
		Driver string `envconfig:"DRIVER" default:"memory"`
	} `envconfig:"EVENT"`

	External struct {
		Otel struct {
			Endpoint string `envconfig:"ENDPOINT"`
		} `envconfig:"OTEL"`
		Capacity struct {
			BaseURL          string `envconfig:"BASE_URL"`
			TimeoutMillis    int    `envconfig:"TIMEOUT_MILLIS"     default:"2000"`
			MaxRetries       int    `envconfig:"MAX_RETRIES"        default:"3"`
			BaseDelayMillis  int    `envconfig:"BASE_DELAY_MILLIS"  default:"150"`
			FailureThreshold int    `envconfig:"FAILURE_THRESHOLD"  default:"5"`
			ResetTimeoutMs   int    `envconfig:"RESET_TIMEOUT_MS"   default:"5000"`
		} `envconfig:"CAPACITY"`
	} `envconfig:"EXTERNAL"`
}

// PostgresEndpoint is one side of the read/write database split.
type PostgresEndpoint struct {
	Host     string `envconfig:"HOST"`
	Port     string `envconfig:"PORT"`
	Username string `envconfig:"USER"`
	Password string `envconfig:"PASSWORD"`
	Name     string `envconfig:"NAME"`
	SSLMode  string `envconfig:"SSL_MODE" default:"disable"`
}

type RedisEndpoint struct {
	Host     string `envconfig:"HOST"`
	Port     string `envconfig:"PORT"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB"`
}

var (
	conf        Config
	once        sync.Once
	initialized bool
)

func Init() error {
	var err error

	once.Do(func() {
		err = godotenv.Load(".env")
		if err != nil {
			log.Warn().Err(err).Msg("Could not load .env file, continuing with existing environment variables")
		} else {
			log.Info().Msg("Successfully loaded variables from .env file into environment")
		}

		err = envconfig.Process("", &conf)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to process environment variables")
		}

		initialized = true

		log.Info().Msg("Service configuration initialized successfully")
	})

	if err != nil {
		return fmt.Errorf("loading .env file: %w", err)
	}

	return nil
}

func Get() *Config {
	if !initialized {
		if err := Init(); err != nil {
			log.Warn().Err(err).Msg("Configuration initialized without .env file")
		}
	}

	return &conf
}
