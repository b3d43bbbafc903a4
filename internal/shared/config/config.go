package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the runtime configuration of the travelhub API, assembled from the environment.
type Config struct {
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	PublicBaseURL  string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	ShutdownGrace  time.Duration
	MaxHeaderBytes int
	LogLevel       string
	CORSOrigins    []string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Kafka     KafkaConfig
	Email     EmailConfig
	Jobs      JobsConfig
	Inventory InventoryConfig
}

type DatabaseConfig struct {
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SlowQuery       time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	SeatHoldTTL    time.Duration
	CacheTTL       time.Duration
	HistoryTTL     time.Duration
	IdempotencyTTL time.Duration
	RefundLockTTL  time.Duration
}

type JWTConfig struct {
	Secret           string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
	Issuer           string
}

type RateLimitConfig struct {
	Enabled         bool
	WindowDuration  time.Duration
	DefaultRequests int
	PublicRequests  int
	AuthRequests    int
	CheckoutRequest int
	AdminRequests   int
	WhitelistedIPs  []string
}

// KafkaConfig controls the booking notification bus. With Enabled=false a no-op publisher is used.
type KafkaConfig struct {
	Enabled          bool
	Brokers          []string
	Topic            string
	ConsumerGroupID  string
	ConsumerWorkers  int
	BreakerThreshold int64
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	MaxRetries   int
	RetryBackoff time.Duration
}

type JobsConfig struct {
	Enabled             bool
	Concurrency         int
	CompleteDueSpec     string
	ExpirePremiumSpec   string
	ExpireUnpaidSpec    string
	UnpaidBookingTTL    time.Duration
	CompleteDueBatchCap int
}

// InventoryConfig drives the synthetic seat generators for non-event verticals.
type InventoryConfig struct {
	Seed              uint64
	AvailabilityRatio float64
	LayoutCacheTTL    time.Duration
}

// Load reads configuration from environment variables, falling back to development defaults.
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", ""),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		ShutdownGrace:  getDurationEnv("SHUTDOWN_GRACE", 10*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20),
		LogLevel:       getEnv("LOG_LEVEL", "debug"),
		CORSOrigins:    getStringSliceEnv("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "travelhub"),
			User:            getEnv("DB_USER", "travelhub"),
			Password:        getEnv("DB_PASSWORD", "travelhub"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			SlowQuery:       getDurationEnv("DB_SLOW_QUERY", 200*time.Millisecond),
		},

		Redis: RedisConfig{
			Host:           getEnv("REDIS_HOST", "localhost"),
			Port:           getEnv("REDIS_PORT", "6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getIntEnv("REDIS_DB", 0),
			SeatHoldTTL:    getDurationEnv("REDIS_SEAT_HOLD_TTL", 10*time.Minute),
			CacheTTL:       getDurationEnv("REDIS_CACHE_TTL", time.Hour),
			HistoryTTL:     getDurationEnv("REDIS_HISTORY_TTL", 2*time.Minute),
			IdempotencyTTL: getDurationEnv("REDIS_IDEMPOTENCY_TTL", 24*time.Hour),
			RefundLockTTL:  getDurationEnv("REDIS_REFUND_LOCK_TTL", 15*time.Second),
		},

		JWT: JWTConfig{
			Secret:           getEnv("JWT_SECRET", "change-me-in-production"),
			AccessExpiresIn:  getDurationEnvSeconds("JWT_EXPIRES_IN", 15*time.Minute),
			RefreshExpiresIn: getDurationEnvSeconds("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
			Issuer:           getEnv("JWT_ISSUER", "travelhub"),
		},

		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:  getDurationEnv("RATE_LIMIT_WINDOW_DURATION", time.Minute),
			DefaultRequests: getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:  getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 120),
			AuthRequests:    getIntEnv("RATE_LIMIT_AUTH_REQUESTS", 10),
			CheckoutRequest: getIntEnv("RATE_LIMIT_CHECKOUT_REQUESTS", 20),
			AdminRequests:   getIntEnv("RATE_LIMIT_ADMIN_REQUESTS", 200),
			WhitelistedIPs:  getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		Kafka: KafkaConfig{
			Enabled:          getBoolEnv("KAFKA_ENABLED", false),
			Brokers:          getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:            getEnv("KAFKA_BOOKING_TOPIC", "travelhub.booking-events"),
			ConsumerGroupID:  getEnv("KAFKA_CONSUMER_GROUP_ID", "travelhub-notification-workers"),
			ConsumerWorkers:  getIntEnv("KAFKA_CONSUMER_WORKERS", 2),
			BreakerThreshold: getInt64Env("KAFKA_BREAKER_THRESHOLD", 5),
		},

		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@travelhub.local"),
			FromName:     getEnv("FROM_NAME", "TravelHub"),
			MaxRetries:   getIntEnv("EMAIL_MAX_RETRIES", 3),
			RetryBackoff: getDurationEnv("EMAIL_RETRY_BACKOFF", time.Second),
		},

		Jobs: JobsConfig{
			Enabled:             getBoolEnv("JOBS_ENABLED", true),
			Concurrency:         getIntEnv("JOBS_CONCURRENCY", 5),
			CompleteDueSpec:     getEnv("JOBS_COMPLETE_DUE_SPEC", "@every 15m"),
			ExpirePremiumSpec:   getEnv("JOBS_EXPIRE_PREMIUM_SPEC", "@every 1h"),
			ExpireUnpaidSpec:    getEnv("JOBS_EXPIRE_UNPAID_SPEC", "@every 5m"),
			UnpaidBookingTTL:    getDurationEnv("JOBS_UNPAID_BOOKING_TTL", 30*time.Minute),
			CompleteDueBatchCap: getIntEnv("JOBS_COMPLETE_DUE_BATCH", 500),
		},

		Inventory: InventoryConfig{
			Seed:              uint64(getInt64Env("INVENTORY_SEED", 20240601)),
			AvailabilityRatio: getFloatEnv("INVENTORY_AVAILABILITY_RATIO", 0.7),
			LayoutCacheTTL:    getDurationEnv("INVENTORY_LAYOUT_CACHE_TTL", 30*time.Minute),
		},
	}

	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

func buildDatabaseDSN(db DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getDurationEnvSeconds reads an integer number of seconds.
func getDurationEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

func getStringSliceEnv(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}

func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns e.g. "/api/v1".
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}

// DocumentURL builds an absolute (or base-relative) link to a booking document.
func (c *Config) DocumentURL(bookingID, kind string) string {
	return fmt.Sprintf("%s%s/bookings/%s/%s", c.PublicBaseURL, c.GetAPIBasePath(), bookingID, kind)
}
