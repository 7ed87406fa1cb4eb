package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	// NodeID seeds the snowflake generator; unique per replica.
	NodeID int64

	// AppBaseURL is the public origin of the employer wizard, used to build
	// gateway redirect callbacks.
	AppBaseURL string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Midtrans      MidtransConfig
	Payment       PaymentConfig
	Redis         RedisConfig
	Sweeper       SweeperConfig
	Observability ObservabilityConfig
}

type MidtransConfig struct {
	ServerKey    string
	ClientKey    string
	IsProduction bool
	// BaseURL overrides the Snap endpoint derived from IsProduction.
	BaseURL string
	Timeout time.Duration
}

type PaymentConfig struct {
	OrderIDPrefix string
	FinishURL     string
	PendingURL    string
	ErrorURL      string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration

	// Checkout limits transaction creation per employer. Zero disables it.
	CheckoutRatePerMinute float64
	CheckoutBurst         int
}

type SweeperConfig struct {
	Enabled  bool
	Schedule string
}

type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string

	// OtelEnabled is nil when unset so the environment decides.
	OtelEnabled       *bool
	OtelEndpoint      string
	OtelProtocol      string
	OtelSamplingRatio float64

	SlowQueryThreshold time.Duration
}

var defaults = map[string]any{
	"APP_SERVICE":       "hirehub",
	"APP_VERSION":       "0.1.0",
	"ENVIRONMENT":       "development",
	"HTTP_ADDR":         ":8080",
	"SNOWFLAKE_NODE_ID": 1,
	"APP_BASE_URL":      "http://localhost:3000",

	"DATABASE_TYPE":               "postgres",
	"DATABASE_HOST":               "localhost",
	"DATABASE_PORT":               "5432",
	"DATABASE_NAME":               "hirehub",
	"DATABASE_USER":               "postgres",
	"DATABASE_PASSWORD":           "postgres",
	"DATABASE_SSLMODE":            "disable",
	"DATABASE_MAX_IDLE_CONN":      5,
	"DATABASE_MAX_OPEN_CONN":      20,
	"DATABASE_CONN_MAX_LIFETIME":  300,
	"DATABASE_CONN_MAX_IDLE_TIME": 60,

	"MIDTRANS_IS_PRODUCTION": false,
	"MIDTRANS_TIMEOUT":       "15s",
	"ORDER_ID_PREFIX":        "plan",

	"REDIS_ENABLED":            false,
	"REDIS_ADDR":               "localhost:6379",
	"REDIS_DB":                 0,
	"WEBHOOK_LOCK_TTL":         "10s",
	"CHECKOUT_RATE_PER_MINUTE": 6,
	"CHECKOUT_BURST":           3,

	"BILLING_SWEEPER_ENABLED":  true,
	"BILLING_SWEEPER_SCHEDULE": "@every 15m",

	"LOG_LEVEL":                   "info",
	"LOG_FORMAT":                  "json",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "localhost:4317",
	"OTEL_EXPORTER_OTLP_PROTOCOL": "grpc",
	"OTEL_SAMPLING_RATIO":         0.1,
	"DB_SLOW_QUERY_THRESHOLD":     "200ms",
}

// Load reads configuration from the environment, after merging a local .env file.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	str := func(key string) string { return strings.TrimSpace(v.GetString(key)) }
	baseURL := strings.TrimRight(str("APP_BASE_URL"), "/")

	cfg := Config{
		AppName:     str("APP_SERVICE"),
		AppVersion:  str("APP_VERSION"),
		Environment: str("ENVIRONMENT"),
		HTTPAddr:    str("HTTP_ADDR"),
		NodeID:      v.GetInt64("SNOWFLAKE_NODE_ID"),
		AppBaseURL:  baseURL,

		DBType:            str("DATABASE_TYPE"),
		DBHost:            str("DATABASE_HOST"),
		DBPort:            str("DATABASE_PORT"),
		DBName:            str("DATABASE_NAME"),
		DBUser:            str("DATABASE_USER"),
		DBPassword:        v.GetString("DATABASE_PASSWORD"),
		DBSSLMode:         str("DATABASE_SSLMODE"),
		DBMaxIdleConn:     v.GetInt("DATABASE_MAX_IDLE_CONN"),
		DBMaxOpenConn:     v.GetInt("DATABASE_MAX_OPEN_CONN"),
		DBConnMaxLifetime: v.GetInt("DATABASE_CONN_MAX_LIFETIME"),
		DBConnMaxIdleTime: v.GetInt("DATABASE_CONN_MAX_IDLE_TIME"),

		Midtrans: MidtransConfig{
			ServerKey:    str("MIDTRANS_SERVER_KEY"),
			ClientKey:    str("MIDTRANS_CLIENT_KEY"),
			IsProduction: v.GetBool("MIDTRANS_IS_PRODUCTION"),
			BaseURL:      strings.TrimRight(str("MIDTRANS_BASE_URL"), "/"),
			Timeout:      positiveDuration(v, "MIDTRANS_TIMEOUT"),
		},
		Payment: PaymentConfig{
			OrderIDPrefix: str("ORDER_ID_PREFIX"),
			FinishURL:     orDefault(str("PAYMENT_FINISH_URL"), baseURL+"/employer/onboarding/payment/finish"),
			PendingURL:    orDefault(str("PAYMENT_PENDING_URL"), baseURL+"/employer/onboarding/payment/pending"),
			ErrorURL:      orDefault(str("PAYMENT_ERROR_URL"), baseURL+"/employer/onboarding/payment/error"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Addr:     str("REDIS_ADDR"),
			Password: str("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			LockTTL:  positiveDuration(v, "WEBHOOK_LOCK_TTL"),

			CheckoutRatePerMinute: v.GetFloat64("CHECKOUT_RATE_PER_MINUTE"),
			CheckoutBurst:         v.GetInt("CHECKOUT_BURST"),
		},
		Sweeper: SweeperConfig{
			Enabled:  v.GetBool("BILLING_SWEEPER_ENABLED"),
			Schedule: str("BILLING_SWEEPER_SCHEDULE"),
		},
		Observability: ObservabilityConfig{
			LogLevel:           strings.ToLower(str("LOG_LEVEL")),
			LogFormat:          strings.ToLower(str("LOG_FORMAT")),
			OtelEndpoint:       str("OTEL_EXPORTER_OTLP_ENDPOINT"),
			OtelProtocol:       strings.ToLower(orDefault(str("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL"), str("OTEL_EXPORTER_OTLP_PROTOCOL"))),
			OtelSamplingRatio:  v.GetFloat64("OTEL_SAMPLING_RATIO"),
			SlowQueryThreshold: positiveDuration(v, "DB_SLOW_QUERY_THRESHOLD"),
		},
	}
	if v.IsSet("OTEL_ENABLED") {
		enabled := v.GetBool("OTEL_ENABLED")
		cfg.Observability.OtelEnabled = &enabled
	}

	return cfg
}

// IsProduction reports whether the service runs in the production environment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// IsDevelopment reports whether the service runs on a developer machine or in tests.
func (c Config) IsDevelopment() bool {
	return IsDevEnvironment(c.Environment)
}

func IsDevEnvironment(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

// positiveDuration falls back to the registered default when the value is
// unparsable or not positive.
func positiveDuration(v *viper.Viper, key string) time.Duration {
	if d := v.GetDuration(key); d > 0 {
		return d
	}
	d, _ := time.ParseDuration(defaults[key].(string))
	return d
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
