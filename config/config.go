package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	LOG_LEVEL    string
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// Payment gateway
	RAZORPAY_KEY_ID     string
	RAZORPAY_KEY_SECRET string
	RAZORPAY_BASE_URL   string
	PAYMENT_CURRENCY    string
	// Event relay
	KAFKA_BROKERS      []string
	KAFKA_EVENTS_TOPIC string
	// Observability
	JAEGER_ENDPOINT string
	// Background jobs
	CRON_ENABLED        bool
	STALE_PAYMENT_AFTER time.Duration
	// CORS
	ALLOWED_ORIGINS string
}

// IsProduction reports whether GO_ENV is production
func (e *EnviornmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := getEnvDefault("DB_HOST", "localhost")
	dbPort := getEnvDefault("DB_PORT", "5432")
	dbSSLMode := getEnvDefault("DB_SSL_MODE", "disable")

	staleAfter, err := time.ParseDuration(getEnvDefault("STALE_PAYMENT_AFTER", "24h"))
	if err != nil || staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  dbSSLMode,
		PORT:         port,
		LOG_LEVEL:    getEnvDefault("LOG_LEVEL", "info"),
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getEnvDefault("JWT_ISSUER", "coursecheckout-api"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Razorpay
		RAZORPAY_KEY_ID:     os.Getenv("RAZORPAY_KEY_ID"),
		RAZORPAY_KEY_SECRET: os.Getenv("RAZORPAY_KEY_SECRET"),
		RAZORPAY_BASE_URL:   os.Getenv("RAZORPAY_BASE_URL"),
		PAYMENT_CURRENCY:    strings.ToUpper(getEnvDefault("PAYMENT_CURRENCY", "INR")),
		// Kafka
		KAFKA_BROKERS:      splitList(os.Getenv("KAFKA_BROKERS")),
		KAFKA_EVENTS_TOPIC: getEnvDefault("KAFKA_EVENTS_TOPIC", "checkout-events"),
		// Tracing
		JAEGER_ENDPOINT: os.Getenv("JAEGER_ENDPOINT"),
		// Cron
		CRON_ENABLED:        os.Getenv("CRON_ENABLED") != "false", // Default to enabled
		STALE_PAYMENT_AFTER: staleAfter,
		ALLOWED_ORIGINS:     os.Getenv("ALLOWED_ORIGINS"),
	}

	return envVariables, nil
}

func getEnvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
