package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// UPI payment configuration
	UPI UPIConfig

	// Scanner session configuration
	ScannerSessionTTL time.Duration

	// Check-in configuration
	ScanRateLimit  int
	ScanRateWindow time.Duration
	RecentScansLen int

	// Ticket configuration
	TicketTokenBytes int

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

type UPIConfig struct {
	PayeeVPA     string
	PayeeName    string
	HMACSecret   string
	OrderTTL     time.Duration
	CallbackSub  string
	CallbackChan string
	CallbackUUID string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// UPI
		UPI: UPIConfig{
			PayeeVPA:     getEnv("UPI_PAYEE_VPA", ""),
			PayeeName:    getEnv("UPI_PAYEE_NAME", "Campus Events"),
			HMACSecret:   getEnv("UPI_HMAC_SECRET", ""),
			OrderTTL:     getEnvAsDuration("UPI_ORDER_TTL", "15m"),
			CallbackSub:  getEnv("UPI_CALLBACK_SUBKEY", ""),
			CallbackChan: getEnv("UPI_CALLBACK_CHANNEL", ""),
			CallbackUUID: getEnv("UPI_CALLBACK_UUID", "eventpass-server"),
		},

		// Scanner sessions
		ScannerSessionTTL: getEnvAsDuration("SCANNER_SESSION_TTL", "8h"),

		// Check-in
		ScanRateLimit:  getEnvAsInt("SCAN_RATE_LIMIT", 30),
		ScanRateWindow: getEnvAsDuration("SCAN_RATE_WINDOW", "1m"),
		RecentScansLen: getEnvAsInt("RECENT_SCANS_LEN", 50),

		// Tickets
		TicketTokenBytes: getEnvAsInt("TICKET_TOKEN_BYTES", 16),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
