// Package config loads service configuration from the environment.
package config

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds everything the checkout service needs at startup.
type Config struct {
	ListenAddr string

	// ERP backend endpoints.
	BackendBaseURL string
	OrderPath      string
	VerifyPath     string
	ClientTimeout  time.Duration

	// Tenant-facing checkout settings.
	GatewayName       string
	GatewayScriptURL  string
	MerchantName      string
	ThemeColor        string
	Currency          string

	// How long a widget may stay unresolved before the attempt fails.
	// Zero disables the deadline.
	GatewayDeadline time.Duration
}

// Load reads configuration from the environment, applying defaults for
// everything optional.
func Load() Config {
	cfg := Config{
		ListenAddr:       getOptionalEnv("LISTEN_ADDR", ":8080"),
		BackendBaseURL:   getRequiredEnv("BACKEND_BASE_URL"),
		OrderPath:        getOptionalEnv("ORDER_PATH", "/api/payments/orders"),
		VerifyPath:       getOptionalEnv("VERIFY_PATH", "/api/payments/verify"),
		ClientTimeout:    getDurationEnv("CLIENT_TIMEOUT", 10*time.Second),
		GatewayName:      getOptionalEnv("GATEWAY_NAME", "razorpay"),
		GatewayScriptURL: getOptionalEnv("GATEWAY_SCRIPT_URL", ""),
		MerchantName:     getOptionalEnv("MERCHANT_NAME", "School ERP"),
		ThemeColor:       getOptionalEnv("THEME_COLOR", "#0f766e"),
		Currency:         getOptionalEnv("CURRENCY", "INR"),
		GatewayDeadline:  getDurationEnv("GATEWAY_DEADLINE", 15*time.Minute),
	}

	log.Info().
		Str("listen_addr", cfg.ListenAddr).
		Str("backend", cfg.BackendBaseURL).
		Str("gateway", cfg.GatewayName).
		Dur("gateway_deadline", cfg.GatewayDeadline).
		Msg("configuration loaded")
	return cfg
}

func getRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatal().Str("key", key).Msg("required environment variable is not set")
	}
	return value
}

func getOptionalEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Fatal().Str("key", key).Str("value", value).Msg("environment variable is not a valid duration")
	}
	return d
}
