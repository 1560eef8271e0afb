package config

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	LedgerMemory = "memory"
	LedgerRedis  = "redis"
)

// WebhookEnvKeys are consulted in order on every submission.
var WebhookEnvKeys = []string{"DISCORD_WEBHOOK_URL", "MESSAGE_WEBHOOK_URL"}

// JWTConfig defines issuer/secret pair for admin auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                         string
	WebhookFormat                string
	NotifyMention                string
	RelayTimeout                 time.Duration
	CooldownLedger               string
	RedisURL                     string
	RedisKeyPrefix               string
	MongoURI                     string
	MongoDatabase                string
	FailedNotificationCollection string
	Timeout                      time.Duration
	GeoLiteCityDB                string
	JWTConfigs                   []JWTConfig
	JWTAudience                  string
	AllowedOrigins               []string
	ServerLog                    *log.Logger
}

// Load reads environment variables and returns a fully populated Config.
// A missing webhook URL is not an error here; submissions are rejected until it is set.
func Load() Config {
	timeout := parseDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second)
	relayTimeout := parseDuration("MESSAGE_RELAY_TIMEOUT", 5*time.Second)

	ledger := strings.ToLower(envOrDefault("COOLDOWN_LEDGER", LedgerMemory))
	if ledger != LedgerRedis {
		ledger = LedgerMemory
	}

	var jwtConfigs []JWTConfig
	if secret := strings.TrimSpace(os.Getenv("ADMIN_JWT_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{
			Issuer: envOrDefault("ADMIN_JWT_ISSUER", "portfolio-admin"),
			Secret: []byte(secret),
		})
	}

	cfg := Config{
		Addr:                         envOrDefault("HTTP_ADDR", ":8080"),
		WebhookFormat:                envOrDefault("WEBHOOK_FORMAT", "discord"),
		NotifyMention:                strings.TrimSpace(os.Getenv("NOTIFY_MENTION")),
		RelayTimeout:                 relayTimeout,
		CooldownLedger:               ledger,
		RedisURL:                     envOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		RedisKeyPrefix:               envOrDefault("REDIS_KEY_PREFIX", "portfolio:cooldown:"),
		MongoURI:                     strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDatabase:                envOrDefault("MONGO_DB", "portfolio"),
		FailedNotificationCollection: envOrDefault("FAILED_NOTIFICATION_COLLECTION", "failed_notifications"),
		Timeout:                      timeout,
		GeoLiteCityDB:                strings.TrimSpace(os.Getenv("GEOLITE_CITY_DB")),
		JWTConfigs:                   jwtConfigs,
		JWTAudience:                  strings.TrimSpace(os.Getenv("ADMIN_JWT_AUDIENCE")),
		AllowedOrigins:               parseList("API_ALLOWED_ORIGINS", []string{"*"}),
		ServerLog:                    newLogger(os.Getenv("LOG_LEVEL")),
	}

	cfg.ServerLog.Info("loaded config",
		"addr", cfg.Addr,
		"ledger", cfg.CooldownLedger,
		"webhookFormat", cfg.WebhookFormat,
		"webhookConfigured", WebhookDestination() != "",
		"mongo", cfg.MongoURI != "",
		"geolite", cfg.GeoLiteCityDB != "",
		"admin", len(cfg.JWTConfigs) > 0,
	)

	return cfg
}

// WebhookDestination reads the relay destination from the environment.
// It is called per submission so the value can change without a restart.
func WebhookDestination() string {
	for _, key := range WebhookEnvKeys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stdout, log.Options{
		Prefix:          "portfolio-api",
		ReportTimestamp: true,
	})
	if parsed, err := log.ParseLevel(strings.TrimSpace(level)); err == nil && strings.TrimSpace(level) != "" {
		logger.SetLevel(parsed)
	}
	return logger
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
