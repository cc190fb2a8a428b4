package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is assembled once at startup and passed into constructors.
// Nothing reads the environment after Load returns.
type Config struct {
	Port        string
	DatabaseURL string

	BotToken   string
	GatewayURL string
	APIBaseURL string

	OpenAIAPIKey     string
	OpenRouterAPIKey string

	AdminUserID     int64
	DailyCapSeconds int

	TmpDir     string
	PendingTTL time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		Port:             getenv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		BotToken:         os.Getenv("BOT_TOKEN"),
		GatewayURL:       os.Getenv("GATEWAY_URL"),
		APIBaseURL:       os.Getenv("API_BASE_URL"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		TmpDir:           getenv("TMP_DIR", os.TempDir()),
	}

	for name, val := range map[string]string{
		"DATABASE_URL":       cfg.DatabaseURL,
		"BOT_TOKEN":          cfg.BotToken,
		"GATEWAY_URL":        cfg.GatewayURL,
		"API_BASE_URL":       cfg.APIBaseURL,
		"OPENAI_API_KEY":     cfg.OpenAIAPIKey,
		"OPENROUTER_API_KEY": cfg.OpenRouterAPIKey,
	} {
		if val == "" {
			return Config{}, fmt.Errorf("%s is not set", name)
		}
	}

	adminRaw := os.Getenv("ADMIN_USER_ID")
	if adminRaw == "" {
		return Config{}, fmt.Errorf("ADMIN_USER_ID is not set")
	}
	admin, err := strconv.ParseInt(adminRaw, 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse ADMIN_USER_ID: %w", err)
	}
	cfg.AdminUserID = admin

	capSec, err := intEnv("DAILY_CAP_SECONDS", 300)
	if err != nil {
		return Config{}, err
	}
	cfg.DailyCapSeconds = capSec

	ttlMin, err := intEnv("PENDING_TTL_MINUTES", 10)
	if err != nil {
		return Config{}, err
	}
	cfg.PendingTTL = time.Duration(ttlMin) * time.Minute

	return cfg, nil
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return n, nil
}
