// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Credentials identify the service principal and the Business Central
// environment it talks to. They are read once at startup.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	CompanyID    string // optional; empty means resolve from the companies listing
	Environment  string // sandbox | production | ...
}

type Config struct {
	Env      string
	HTTPAddr string // relay-service

	Credentials Credentials

	// Upstream endpoints (overridable for tests and sovereign clouds)
	AuthBaseURL string
	APIBaseURL  string
	APIVariant  string // odata | api
	HTTPTimeout time.Duration
	MaxPages    int

	// Inbound surface
	StrictInput bool
	HealthRoute bool

	// Token cache: none | memory | redis
	TokenCache string
	RedisURL   string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:      env("RELAY_ENV", "dev"),
		HTTPAddr: env("RELAY_HTTP_ADDR", ":8080"),
		Credentials: Credentials{
			TenantID:     env("TENANT_ID", ""),
			ClientID:     env("CLIENT_ID", ""),
			ClientSecret: env("CLIENT_SECRET", ""),
			CompanyID:    env("COMPANY_ID", ""),
			Environment:  env("ENVIRONMENT", "sandbox"),
		},
		AuthBaseURL: strings.TrimRight(env("AUTH_BASE_URL", "https://login.microsoftonline.com"), "/"),
		APIBaseURL:  strings.TrimRight(env("API_BASE_URL", "https://api.businesscentral.dynamics.com"), "/"),
		APIVariant:  strings.ToLower(env("API_VARIANT", "odata")),
		HTTPTimeout: envDur("HTTP_TIMEOUT_SEC", 30) * time.Second,
		MaxPages:    envInt("MAX_PAGES", 0),
		StrictInput: envBool("STRICT_INPUT", true),
		HealthRoute: envBool("HEALTH_ROUTE", true),
		TokenCache:  strings.ToLower(env("TOKEN_CACHE", "none")),
		RedisURL:    env("REDIS_URL", ""),
	}
	if cfg.Credentials.TenantID == "" || cfg.Credentials.ClientID == "" || cfg.Credentials.ClientSecret == "" {
		log.Println("[WARN] TENANT_ID/CLIENT_ID/CLIENT_SECRET not fully set, token requests will fail")
	}
	if cfg.TokenCache == "redis" && cfg.RedisURL == "" {
		log.Println("[WARN] TOKEN_CACHE=redis without REDIS_URL, falling back to in-memory token cache")
		cfg.TokenCache = "memory"
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return def
		}
		return b
	}
	return def
}
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return def
		}
		return i
	}
	return def
}
func envDur(k string, def int) time.Duration {
	return time.Duration(envInt(k, def))
}
