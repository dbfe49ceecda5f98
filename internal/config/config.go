package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	AdminUser     string
	AdminPassword string
	AdminEmail    string

	DatabaseURL string

	ListenAddr string

	// JWTSecret signs dashboard access and refresh tokens.
	JWTSecret string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// BootstrapAPIKey, when set, is created as an active tracking key on
	// startup so a fresh deployment can ingest beacons without operator
	// action. Name/Domain describe the site it tracks.
	BootstrapAPIKey     string
	BootstrapSiteName   string
	BootstrapSiteDomain string
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		AdminUser:           getenv("APP_ADMIN_USER", "admin"),
		AdminPassword:       getenv("APP_ADMIN_PASSWORD", "changeme"),
		AdminEmail:          getenv("APP_ADMIN_EMAIL", "admin@localhost"),
		DatabaseURL:         os.Getenv("APP_DATABASE_URL"),
		ListenAddr:          getenv("APP_LISTEN_ADDR", ":8080"),
		JWTSecret:           getenv("APP_JWT_SECRET", "dev-secret-change-me"),
		AccessTokenTTL:      time.Hour,
		RefreshTokenTTL:     7 * 24 * time.Hour,
		BootstrapAPIKey:     getenv("APP_BOOTSTRAP_API_KEY", ""),
		BootstrapSiteName:   getenv("APP_BOOTSTRAP_SITE_NAME", "default"),
		BootstrapSiteDomain: getenv("APP_BOOTSTRAP_SITE_DOMAIN", ""),
	}

	if v := os.Getenv("APP_ACCESS_TOKEN_TTL_MINUTES"); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m > 0 {
			cfg.AccessTokenTTL = time.Duration(m) * time.Minute
		}
	}
	if v := os.Getenv("APP_REFRESH_TOKEN_TTL_HOURS"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			cfg.RefreshTokenTTL = time.Duration(h) * time.Hour
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
