package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the API binary needs, loaded from the environment.
type Config struct {
	ListenAddr string

	// StorageBackend selects the subscriber store: "memory" or "postgres".
	StorageBackend string
	DatabaseURL    string

	AdminUsername string
	AdminPassword string
	SessionTTL    time.Duration
	SecureCookies bool

	CORSAllowedOrigins []string
	StaticDir          string

	// DevMode widens error responses with internal detail. Never enable in production.
	DevMode bool

	SES SESConfig
}

// SESConfig configures the AWS SES welcome mailer. Disabled unless SES_ENABLED
// is truthy; when enabled all credential fields are required.
type SESConfig struct {
	Enabled        bool
	Region         string
	AccessKey      string
	SecretKey      string
	Sender         string
	SenderName     string
	UnsubscribeURL string
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		ListenAddr:     ":8080",
		StorageBackend: "memory",
		SessionTTL:     24 * time.Hour,
		StaticDir:      "docs",
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.ListenAddr = ":" + v
	}

	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.StorageBackend = v
	}
	switch cfg.StorageBackend {
	case "memory":
	case "postgres":
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", cfg.StorageBackend)
	}

	cfg.AdminUsername = os.Getenv("ADMIN_USERNAME")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return Config{}, fmt.Errorf("missing required env vars: ADMIN_USERNAME, ADMIN_PASSWORD")
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("SESSION_TTL must be a duration (e.g. 24h): %w", err)
		}
		cfg.SessionTTL = d
	}

	var err error
	if cfg.SecureCookies, err = boolEnv("SECURE_COOKIES", false); err != nil {
		return Config{}, err
	}
	if cfg.DevMode, err = boolEnv("DEV_MODE", false); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
			}
		}
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}

	if cfg.SES, err = loadSESFromEnv(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadSESFromEnv() (SESConfig, error) {
	enabled, err := boolEnv("SES_ENABLED", false)
	if err != nil {
		return SESConfig{}, err
	}
	if !enabled {
		return SESConfig{}, nil
	}

	cfg := SESConfig{
		Enabled:        true,
		Region:         os.Getenv("SES_REGION"),
		AccessKey:      os.Getenv("SES_ACCESS_KEY"),
		SecretKey:      os.Getenv("SES_SECRET_KEY"),
		Sender:         os.Getenv("SES_SENDER"),
		SenderName:     os.Getenv("SES_SENDER_NAME"),
		UnsubscribeURL: os.Getenv("SES_UNSUBSCRIBE_URL"),
	}
	if cfg.Region == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Sender == "" {
		return SESConfig{}, fmt.Errorf("missing required env vars: SES_REGION, SES_ACCESS_KEY, SES_SECRET_KEY, SES_SENDER")
	}
	if cfg.SenderName == "" {
		cfg.SenderName = "TechSum"
	}
	return cfg, nil
}

func boolEnv(name string, def bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean (true/false): %w", name, err)
	}
	return b, nil
}
