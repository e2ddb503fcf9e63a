package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "secret")
	for _, name := range []string{"LISTEN_ADDR", "PORT", "STORAGE_BACKEND", "SESSION_TTL", "SES_ENABLED"} {
		t.Setenv(name, "")
	}

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.StorageBackend != "memory" {
		t.Errorf("StorageBackend = %q", cfg.StorageBackend)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.SES.Enabled {
		t.Error("SES should be disabled by default")
	}
}

func TestLoadFromEnv_MissingAdminCredentials(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for missing ADMIN_PASSWORD")
	}
}

func TestLoadFromEnv_PostgresRequiresURL(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "secret")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadFromEnv(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadFromEnv_FullSetup(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/newsletter")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("SECURE_COOKIES", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://techsum.example, https://admin.techsum.example")
	t.Setenv("SES_ENABLED", "true")
	t.Setenv("SES_REGION", "us-east-1")
	t.Setenv("SES_ACCESS_KEY", "AKIA")
	t.Setenv("SES_SECRET_KEY", "shh")
	t.Setenv("SES_SENDER", "hello@techsum.example")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.SessionTTL != time.Hour || !cfg.SecureCookies {
		t.Errorf("session cfg = %v secure=%v", cfg.SessionTTL, cfg.SecureCookies)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.techsum.example" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.SES.Enabled || cfg.SES.SenderName != "TechSum" {
		t.Errorf("SES = %+v", cfg.SES)
	}
}

func TestLoadFromEnv_SESMissingCredentials(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "secret")
	t.Setenv("SES_ENABLED", "true")
	t.Setenv("SES_REGION", "us-east-1")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for missing SES credentials")
	}
}
