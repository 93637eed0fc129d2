package config_test

import (
	"reflect"
	"testing"

	"github.com/quiz-arena/quiz-arena/internal/config"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{
		"HTTP_ADDR", "DB_DRIVER", "DB_DSN", "BLOB_BASE_PATH",
		"GEMINI_API_KEY", "GEMINI_MODEL", "CORS_ORIGINS", "MAX_UPLOAD_BYTES",
	} {
		t.Setenv(k, "")
	}

	cfg := config.FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("DBDriver = %q", cfg.DBDriver)
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("GeminiAPIKey = %q, want empty", cfg.GeminiAPIKey)
	}
	if cfg.MaxUploadBytes != 25<<20 {
		t.Fatalf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("CORS_ORIGINS", " https://a.example , https://b.example ,")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")

	cfg := config.FromEnv()
	if cfg.HTTPAddr != ":9999" || cfg.DBDriver != "postgres" {
		t.Fatalf("cfg = %+v", cfg)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.CORSOrigins, want)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Fatalf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
}

func TestFromEnvBadIntFallsBack(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "not-a-number")
	if got := config.FromEnv().MaxUploadBytes; got != 25<<20 {
		t.Fatalf("MaxUploadBytes = %d, want default", got)
	}
}
