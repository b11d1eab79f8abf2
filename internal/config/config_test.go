package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOTUBE_STORE", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AppPort != 8080 || cfg.Store != StorePostgres || cfg.MigrationDir != "migrations" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.CacheTTL != 5*time.Minute || cfg.MetadataCacheTTL != time.Hour || cfg.AuthRateLimit != 10 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.VideoWritesAdminOnly || cfg.CORSOrigins != nil {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HOTUBE_PORT", "9090")
	t.Setenv("HOTUBE_STORE", "Memory")
	t.Setenv("HOTUBE_CORS_ORIGINS", "http://localhost:5173, https://hotube.example.com ,")
	t.Setenv("HOTUBE_VIDEO_WRITES_ADMIN_ONLY", "true")
	t.Setenv("HOTUBE_YTDLP_TIMEOUT", "45s")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AppPort != 9090 || cfg.Store != StoreMemory || !cfg.VideoWritesAdminOnly || cfg.YTDLPTimeout != 45*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://hotube.example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("HOTUBE_FIREBASE_PROJECT=hotube-test\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("HOTUBE_STORE", "firestore")
	t.Setenv("HOTUBE_FIREBASE_PROJECT", "")
	os.Unsetenv("HOTUBE_FIREBASE_PROJECT")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FirebaseProject != "hotube-test" {
		t.Fatalf("expected project from .env, got %q", cfg.FirebaseProject)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOTUBE_PORT", "eighty")
	t.Setenv("HOTUBE_STORE", "mongo")
	t.Setenv("HOTUBE_CACHE_TTL", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"HOTUBE_PORT", "HOTUBE_STORE", "HOTUBE_CACHE_TTL"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error to mention %s, got %v", want, err)
		}
	}
}

func TestValidateFirestoreNeedsProject(t *testing.T) {
	cfg := Config{AppPort: 8080, Store: StoreFirestore}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing project error")
	}
}
