package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "STORE_DRIVER", "SHUTDOWN_TIMEOUT_SECONDS", "CORS_ALLOWED_ORIGINS", "ORPHAN_POLICY", "SERIALIZE_WRITES"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()
	if cfg.HTTPAddr != ":3000" {
		t.Fatalf("expected :3000, got %q", cfg.HTTPAddr)
	}
	if cfg.StoreDriver != DriverPostgres {
		t.Fatalf("expected postgres driver, got %q", cfg.StoreDriver)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected shutdown timeout %s", cfg.ShutdownTimeout)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3001" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if cfg.OrphanPolicy != "treat-as-root" || cfg.SerializeWrites {
		t.Fatalf("unexpected tree policy %+v", cfg)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SERIALIZE_WRITES", "true")
	t.Setenv("ORPHAN_POLICY", "reject")

	cfg := FromEnv()
	if cfg.StoreDriver != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", cfg.StoreDriver)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("unexpected shutdown timeout %s", cfg.ShutdownTimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if !cfg.SerializeWrites || cfg.OrphanPolicy != "reject" {
		t.Fatalf("unexpected tree policy %+v", cfg)
	}
}

func TestFromEnv_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "soon")
	t.Setenv("SERIALIZE_WRITES", "maybe")
	cfg := FromEnv()
	if cfg.ShutdownTimeout != 10*time.Second || cfg.SerializeWrites {
		t.Fatalf("expected defaults for malformed values, got %+v", cfg)
	}
}
