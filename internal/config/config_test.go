package config

import (
	"errors"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		for _, key := range []string{"API_HTTP_PORT", "DATABASE_URL", "STORAGE_DRIVER", "SENDGRID_API_KEY", "PHARMACY_NAME", "OTEL_EXPORTER_OTLP_INSECURE"} {
			t.Setenv(key, "")
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}

		if cfg.HTTP.Port != 8080 {
			t.Errorf("expected port 8080, got %d", cfg.HTTP.Port)
		}
		if cfg.Service.Name != "pharmacie-api" || cfg.Service.PharmacyName != "Pharmacie Centrale" {
			t.Errorf("unexpected service config %+v", cfg.Service)
		}
		if cfg.Storage.Driver != StoragePostgres {
			t.Errorf("expected postgres storage, got %q", cfg.Storage.Driver)
		}
		if !strings.Contains(cfg.Database.URL, "/pharmacie?") {
			t.Errorf("expected pharmacie database, got %q", cfg.Database.URL)
		}
		if cfg.Mail.SendGridAPIKey != "" || cfg.Mail.FromName != "Pharmacie Centrale" {
			t.Errorf("unexpected mail config %+v", cfg.Mail)
		}
		if !cfg.Telemetry.OTelInsecure {
			t.Error("expected plaintext collector connection by default")
		}
	})

	t.Run("reads overrides", func(t *testing.T) {
		t.Setenv("API_HTTP_PORT", "9090")
		t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
		t.Setenv("STORAGE_DRIVER", "Memory")
		t.Setenv("SENDGRID_API_KEY", "SG.key")
		t.Setenv("SENDGRID_FROM_EMAIL", "stock@pharmacie.test")
		t.Setenv("SENDGRID_HOST", "http://localhost:3030")
		t.Setenv("AUTO_MIGRATE", "false")
		t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "false")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}

		if cfg.HTTP.Port != 9090 || cfg.Database.URL != "postgres://u:p@db:5432/x" || cfg.Database.AutoMigrate {
			t.Errorf("unexpected config %+v", cfg)
		}
		if cfg.Storage.Driver != StorageMemory {
			t.Errorf("expected memory storage, got %q", cfg.Storage.Driver)
		}
		if cfg.Telemetry.OTelInsecure {
			t.Error("expected TLS collector connection")
		}
		if cfg.Mail.SendGridAPIKey != "SG.key" || cfg.Mail.FromEmail != "stock@pharmacie.test" || cfg.Mail.Host != "http://localhost:3030" {
			t.Errorf("unexpected mail config %+v", cfg.Mail)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		tests := []struct {
			key, value string
		}{
			{"API_HTTP_PORT", "eighty"},
			{"API_SHUTDOWN_GRACE_SECONDS", "soon"},
			{"OTEL_SAMPLE_RATE", "half"},
			{"STORAGE_DRIVER", "sqlite"},
		}

		for _, tt := range tests {
			t.Run(tt.key, func(t *testing.T) {
				t.Setenv(tt.key, tt.value)

				if _, err := Load(); err == nil {
					t.Errorf("expected error for %s=%s", tt.key, tt.value)
				}
			})
		}
	})

	t.Run("wraps unknown storage driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "redis")

		_, err := Load()

		if !errors.Is(err, ErrUnknownStorageDriver) {
			t.Errorf("expected ErrUnknownStorageDriver, got %v", err)
		}
	})
}
