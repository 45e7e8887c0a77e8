package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shaiso/Concord/internal/webhook"
)

// clearEnv сбрасывает переменные, которые могут прийти из окружения CI.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DB_URL", "RABBITMQ_URL", "LOG_LEVEL", "LOG_FORMAT", "API_PORT", "RUNNER_PORT"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "concord.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// --- Load Tests ---

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Driver != DriverPostgres || cfg.Lock.Backend != LockAdvisory {
		t.Errorf("unexpected backends %+v %+v", cfg.Database, cfg.Lock)
	}
	if cfg.Lock.WaitTimeout != 30*time.Second {
		t.Errorf("unexpected wait timeout %s", cfg.Lock.WaitTimeout)
	}
	if cfg.Scheduler.Spec != "@every 1m" || cfg.API.Addr != ":8080" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if len(cfg.Participants) == 0 {
		t.Error("expected default participants")
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
database:
  driver: sqlite
  path: /tmp/concord.db
lock:
  backend: memory
  wait_timeout: 2s
runner:
  alert_after: 3
targets:
  - type: Order
    table: public.orders
participants:
  - kind: role
    role: broker
  - kind: target_type
    types: [Order, Shipment]
webhooks:
  - kind: notify_erp
    url: https://erp.example.com/hooks
    timeout: 5s
    headers:
      Authorization: Bearer t
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Driver != DriverSQLite || cfg.Lock.WaitTimeout != 2*time.Second {
		t.Errorf("unexpected config %+v %+v", cfg.Database, cfg.Lock)
	}
	if cfg.Runner.AlertAfter != 3 {
		t.Errorf("unexpected alert_after %d", cfg.Runner.AlertAfter)
	}
	if cfg.TargetTables()["Order"] != "public.orders" {
		t.Errorf("target type must keep its case, got %v", cfg.TargetTables())
	}
	if len(cfg.Participants) != 2 || cfg.Participants[1].Types[1] != "Shipment" {
		t.Errorf("unexpected participants %+v", cfg.Participants)
	}
	if len(cfg.Webhooks) != 1 || cfg.Webhooks[0].Timeout != 5*time.Second || cfg.Webhooks[0].Kind != "notify_erp" {
		t.Errorf("unexpected webhooks %+v", cfg.Webhooks)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_URL", "postgresql://ci@db/concord")
	t.Setenv("CONCORD_SCHEDULER_SPEC", "@every 10s")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("API_PORT", "9090")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.URL != "postgresql://ci@db/concord" {
		t.Errorf("DB_URL not applied: %q", cfg.Database.URL)
	}
	if cfg.Scheduler.Spec != "@every 10s" {
		t.Errorf("CONCORD_SCHEDULER_SPEC not applied: %q", cfg.Scheduler.Spec)
	}
	if cfg.Log.Level != "DEBUG" {
		t.Errorf("LOG_LEVEL not applied: %q", cfg.Log.Level)
	}
	if cfg.API.Addr != ":9090" {
		t.Errorf("API_PORT not applied: %q", cfg.API.Addr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

// --- Validate Tests ---

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: DriverPostgres},
			Lock:     LockConfig{Backend: LockAdvisory},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{"valid", func(*Config) {}, nil},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, ErrUnknownDriver},
		{"unknown lock", func(c *Config) { c.Lock.Backend = "redis" }, ErrUnknownLockBackend},
		{"sqlite with advisory", func(c *Config) { c.Database.Driver = DriverSQLite }, ErrIncompatibleLock},
		{"empty target", func(c *Config) { c.Targets = []TargetTable{{Type: "Order"}} }, ErrInvalidTarget},
		{"bad webhook", func(c *Config) { c.Webhooks = []webhook.Config{{Kind: "notify"}} }, webhook.ErrInvalidConfig},
		{"duplicate webhook", func(c *Config) {
			w := webhook.Config{Kind: "notify", URL: "https://example.com"}
			c.Webhooks = []webhook.Config{w, w}
		}, webhook.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestTracingSettings(t *testing.T) {
	c := Config{Tracing: TracingConfig{Enabled: true, ServiceName: "concord"}}
	if got := c.TracingSettings("runner").ServiceName; got != "concord-runner" {
		t.Errorf("unexpected service name %q", got)
	}
}
