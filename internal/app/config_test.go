package app

import (
	"testing"
	"time"
)

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.APIAddr != ":8080" {
		t.Errorf("expected APIAddr :8080, got %s", cfg.APIAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("expected MetricsAddr :9090, got %s", cfg.MetricsAddr)
	}
	if cfg.StorageDriver != StorageDriverMemory {
		t.Errorf("expected StorageDriver %s, got %s", StorageDriverMemory, cfg.StorageDriver)
	}
	if !cfg.PostgresAutoMigrate {
		t.Error("expected PostgresAutoMigrate to be true")
	}
	if cfg.OutboxPollInterval <= 0 {
		t.Error("expected OutboxPollInterval to be > 0")
	}
	if cfg.OutboxBatchSize <= 0 {
		t.Error("expected OutboxBatchSize to be > 0")
	}
	if cfg.OutboxMaxAttempts <= 0 {
		t.Error("expected OutboxMaxAttempts to be > 0")
	}
	if cfg.OutboxRetryDelay < 0 {
		t.Error("expected OutboxRetryDelay to be >= 0")
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("LIBRARY_API_ADDR", ":8181")
	t.Setenv("LIBRARY_STORAGE_DRIVER", "SQLite")
	t.Setenv("LIBRARY_SQLITE_PATH", "/tmp/test-library.db")
	t.Setenv("LIBRARY_OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("LIBRARY_OUTBOX_BATCH_SIZE", "42")
	t.Setenv("LIBRARY_POSTGRES_AUTO_MIGRATE", "false")

	cfg := LoadConfigFromEnv()

	if cfg.APIAddr != ":8181" {
		t.Errorf("expected APIAddr :8181, got %s", cfg.APIAddr)
	}
	if cfg.StorageDriver != StorageDriverSQLite {
		t.Errorf("expected sqlite driver, got %s", cfg.StorageDriver)
	}
	if cfg.SQLitePath != "/tmp/test-library.db" {
		t.Errorf("unexpected sqlite path: %s", cfg.SQLitePath)
	}
	if cfg.OutboxPollInterval != 250*time.Millisecond {
		t.Errorf("expected poll interval 250ms, got %s", cfg.OutboxPollInterval)
	}
	if cfg.OutboxBatchSize != 42 {
		t.Errorf("expected batch size 42, got %d", cfg.OutboxBatchSize)
	}
	if cfg.PostgresAutoMigrate {
		t.Error("expected PostgresAutoMigrate to be false")
	}
}

func TestLoadConfigFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("LIBRARY_OUTBOX_POLL_INTERVAL", "not-a-duration")
	t.Setenv("LIBRARY_OUTBOX_BATCH_SIZE", "-5")
	t.Setenv("LIBRARY_POSTGRES_AUTO_MIGRATE", "maybe")

	cfg := LoadConfigFromEnv()
	defaults := DefaultConfig()

	if cfg.OutboxPollInterval != defaults.OutboxPollInterval {
		t.Errorf("expected default poll interval, got %s", cfg.OutboxPollInterval)
	}
	if cfg.OutboxBatchSize != defaults.OutboxBatchSize {
		t.Errorf("expected default batch size, got %d", cfg.OutboxBatchSize)
	}
	if cfg.PostgresAutoMigrate != defaults.PostgresAutoMigrate {
		t.Error("expected default auto-migrate flag")
	}
}
