package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StorageDriver != DriverSQLite {
		t.Fatalf("expected sqlite driver by default, got %s", cfg.StorageDriver)
	}
	if cfg.DatabasePath != "scoreboard.db" {
		t.Fatalf("unexpected database path %s", cfg.DatabasePath)
	}
	if cfg.AuthEnabled() {
		t.Fatalf("expected admin auth to be disabled without a secret")
	}
	if cfg.TokenTTL != time.Hour {
		t.Fatalf("expected one hour token ttl, got %s", cfg.TokenTTL)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SCOREBOARD_STORAGE_DRIVER", "FILE")
	t.Setenv("SCOREBOARD_STORAGE_FILE_PATH", "/tmp/board.json")
	t.Setenv("SCOREBOARD_AUTH_SIGNING_SECRET", "secret")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StorageDriver != DriverFile || cfg.FilePath != "/tmp/board.json" {
		t.Fatalf("unexpected storage settings %+v", cfg)
	}
	if !cfg.AuthEnabled() {
		t.Fatalf("expected admin auth to be enabled")
	}
}

func TestLoadValidatesDriverSettings(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value interface{}
	}{
		{name: "unknown-driver", key: "storage.driver", value: "mongo"},
		{name: "postgres-without-dsn", key: "storage.driver", value: DriverPostgres},
		{name: "empty-address", key: "http.address", value: ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			configViper := NewViper()
			configViper.Set(testCase.key, testCase.value)
			if _, err := Load(configViper); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
