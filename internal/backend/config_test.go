package backend

import (
	"context"
	"testing"

	"budgetbook/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	appCfg := &config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "/tmp/bb.db",
		PostgresURL:  "postgres://localhost/bb",
	}

	cfg, err := FromAppConfig(appCfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != SQLiteBackend {
		t.Fatalf("expected sqlite type, got %s", cfg.Type)
	}
	if cfg.SQLiteDBPath != "/tmp/bb.db" {
		t.Fatalf("db path not carried over: %s", cfg.SQLiteDBPath)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "mysql"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite with path", Config{Type: SQLiteBackend, SQLiteDBPath: "/tmp/bb.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres with url", Config{Type: PostgresBackend, PostgresURL: "postgres://localhost/bb"}, false},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"invalid type", Config{Type: "mysql"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestFactoryMemory(t *testing.T) {
	factory := NewFactory(nil)
	result, err := factory.CreateStore(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Store == nil {
		t.Fatalf("expected store instance")
	}
	if err := result.Cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
}
