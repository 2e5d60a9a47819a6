package walletconfig

import (
	"testing"
	"time"
)

func TestNewAppliesDefaults(t *testing.T) {
	v, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BatchSize != 500 {
		t.Fatalf("expected default batch size 500, got %d", cfg.BatchSize)
	}
	if cfg.TransportMode != TransportDirect {
		t.Fatalf("expected default transport direct, got %s", cfg.TransportMode)
	}
	if cfg.RetryInitialBackoff != 500*time.Millisecond {
		t.Fatalf("expected default initial backoff 500ms, got %s", cfg.RetryInitialBackoff)
	}
}

func TestNewRejectsInvalidTransportMode(t *testing.T) {
	v, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v.Set("transport.mode", "carrier-pigeon")
	if _, err := Load(v); err == nil {
		t.Fatal("expected error for invalid transport mode")
	}
}

func TestEnvBindingOverridesDefault(t *testing.T) {
	t.Setenv("PIRATE_WALLET_DB_DIR", "/tmp/pirate-wallet")
	v, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBDir != "/tmp/pirate-wallet" {
		t.Fatalf("expected env override, got %q", cfg.DBDir)
	}
}

func TestToSyncEngineConfigProjectsFields(t *testing.T) {
	v, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sc := cfg.ToSyncEngineConfig()
	if sc.BatchSize != cfg.BatchSize {
		t.Fatalf("expected BatchSize to carry over, got %d vs %d", sc.BatchSize, cfg.BatchSize)
	}
	if sc.ReorgCheckInterval == 0 {
		t.Fatal("expected ReorgCheckInterval to retain syncengine's own default")
	}
}
