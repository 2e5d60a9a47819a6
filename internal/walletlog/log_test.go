package walletlog

import (
	"errors"
	"testing"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Options{Level: "verbose"}); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}
}

func TestNewBuildsConsoleLogger(t *testing.T) {
	log, err := New(Options{Level: "info", Development: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer log.Sync()
	log.Infow("sync started", "height", uint64(123456))
}

func TestSetLevelRejectsUnknown(t *testing.T) {
	log, err := New(Options{Level: "info", Development: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer log.Sync()
	if err := log.SetLevel("bogus"); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}
	if err := log.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
}

func TestNamedScopesLogger(t *testing.T) {
	log, err := New(Options{Level: "info", Development: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer log.Sync()
	child := log.Named("syncengine")
	child.Infow("batch applied", "notes", 3)
}
