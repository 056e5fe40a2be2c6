package session

import (
	"testing"
	"time"

	"github.com/ucicrawl/ucicrawl/internal/types"
)

func TestSaveAndLoadConfigRoundTrip(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.SeedURLs = []string{"http://www.ics.uci.edu/"}
	cfg.TimeDelay = 750 * time.Millisecond

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig error: %v", err)
	}

	loaded, err := LoadConfig(cfg.DataDir)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if loaded.TimeDelay != cfg.TimeDelay || len(loaded.SeedURLs) != 1 || loaded.SeedURLs[0] != cfg.SeedURLs[0] {
		t.Fatalf("round-tripped config mismatch: %+v", loaded)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Fatal("expected an error loading a config that was never saved")
	}
}
