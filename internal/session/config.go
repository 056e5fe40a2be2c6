package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ucicrawl/ucicrawl/internal/types"
)

func configPath(dataDir string) string {
	return filepath.Join(dataDir, "config.json")
}

// SaveConfig persists cfg as JSON under cfg.DataDir, so a later
// `resume` run can recover the settings a `crawl` run started with.
func SaveConfig(cfg types.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(configPath(cfg.DataDir), data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// LoadConfig reads a previously saved config from dataDir.
func LoadConfig(dataDir string) (types.Config, error) {
	data, err := os.ReadFile(configPath(dataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg types.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return types.Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
