// Package config loads and saves the jukebox engine's tunables as a TOML
// file, in the same shape as stojg-playlist-sorter's config package:
// try the current directory first, fall back to a per-user config
// directory, and fall back further to hardcoded defaults on any error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/nzoschke/jukebox/internal/jukebox"
)

// FileConfig is the on-disk TOML shape for jukebox.EngineConfig. Only the
// tunables a user would reasonably want to persist are exposed;
// MinLongBranch stays derived and is never read from disk (spec.md §3).
type FileConfig struct {
	MaxBranches              int     `toml:"max_branches"`
	MaxBranchThreshold       int     `toml:"max_branch_threshold"`
	CurrentThreshold         int     `toml:"current_threshold"`
	AddLastEdge              bool    `toml:"add_last_edge"`
	JustBackwards            bool    `toml:"just_backwards"`
	JustLongBranches         bool    `toml:"just_long_branches"`
	RemoveSequentialBranches bool    `toml:"remove_sequential_branches"`
	MinRandomBranchChance    float64 `toml:"min_random_branch_chance"`
	MaxRandomBranchChance    float64 `toml:"max_random_branch_chance"`
	RandomBranchChanceDelta  float64 `toml:"random_branch_chance_delta"`
}

// DefaultFileConfig mirrors jukebox.DefaultConfig in the on-disk shape.
func DefaultFileConfig() FileConfig {
	d := jukebox.DefaultConfig()
	return FileConfig{
		MaxBranches:              d.MaxBranches,
		MaxBranchThreshold:       d.MaxBranchThreshold,
		CurrentThreshold:         d.CurrentThreshold,
		AddLastEdge:              d.AddLastEdge,
		JustBackwards:            d.JustBackwards,
		JustLongBranches:         d.JustLongBranches,
		RemoveSequentialBranches: d.RemoveSequentialBranches,
		MinRandomBranchChance:    d.MinRandomBranchChance,
		MaxRandomBranchChance:    d.MaxRandomBranchChance,
		RandomBranchChanceDelta:  d.RandomBranchChanceDelta,
	}
}

// ToEngineConfig converts the on-disk shape to an jukebox.EngineConfig.
// MinLongBranch is left zero; BuildGraph derives it from the loaded
// analysis's beat count.
func (f FileConfig) ToEngineConfig() jukebox.EngineConfig {
	return jukebox.EngineConfig{
		MaxBranches:              f.MaxBranches,
		MaxBranchThreshold:       f.MaxBranchThreshold,
		CurrentThreshold:         f.CurrentThreshold,
		AddLastEdge:              f.AddLastEdge,
		JustBackwards:            f.JustBackwards,
		JustLongBranches:         f.JustLongBranches,
		RemoveSequentialBranches: f.RemoveSequentialBranches,
		MinRandomBranchChance:    f.MinRandomBranchChance,
		MaxRandomBranchChance:    f.MaxRandomBranchChance,
		RandomBranchChanceDelta:  f.RandomBranchChanceDelta,
	}
}

// GetConfigPath returns the default config file path: the current
// directory first, then ~/.config/jukebox/config.toml.
func GetConfigPath() string {
	if _, err := os.Stat("./jukebox.toml"); err == nil {
		return "./jukebox.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./jukebox.toml"
	}

	return filepath.Join(home, ".config", "jukebox", "config.toml")
}

// LoadConfig loads configuration from path. If the file doesn't exist,
// returns defaults with no error; any other failure also falls back to
// defaults, wrapped in an error the caller may log and ignore.
func LoadConfig(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultFileConfig(), nil
		}
		return DefaultFileConfig(), fmt.Errorf("read config file: %w", err)
	}

	var cfg FileConfig
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return DefaultFileConfig(), fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes cfg to path as TOML, creating parent directories as needed.
func SaveConfig(path string, cfg FileConfig) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
