// Package config loads marketcore's ambient settings: starting balances,
// default market liquidity, and which persistence backend to use. It loads
// environment variables (optionally from a .env file) layered over an
// optional YAML defaults file, and fails fast rather than silently
// defaulting a required field.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Backend string

const (
	BackendJSON Backend = "json"
	BackendGorm Backend = "gorm"
)

type Config struct {
	DefaultLiquidity       float64 `yaml:"default_liquidity"`
	DefaultStartingBalance string  `yaml:"default_starting_balance"`
	PersistenceBackend     Backend `yaml:"persistence_backend"`
	PersistenceDir         string  `yaml:"persistence_dir"`
	PersistenceDSN         string  `yaml:"persistence_dsn"`
}

// defaults mirror what a fresh deployment needs with no configuration file
// at all: a JSON-file backend under ./data, 1000 starting balances, and
// b=100 liquidity.
func defaults() Config {
	return Config{
		DefaultLiquidity:       100,
		DefaultStartingBalance: "1000",
		PersistenceBackend:     BackendJSON,
		PersistenceDir:         "./data",
	}
}

// Load reads an optional .env file, an optional YAML defaults file at
// yamlPath, then overlays environment variables on top. Any required field
// left unset after all three layers is a fatal config error, never silently
// defaulted.
func Load(yamlPath string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if yamlPath != "" {
		if data, err := os.ReadFile(yamlPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parsing %s: %w", yamlPath, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: reading %s: %w", yamlPath, err)
		}
	}

	if v := os.Getenv("MARKETCORE_LIQUIDITY"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: MARKETCORE_LIQUIDITY: %w", err)
		}
		cfg.DefaultLiquidity = f
	}
	if v := os.Getenv("MARKETCORE_STARTING_BALANCE"); v != "" {
		cfg.DefaultStartingBalance = v
	}
	if v := os.Getenv("MARKETCORE_BACKEND"); v != "" {
		cfg.PersistenceBackend = Backend(v)
	}
	if v := os.Getenv("MARKETCORE_PERSISTENCE_DIR"); v != "" {
		cfg.PersistenceDir = v
	}
	if v := os.Getenv("MARKETCORE_DSN"); v != "" {
		cfg.PersistenceDSN = v
	}

	if cfg.PersistenceBackend == BackendGorm && cfg.PersistenceDSN == "" {
		return Config{}, fmt.Errorf("config: persistence_backend=gorm requires MARKETCORE_DSN")
	}
	if cfg.DefaultLiquidity <= 0 {
		return Config{}, fmt.Errorf("config: default_liquidity must be > 0")
	}

	return cfg, nil
}
