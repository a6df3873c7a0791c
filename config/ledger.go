package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// LedgerConfig stores the backend-independent gateway configuration.
type LedgerConfig struct {
	// --- Backend Selection ---
	Backend string `yaml:"backend"` // "chainmaker" or "local"

	// --- Identity ---
	WalletDir     string `yaml:"wallet_dir"`
	IdentityAlias string `yaml:"identity_alias"`

	// --- Common Behavior Configuration ---
	RetryLimit     int `yaml:"retry_limit"`
	RetryInterval  int `yaml:"retry_interval"` // milliseconds between retries
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// --- Backend-specific Configuration ---
	// Loaded separately based on the selected backend.
	ChainSpecific any `yaml:"-"`
}

// SetDefaults fills in the common gateway behavior settings.
func (c *LedgerConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "chainmaker"
		fmt.Printf("Warning: ledger.backend not set, defaulting to %s\n", c.Backend)
	}
	if c.RetryLimit <= 0 {
		c.RetryLimit = 3
		fmt.Printf("Warning: ledger.retry_limit not set or invalid, defaulting to %d\n", c.RetryLimit)
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 500
		fmt.Printf("Warning: ledger.retry_interval not set or invalid, defaulting to %dms\n", c.RetryInterval)
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
		fmt.Printf("Warning: ledger.timeout_seconds not set or invalid, defaulting to %ds\n", c.TimeoutSeconds)
	}
}

// Validate checks the settings a gateway session cannot start without.
func (c *LedgerConfig) Validate() error {
	if c.Backend != "chainmaker" && c.Backend != "local" {
		return fmt.Errorf("unsupported ledger backend: %s", c.Backend)
	}
	if c.Backend == "chainmaker" {
		if c.WalletDir == "" {
			return fmt.Errorf("ledger wallet_dir is required")
		}
		if c.IdentityAlias == "" {
			return fmt.Errorf("ledger identity_alias is required")
		}
	}
	return nil
}

// LoadLedgerConfig loads the gateway configuration from the specified YAML
// file path.
func LoadLedgerConfig(path string) (*LedgerConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of ledger config file: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger config file '%s': %w", absPath, err)
	}

	var cfg LedgerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse ledger YAML config file: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ledger configuration error: %w", err)
	}
	return &cfg, nil
}
