package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the complete application configuration.
type Config struct {
	VerifyServer *VerifyServerConfig
	Review       *ReviewConfig
	Notifier     *NotifierConfig
	Ledger       *LedgerConfig
}

// LoadConfig loads all configuration files present in a directory. Missing
// files leave the corresponding section nil; each binary checks for the
// section it needs.
func LoadConfig(configDir string) (*Config, error) {
	absDir, err := filepath.Abs(configDir)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of config directory: %w", err)
	}

	config := &Config{}

	verifyPath := filepath.Join(absDir, "verify.defaults.yml")
	if _, err := os.Stat(verifyPath); err == nil {
		cfg, err := LoadVerifyServerConfig(verifyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load verify server config: %w", err)
		}
		config.VerifyServer = cfg
	}

	reviewPath := filepath.Join(absDir, "review.defaults.yml")
	if _, err := os.Stat(reviewPath); err == nil {
		cfg, err := LoadReviewConfig(reviewPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load review config: %w", err)
		}
		config.Review = cfg
	}

	notifierPath := filepath.Join(absDir, "notifier.defaults.yml")
	if _, err := os.Stat(notifierPath); err == nil {
		cfg, err := LoadNotifierConfig(notifierPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load notifier config: %w", err)
		}
		config.Notifier = cfg
	}

	ledgerPath := filepath.Join(absDir, "ledger_client.yml")
	if _, err := os.Stat(ledgerPath); err == nil {
		cfg, err := LoadLedgerConfig(ledgerPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load ledger config: %w", err)
		}
		config.Ledger = cfg
	}

	return config, nil
}
