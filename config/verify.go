package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// HttpServerConfig defines HTTP server tuning shared by both services.
type HttpServerConfig struct {
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// VerifyServerConfig defines all configuration for the verification API
// server, the only process holding a privileged ledger identity.
type VerifyServerConfig struct {
	HttpListenAddr string   `yaml:"http_listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// TempDir receives uploaded files before they are encoded for submission.
	TempDir string `yaml:"temp_dir"`

	// PublicBaseURL is used to synthesize download links in view responses.
	PublicBaseURL string `yaml:"public_base_url"`

	// MaxUploadBytes bounds the multipart request body.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	HttpServer HttpServerConfig `yaml:"http_server"`

	// LedgerClientConfigPath points at the gateway configuration file.
	LedgerClientConfigPath string `yaml:"ledger_client_config_path"`
}

// SetDefaults sets reasonable default values for the verification server.
func (c *VerifyServerConfig) SetDefaults() {
	if c.HttpListenAddr == "" {
		c.HttpListenAddr = ":4000"
		fmt.Printf("Warning: http_listen_addr not set, defaulting to %s\n", c.HttpListenAddr)
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.TempDir == "" {
		c.TempDir = "./temp"
		fmt.Printf("Warning: temp_dir not set, defaulting to %s\n", c.TempDir)
	}
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = "http://localhost:4000"
		fmt.Printf("Warning: public_base_url not set, defaulting to %s\n", c.PublicBaseURL)
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 10 * 1024 * 1024
	}
}

// Validate checks the verification server configuration.
func (c *VerifyServerConfig) Validate() error {
	if c.LedgerClientConfigPath == "" {
		return fmt.Errorf("ledger_client_config_path is required")
	}
	return nil
}

// LoadVerifyServerConfig loads the verification API server configuration from
// the specified YAML file path.
func LoadVerifyServerConfig(path string) (*VerifyServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read verify server config file '%s': %w", path, err)
	}

	var cfg VerifyServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse verify server YAML config file: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
