package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// KafkaProducerConfig defines configuration for the notification producer.
type KafkaProducerConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// Batch settings
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	BatchBytes   int           `yaml:"batch_bytes"`

	// Reliability settings
	RequiredAcks string `yaml:"required_acks"`
	Async        bool   `yaml:"async"`

	// Performance settings
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

// ReviewConfig defines all configuration for the review service, which holds
// the document metadata store and orchestrates the review state machine.
type ReviewConfig struct {
	HttpListenAddr string `yaml:"http_listen_addr"`

	Database      DatabaseConfig      `yaml:"database"`
	KafkaProducer KafkaProducerConfig `yaml:"kafka_producer"`
	HttpServer    HttpServerConfig    `yaml:"http_server"`

	// VerifyAPIBaseURL is the verification API server the approve flow
	// submits to (e.g. http://localhost:4000).
	VerifyAPIBaseURL string `yaml:"verify_api_base_url"`

	// BlobDir is the root of the local blob store holding uploaded file bytes.
	BlobDir string `yaml:"blob_dir"`

	// SubmitTimeout bounds the whole approve-side HTTP submission.
	SubmitTimeout time.Duration `yaml:"submit_timeout"`
}

// SetDefaults sets reasonable default values for the review service.
func (c *ReviewConfig) SetDefaults() {
	if c.HttpListenAddr == "" {
		c.HttpListenAddr = ":4100"
		fmt.Printf("Warning: http_listen_addr not set, defaulting to %s\n", c.HttpListenAddr)
	}
	if c.VerifyAPIBaseURL == "" {
		c.VerifyAPIBaseURL = "http://localhost:4000"
		fmt.Printf("Warning: verify_api_base_url not set, defaulting to %s\n", c.VerifyAPIBaseURL)
	}
	if c.BlobDir == "" {
		c.BlobDir = "./blobs"
		fmt.Printf("Warning: blob_dir not set, defaulting to %s\n", c.BlobDir)
	}
	if c.SubmitTimeout == 0 {
		c.SubmitTimeout = 30 * time.Second
	}
	c.Database.SetDefaults()
}

// LoadReviewConfig loads the review service configuration from the specified
// YAML file path.
func LoadReviewConfig(path string) (*ReviewConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read review config file '%s': %w", path, err)
	}

	var cfg ReviewConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse review YAML config file: %w", err)
	}
	cfg.SetDefaults()

	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("database configuration error: %w", err)
	}
	return &cfg, nil
}
