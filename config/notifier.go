package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// KafkaConsumerConfig defines configuration for the notification consumer.
type KafkaConsumerConfig struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	GroupID           string   `yaml:"group_id"`
	Count             int      `yaml:"count"`               // Number of consumers to create
	SessionTimeout    string   `yaml:"session_timeout"`     // Kafka session timeout
	HeartbeatInterval string   `yaml:"heartbeat_interval"`  // Kafka heartbeat interval
	MaxProcessingTime string   `yaml:"max_processing_time"` // Maximum time for processing a message
	AutoOffsetReset   string   `yaml:"auto_offset_reset"`   // earliest/latest
	EnableAutoCommit  bool     `yaml:"enable_auto_commit"`
}

// SetDefaults sets reasonable default values for the Kafka consumer.
func (c *KafkaConsumerConfig) SetDefaults() {
	if c.Count <= 0 {
		c.Count = 1
		fmt.Printf("Warning: kafka_consumer.count not set or invalid, defaulting to %d\n", c.Count)
	}
	if c.SessionTimeout == "" {
		c.SessionTimeout = "30s"
	}
	if c.HeartbeatInterval == "" {
		c.HeartbeatInterval = "3s"
	}
	if c.MaxProcessingTime == "" {
		c.MaxProcessingTime = "5m"
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = "earliest"
	}
}

// DeliveryConfig defines configuration for the notification delivery worker.
type DeliveryConfig struct {
	Concurrency        int    `yaml:"concurrency"`          // Workers per consumer
	ConsumerRetryDelay string `yaml:"consumer_retry_delay"` // Delay after consumer errors
	StoreTimeout       string `yaml:"store_timeout"`        // Timeout for store writes
}

// SetDefaults sets reasonable default values for the delivery worker.
func (c *DeliveryConfig) SetDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
		fmt.Printf("Warning: delivery.concurrency not set or invalid, defaulting to %d\n", c.Concurrency)
	}
	if c.ConsumerRetryDelay == "" {
		c.ConsumerRetryDelay = "5s"
	}
	if c.StoreTimeout == "" {
		c.StoreTimeout = "10s"
	}
}

// NotifierConfig defines all configuration for the notification delivery
// service.
type NotifierConfig struct {
	Database      DatabaseConfig      `yaml:"database"`
	KafkaConsumer KafkaConsumerConfig `yaml:"kafka_consumer"`
	Delivery      DeliveryConfig      `yaml:"delivery"`

	// MaxDeliveryRetries bounds redelivery of a notification that keeps
	// failing to persist.
	MaxDeliveryRetries int `yaml:"max_delivery_retries"`
}

// LoadNotifierConfig loads the notifier configuration from the specified YAML
// file path.
func LoadNotifierConfig(path string) (*NotifierConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read notifier config file '%s': %w", path, err)
	}

	var cfg NotifierConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse notifier YAML config file: %w", err)
	}
	cfg.Database.SetDefaults()
	cfg.KafkaConsumer.SetDefaults()
	cfg.Delivery.SetDefaults()
	if cfg.MaxDeliveryRetries <= 0 {
		cfg.MaxDeliveryRetries = 3
		fmt.Printf("Warning: max_delivery_retries not set or invalid, defaulting to %d\n", cfg.MaxDeliveryRetries)
	}

	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("database configuration error: %w", err)
	}
	return &cfg, nil
}
