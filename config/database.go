package config

import "fmt"

// DatabaseConfig defines the PostgreSQL connection settings shared by the
// review service and the notification delivery worker.
type DatabaseConfig struct {
	DSN            string `yaml:"dsn"`
	MaxConnections int    `yaml:"max_connections"`
	MinConnections int    `yaml:"min_connections"`
	MaxIdleTime    string `yaml:"max_idle_time"`
	MaxLifetime    string `yaml:"max_lifetime"`
}

// SetDefaults sets sensible default values for the pool settings.
func (c *DatabaseConfig) SetDefaults() {
	if c.MaxConnections <= 0 {
		c.MaxConnections = 25
		fmt.Printf("Warning: database.max_connections not set or invalid, defaulting to %d\n", c.MaxConnections)
	}
	if c.MinConnections <= 0 {
		c.MinConnections = 2
		fmt.Printf("Warning: database.min_connections not set or invalid, defaulting to %d\n", c.MinConnections)
	}
	if c.MaxIdleTime == "" {
		c.MaxIdleTime = "1h"
	}
	if c.MaxLifetime == "" {
		c.MaxLifetime = "24h"
	}
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min_connections (%d) cannot be greater than max_connections (%d)",
			c.MinConnections, c.MaxConnections)
	}
	return nil
}
