// Package retention prunes old progress history from the store.
package retention

import "time"

// Config defines the retention worker configuration.
type Config struct {
	// RetentionDays is how long history rows are kept.
	RetentionDays int `yaml:"retention_days"`
	// Interval is how often the worker prunes.
	Interval time.Duration `yaml:"interval"`
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 30,
		Interval:      time.Hour,
	}
}

// Window returns the retention window as a duration.
func (c *Config) Window() time.Duration {
	days := c.RetentionDays
	if days <= 0 {
		days = DefaultConfig().RetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}
