package reminder

import "fmt"

// Config defines sweep parameters loaded from configuration.
type Config struct {
	// SuppressionWindowDays is the minimum elapsed time after a sent
	// reminder before another may be sent for the same vehicle.
	SuppressionWindowDays int `json:"suppression_window_days"`
	// Workers bounds the number of vehicles evaluated concurrently within
	// one tenant sweep.
	Workers int `json:"workers"`
}

// SetDefaults applies the domain defaults.
func (c *Config) SetDefaults() {
	if c.SuppressionWindowDays == 0 {
		c.SuppressionWindowDays = 30
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SuppressionWindowDays <= 0 {
		return fmt.Errorf("suppression_window_days must be positive, got %d", c.SuppressionWindowDays)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}
