package prediction

import "fmt"

// Estimator kinds selectable via configuration.
const (
	EstimatorTwoPoint     = "two_point"
	EstimatorLeastSquares = "least_squares"
)

// Config defines prediction parameters loaded from configuration.
type Config struct {
	// MinVisits is the minimum number of odometer-bearing visits required
	// before a rate can be estimated.
	MinVisits int `json:"min_visits"`
	// HorizonDays is how far ahead mileage is projected when deciding
	// whether service falls due.
	HorizonDays int `json:"horizon_days"`
	// Estimator selects the rate estimation strategy.
	Estimator string `json:"estimator"`
}

// SetDefaults applies the domain defaults.
func (c *Config) SetDefaults() {
	if c.MinVisits == 0 {
		c.MinVisits = 2
	}
	if c.HorizonDays == 0 {
		c.HorizonDays = 14
	}
	if c.Estimator == "" {
		c.Estimator = EstimatorTwoPoint
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MinVisits < 2 {
		return fmt.Errorf("min_visits must be at least 2, got %d", c.MinVisits)
	}
	if c.HorizonDays <= 0 {
		return fmt.Errorf("horizon_days must be positive, got %d", c.HorizonDays)
	}
	if c.Estimator != EstimatorTwoPoint && c.Estimator != EstimatorLeastSquares {
		return fmt.Errorf("unknown estimator %q", c.Estimator)
	}
	return nil
}
