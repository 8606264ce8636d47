package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/autoshop-crm/reminderd/core/logger"
)

// TriggerConfig defines when the daily sweep fires.
type TriggerConfig struct {
	// Enabled turns the background trigger on or off.
	Enabled bool `json:"enabled"`
	// Hour is the local hour of day (0-23) at which sweeps run.
	Hour int `json:"hour"`
}

// SetDefaults applies the domain defaults.
func (c *TriggerConfig) SetDefaults() {
	if c.Hour == 0 {
		c.Hour = 9
	}
}

// Validate checks the configuration.
func (c TriggerConfig) Validate() error {
	if c.Hour < 0 || c.Hour > 23 {
		return fmt.Errorf("hour must be between 0 and 23, got %d", c.Hour)
	}
	return nil
}

// DailyTrigger fires a callback once per day at the configured hour. It is
// constructed explicitly and owned by the service lifecycle; there is no
// process-wide scheduler state.
type DailyTrigger struct {
	cfg TriggerConfig
	log logger.Logger
	now func() time.Time
}

// NewDailyTrigger creates a trigger from the configuration.
func NewDailyTrigger(cfg TriggerConfig, log logger.Logger) (*DailyTrigger, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("trigger config: %w", err)
	}
	return &DailyTrigger{cfg: cfg, log: log, now: time.Now}, nil
}

// Run blocks until the context is cancelled, invoking fn at the configured
// hour each day. When the trigger is disabled it returns immediately.
func (t *DailyTrigger) Run(ctx context.Context, fn func(context.Context)) error {
	if !t.cfg.Enabled {
		t.log.Infof("daily trigger disabled")
		return nil
	}
	t.log.Infof("daily trigger scheduled at %02d:00", t.cfg.Hour)
	for {
		next := t.nextFiring(t.now())
		timer := time.NewTimer(next.Sub(t.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			fn(ctx)
		}
	}
}

// nextFiring returns the next occurrence of the configured hour strictly
// after now.
func (t *DailyTrigger) nextFiring(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), t.cfg.Hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
