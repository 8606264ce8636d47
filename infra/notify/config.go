// Package notify delivers reminder messages to customers through a
// pluggable gateway: an HTTP SMS provider, an MQTT bridge or a log-only
// sink for development.
package notify

import (
	"fmt"

	"github.com/autoshop-crm/reminderd/core/reminder"
	"github.com/autoshop-crm/reminderd/infra/logger"
)

// Supported gateway kinds.
const (
	KindHTTP = "http"
	KindMQTT = "mqtt"
	KindLog  = "log"
)

// Config selects and configures the outbound gateway.
type Config struct {
	Kind string     `json:"kind"`
	HTTP HTTPConfig `json:"http"`
	MQTT MQTTConfig `json:"mqtt"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Kind == "" {
		c.Kind = KindLog
	}
	c.HTTP.SetDefaults()
	c.MQTT.SetDefaults()
}

// Validate checks the selected gateway's configuration.
func (c Config) Validate() error {
	switch c.Kind {
	case KindHTTP:
		return c.HTTP.Validate()
	case KindMQTT:
		return c.MQTT.Validate()
	case KindLog:
		return nil
	default:
		return fmt.Errorf("unknown notifier kind %q", c.Kind)
	}
}

// New builds the notifier selected by cfg.Kind.
func New(cfg Config, log logger.Logger) (reminder.Notifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("notifier config: %w", err)
	}
	switch cfg.Kind {
	case KindHTTP:
		return NewHTTPGateway(cfg.HTTP, log)
	case KindMQTT:
		return NewMQTTNotifier(cfg.MQTT, log)
	default:
		return NewLogNotifier(log), nil
	}
}
