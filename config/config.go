// Package config loads the service configuration from a JSON or YAML
// file with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/autoshop-crm/reminderd/core/metrics"
	"github.com/autoshop-crm/reminderd/core/prediction"
	"github.com/autoshop-crm/reminderd/core/reminder"
	"github.com/autoshop-crm/reminderd/infra/notify"
	"github.com/autoshop-crm/reminderd/infra/store/sqlite"
)

type Config struct {
	Store      sqlite.Config          `json:"store"`
	Prediction prediction.Config      `json:"prediction"`
	Reminder   reminder.Config        `json:"reminder"`
	Trigger    reminder.TriggerConfig `json:"trigger"`
	Notifier   notify.Config          `json:"notifier"`
	Metrics    metrics.Config         `json:"metrics"`
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Store.SetDefaults()
	c.Prediction.SetDefaults()
	c.Reminder.SetDefaults()
	c.Trigger.SetDefaults()
	c.Notifier.SetDefaults()
	c.Metrics.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Prediction.Validate(); err != nil {
		return fmt.Errorf("prediction: %w", err)
	}
	if err := c.Reminder.Validate(); err != nil {
		return fmt.Errorf("reminder: %w", err)
	}
	if err := c.Trigger.Validate(); err != nil {
		return fmt.Errorf("trigger: %w", err)
	}
	if err := c.Notifier.Validate(); err != nil {
		return fmt.Errorf("notifier: %w", err)
	}
	return nil
}

// Load reads the configuration file, applies RD_-prefixed environment
// overrides, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. RD_NOTIFIER__HTTP__AUTH_TOKEN.
	if err := k.Load(env.Provider("RD_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "rd_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
