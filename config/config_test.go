package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
store:
  path: /tmp/reminders.db
prediction:
  min_visits: 3
  horizon_days: 21
trigger:
  enabled: true
  hour: 7
notifier:
  kind: http
  http:
    url: https://sms.example/send
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/reminders.db", cfg.Store.Path)
	require.Equal(t, 3, cfg.Prediction.MinVisits)
	require.Equal(t, 21, cfg.Prediction.HorizonDays)
	require.Equal(t, 7, cfg.Trigger.Hour)
	require.Equal(t, "http", cfg.Notifier.Kind)
	// Defaults fill the untouched sections.
	require.Equal(t, 30, cfg.Reminder.SuppressionWindowDays)
	require.Equal(t, ":9090", cfg.Metrics.PrometheusPort)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
  "reminder": {"suppression_window_days": 45, "workers": 8},
  "notifier": {"kind": "log"}
}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 45, cfg.Reminder.SuppressionWindowDays)
	require.Equal(t, 8, cfg.Reminder.Workers)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeFile(t, "config.yaml", `
notifier:
  kind: http
  http:
    url: https://sms.example/send
`)
	t.Setenv("RD_NOTIFIER__HTTP__AUTH_TOKEN", "secret")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "secret", cfg.Notifier.HTTP.AuthToken)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "config.toml", "store = {}")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeFile(t, "config.yaml", `
prediction:
  min_visits: 1
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBadNotifier(t *testing.T) {
	path := writeFile(t, "config.yaml", `
notifier:
  kind: carrier_pigeon
`)
	_, err := Load(path)
	require.Error(t, err)
}
