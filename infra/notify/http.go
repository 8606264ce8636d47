package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/autoshop-crm/reminderd/infra/logger"
)

// HTTPConfig configures the HTTP SMS gateway.
type HTTPConfig struct {
	URL            string `json:"url"`
	AuthToken      string `json:"auth_token"`
	From           string `json:"from"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
}

// Validate checks mandatory fields.
func (c HTTPConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	return nil
}

// HTTPGateway posts messages to an SMS provider's REST endpoint.
type HTTPGateway struct {
	cfg    HTTPConfig
	client *http.Client
	log    logger.Logger
}

// NewHTTPGateway creates an HTTPGateway.
func NewHTTPGateway(cfg HTTPConfig, log logger.Logger) (*HTTPGateway, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &HTTPGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:    log,
	}, nil
}

// Notify sends the message to the recipient. Any non-2xx response is an
// error so the caller keeps the reminder pending and retries next sweep.
func (g *HTTPGateway) Notify(ctx context.Context, to, message string) error {
	body, err := json.Marshal(struct {
		To      string `json:"to"`
		From    string `json:"from"`
		Message string `json:"message"`
	}{To: to, From: g.cfg.From, Message: message})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.AuthToken)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, snippet)
	}
	g.log.Infof("sms delivered to %s", to)
	return nil
}
