package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autoshop-crm/reminderd/infra/logger"
)

func TestHTTPGatewayPostsMessage(t *testing.T) {
	var got struct {
		To      string `json:"to"`
		From    string `json:"from"`
		Message string `json:"message"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw, err := NewHTTPGateway(HTTPConfig{URL: srv.URL, AuthToken: "secret", From: "AutoShop"}, logger.NopLogger{})
	require.NoError(t, err)
	require.NoError(t, gw.Notify(context.Background(), "+359888000111", "service due"))
	require.Equal(t, "+359888000111", got.To)
	require.Equal(t, "AutoShop", got.From)
	require.Equal(t, "service due", got.Message)
}

func TestHTTPGatewayRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	gw, err := NewHTTPGateway(HTTPConfig{URL: srv.URL}, logger.NopLogger{})
	require.NoError(t, err)
	err = gw.Notify(context.Background(), "+1", "msg")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestHTTPConfigValidate(t *testing.T) {
	_, err := NewHTTPGateway(HTTPConfig{}, logger.NopLogger{})
	require.Error(t, err)
}

func TestMockNotifierRecords(t *testing.T) {
	n := NewMockNotifier()
	require.NoError(t, n.Notify(context.Background(), "+1", "hello"))
	msgs := n.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "hello", msgs[0].Message)

	n.Err = fmt.Errorf("gateway down")
	require.Error(t, n.Notify(context.Background(), "+1", "again"))
	require.Len(t, n.Messages(), 1)
}

func TestFactorySelectsKind(t *testing.T) {
	cfg := Config{Kind: KindLog}
	cfg.SetDefaults()
	n, err := New(cfg, logger.NopLogger{})
	require.NoError(t, err)
	require.IsType(t, &LogNotifier{}, n)

	cfg = Config{Kind: KindHTTP, HTTP: HTTPConfig{URL: "http://localhost:1"}}
	cfg.SetDefaults()
	n, err = New(cfg, logger.NopLogger{})
	require.NoError(t, err)
	require.IsType(t, &HTTPGateway{}, n)

	_, err = New(Config{Kind: "smoke"}, logger.NopLogger{})
	require.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	require.Equal(t, KindLog, cfg.Kind)
	require.Equal(t, "sms/send", cfg.MQTT.SendTopic)
	require.Equal(t, 10, cfg.HTTP.TimeoutSeconds)
}
