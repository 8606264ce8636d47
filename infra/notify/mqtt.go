package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/autoshop-crm/reminderd/infra/logger"
)

// MQTTConfig configures the MQTT SMS bridge.
type MQTTConfig struct {
	Broker            string `json:"broker"`
	ClientID          string `json:"client_id"`
	Username          string `json:"username"`
	Password          string `json:"password"`
	SendTopic         string `json:"send_topic"`
	AckTopic          string `json:"ack_topic"`
	QoS               byte   `json:"qos"`
	AckTimeoutSeconds int    `json:"ack_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *MQTTConfig) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "reminderd"
	}
	if c.SendTopic == "" {
		c.SendTopic = "sms/send"
	}
	if c.AckTopic == "" {
		c.AckTopic = "sms/ack"
	}
	if c.AckTimeoutSeconds <= 0 {
		c.AckTimeoutSeconds = 10
	}
}

// Validate checks mandatory fields.
func (c MQTTConfig) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTNotifier publishes outbound messages to an MQTT topic consumed by an
// external SMS bridge and waits for a per-message acknowledgment before
// reporting the delivery as successful.
type MQTTNotifier struct {
	cli        pahoClient
	cfg        MQTTConfig
	ackTimeout time.Duration
	log        logger.Logger

	mu       sync.Mutex
	ackChans map[string]chan struct{}
}

// NewMQTTNotifier connects to the broker and subscribes to the ACK topic.
func NewMQTTNotifier(cfg MQTTConfig, log logger.Logger) (*MQTTNotifier, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	n := &MQTTNotifier{
		cfg:        cfg,
		ackTimeout: time.Duration(cfg.AckTimeoutSeconds) * time.Second,
		log:        log,
		ackChans:   make(map[string]chan struct{}),
	}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(cfg.AckTopic, cfg.QoS, n.onAck); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	n.cli = c
	return n, nil
}

func (n *MQTTNotifier) onAck(_ paho.Client, msg paho.Message) {
	var m struct {
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		n.log.Errorf("failed to decode ack: %v", err)
		return
	}
	n.mu.Lock()
	if ch, ok := n.ackChans[m.MessageID]; ok {
		select {
		case ch <- struct{}{}:
		default:
		}
		n.log.Infof("received ack %s", m.MessageID)
	}
	n.mu.Unlock()
}

// Notify publishes the message and waits for the bridge's acknowledgment.
func (n *MQTTNotifier) Notify(ctx context.Context, to, message string) error {
	msgID := uuid.NewString()
	payload, err := json.Marshal(struct {
		MessageID string `json:"message_id"`
		To        string `json:"to"`
		Message   string `json:"message"`
		Timestamp int64  `json:"timestamp"`
	}{MessageID: msgID, To: to, Message: message, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		return err
	}

	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.ackChans[msgID] = ch
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		delete(n.ackChans, msgID)
		n.mu.Unlock()
	}()

	token := n.cli.Publish(n.cfg.SendTopic, n.cfg.QoS, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish sms: %w", err)
	}

	timer := time.NewTimer(n.ackTimeout)
	defer timer.Stop()
	select {
	case <-ch:
		n.log.Infof("sms %s acknowledged", msgID)
		return nil
	case <-timer.C:
		return fmt.Errorf("sms %s: ack timeout", msgID)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect gracefully closes the MQTT connection.
func (n *MQTTNotifier) Disconnect() {
	if n.cli != nil && n.cli.IsConnected() {
		n.cli.Disconnect(250)
	}
}
