package notify

import (
	"context"
	"sync"

	"github.com/autoshop-crm/reminderd/infra/logger"
)

// LogNotifier logs messages instead of delivering them. Useful for
// development and dry runs.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, to, message string) error {
	n.log.Infof("reminder for %s (not delivered): %s", to, message)
	return nil
}

// MockNotifier records delivered messages for tests.
type MockNotifier struct {
	mu       sync.Mutex
	messages []MockMessage
	Err      error
}

// MockMessage is a single recorded delivery.
type MockMessage struct {
	To      string
	Message string
}

// NewMockNotifier creates an empty MockNotifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (n *MockNotifier) Notify(_ context.Context, to, message string) error {
	if n.Err != nil {
		return n.Err
	}
	n.mu.Lock()
	n.messages = append(n.messages, MockMessage{To: to, Message: message})
	n.mu.Unlock()
	return nil
}

// Messages returns a copy of the recorded deliveries.
func (n *MockNotifier) Messages() []MockMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]MockMessage, len(n.messages))
	copy(out, n.messages)
	return out
}
