package reminder

import (
	"time"

	"github.com/autoshop-crm/reminderd/core/model"
)

// ReminderSentEvent is published on the event bus after a confirmed send.
type ReminderSentEvent struct {
	Record model.ReminderRecord
	SentAt time.Time
}

// SweepCompletedEvent is published after each tenant sweep.
type SweepCompletedEvent struct {
	Report TenantReport
}
