package reminder

import (
	"fmt"
	"strings"

	"github.com/autoshop-crm/reminderd/core/model"
)

// RenderMessage builds the SMS body for a proactive service reminder.
func RenderMessage(tenant model.Tenant, customer model.Customer, vehicle model.Vehicle, predictedOdometer int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n", customer.FullName())
	fmt.Fprintf(&b, "your %s will soon reach %d km and is due for service.\n",
		vehicle.Description(), predictedOdometer)
	if tenant.Website != "" {
		fmt.Fprintf(&b, "Book a visit at %s\n", tenant.Website)
	}
	b.WriteString(tenant.Name)
	if tenant.Phone != "" {
		b.WriteString(" | " + tenant.Phone)
	}
	return b.String()
}
