package model

// Tenant represents a single repair shop. All fleet and reminder data is
// scoped to one tenant; tenants never share state.
type Tenant struct {
	ID      string
	Name    string
	Phone   string
	Website string

	// Active marks the tenant as a live deployment. Inactive tenants are
	// excluded from reminder sweeps.
	Active bool
	// RemindersEnabled gates proactive SMS reminders per tenant.
	RemindersEnabled bool
}

// Customer owns one or more vehicles and is the recipient of reminders.
type Customer struct {
	ID        string
	TenantID  string
	FirstName string
	LastName  string
	Phone     string // SMS contact, unique per tenant
}

// FullName returns the customer's display name.
func (c Customer) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
