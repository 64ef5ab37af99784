package domain

import "time"

// Role enumerates authorization tiers.
type Role string

const (
	RoleEndUser Role = "END_USER"
	RoleAgent   Role = "AGENT"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether the role is a known tier.
func (r Role) Valid() bool {
	switch r {
	case RoleEndUser, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may triage tickets.
func (r Role) IsStaff() bool {
	return r == RoleAgent || r == RoleAdmin
}

// NotificationPreferences gate outbound email per account.
type NotificationPreferences struct {
	Email         bool `json:"email"`
	TicketUpdates bool `json:"ticket_updates"`
}

// DefaultNotificationPreferences enables all channels.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{Email: true, TicketUpdates: true}
}

// Account is the local representation of an authenticated user, keyed by
// the external identity provider's subject id.
type Account struct {
	ID          string
	SubjectID   string
	Email       string
	Name        string
	AvatarURL   *string
	Role        Role
	Active      bool
	Preferences NotificationPreferences
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
