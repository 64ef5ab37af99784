package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. Any direct
// transition between states is permitted for staff callers; there is no
// enforced ordering and no terminal state.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Valid reports whether the status is a known lifecycle state.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Unresolved reports whether the ticket still needs attention. Unresolved
// tickets block category deactivation and are unassigned when their
// assignee is deactivated.
func (s TicketStatus) Unresolved() bool {
	return s == TicketStatusOpen || s == TicketStatusInProgress
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Valid reports whether the priority is a known level.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// VoteDirection identifies the side of a ticket vote.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Valid reports whether the direction is up or down.
func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// Ticket is the aggregate for support requests.
//
// Revision is an optimistic concurrency token: every save increments it and
// a save against a stale revision is rejected, so two agents racing on the
// same ticket see a conflict instead of silently overwriting each other.
type Ticket struct {
	ID             string
	Subject        string
	Body           string
	CategoryID     string
	Status         TicketStatus
	Priority       TicketPriority
	CreatedBy      string
	AssignedTo     *string
	Revision       int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastActivityAt time.Time
	ResolvedAt     *time.Time
}

// Comment is an append-only entry on a ticket's discussion thread.
// Internal comments are visible to staff only, never to the end-user
// creator of the ticket.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	Internal  bool
	CreatedAt time.Time
}

// Attachment references a blob stored at ticket creation time. The list is
// immutable once the ticket exists.
type Attachment struct {
	ID          string
	TicketID    string
	StorageKey  string
	FileName    string
	ContentType string
	SizeBytes   int64
	Position    int
}

// Vote records one account's signal on a ticket. An account holds at most
// one vote per ticket; re-voting replaces the previous direction.
type Vote struct {
	TicketID  string
	AccountID string
	Direction VoteDirection
	CreatedAt time.Time
}

// VoteCounts summarizes a ticket's vote sets.
type VoteCounts struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}
