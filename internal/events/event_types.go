package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketUpdated  EventType = "ticket_updated"
	EventTicketAssigned EventType = "ticket_assigned"
	EventCommentAdded   EventType = "comment_added"
)

// Event is a domain event emitted by services. Events carry ids only;
// consumers resolve current entity state at delivery time, so an event
// survives a broker round-trip without dragging snapshots along.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	TicketID   string    `json:"ticket_id"`
	ActorID    string    `json:"actor_id"`
	CommentID  string    `json:"comment_id,omitempty"`
	AssigneeID string    `json:"assignee_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
