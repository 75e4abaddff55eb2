package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated           EventType = "ticket_created"
	EventTicketEdited            EventType = "ticket_edited"
	EventAssignmentStatusChanged EventType = "assignment_status_changed"
	EventOverallStatusChanged    EventType = "overall_status_changed"
)

// AllEventTypes lists every type services emit.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketEdited,
	EventAssignmentStatusChanged,
	EventOverallStatusChanged,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// ActorFrom converts an authenticated actor.
func ActorFrom(a domain.Actor) Actor {
	return Actor{UserID: a.ID, Role: a.Role}
}

// Event represents a domain event emitted by services after a unit of work commits.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with an id and the current time.
func New(eventType EventType, ticketID string, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title       string   `json:"title"`
	AssigneeIDs []string `json:"assignee_ids"`
}

// TicketEditedPayload payload.
type TicketEditedPayload struct {
	Fields      []string `json:"fields"`
	AssigneeIDs []string `json:"assignee_ids,omitempty"`
}

// AssignmentStatusChangedPayload payload.
type AssignmentStatusChangedPayload struct {
	UserID    string                  `json:"user_id"`
	OldStatus domain.AssignmentStatus `json:"old_status"`
	NewStatus domain.AssignmentStatus `json:"new_status"`
}

// OverallStatusChangedPayload payload.
type OverallStatusChangedPayload struct {
	OldStatus domain.OverallStatus `json:"old_status"`
	NewStatus domain.OverallStatus `json:"new_status"`
	Source    domain.StatusSource  `json:"source"`
}
