package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeAssignmentStatus TicketChangeType = "ASSIGNMENT_STATUS_CHANGE"
	ChangeTypeOverallStatus    TicketChangeType = "OVERALL_STATUS_CHANGE"
	ChangeTypeAssignees        TicketChangeType = "ASSIGNEES_CHANGE"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID          string
	TicketID    string
	ChangedByID *string
	ChangeType  TicketChangeType
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}
