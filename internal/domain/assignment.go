package domain

import "time"

// AssignmentStatus is an individual assignee's progress on a ticket.
type AssignmentStatus string

const (
	AssignmentStatusPending    AssignmentStatus = "PENDING"
	AssignmentStatusInProgress AssignmentStatus = "IN_PROGRESS"
	AssignmentStatusCompleted  AssignmentStatus = "COMPLETED"
)

// Assignment binds exactly one ticket to one user.
type Assignment struct {
	ID        string
	TicketID  string
	UserID    string
	User      *UserRef
	Status    AssignmentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
