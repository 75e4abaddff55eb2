package domain

import "time"

// OverallStatus is the ticket-level status.
type OverallStatus string

const (
	OverallStatusPending    OverallStatus = "PENDING"
	OverallStatusOpen       OverallStatus = "OPEN"
	OverallStatusInProgress OverallStatus = "IN_PROGRESS"
	OverallStatusCompleted  OverallStatus = "COMPLETED"
	OverallStatusClosed     OverallStatus = "CLOSED"
)

// StatusSource records which path last wrote the overall status.
type StatusSource string

const (
	StatusSourceDerived StatusSource = "DERIVED"
	StatusSourceAdmin   StatusSource = "ADMIN"
)

// Ticket is a unit of work assigned to one or more users.
type Ticket struct {
	ID           string
	Title        string
	Description  *string
	DueDate      *time.Time
	CreatorID    string
	Creator      *UserRef
	Status       OverallStatus
	StatusSource StatusSource
	Assignments  []Assignment
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AssignmentFor returns the assignment held by userID, if any.
func (t *Ticket) AssignmentFor(userID string) (*Assignment, bool) {
	for i := range t.Assignments {
		if t.Assignments[i].UserID == userID {
			return &t.Assignments[i], true
		}
	}
	return nil, false
}

// AssigneeIDs lists the user ids holding an assignment, in assignment order.
func (t *Ticket) AssigneeIDs() []string {
	ids := make([]string, 0, len(t.Assignments))
	for _, a := range t.Assignments {
		ids = append(ids, a.UserID)
	}
	return ids
}
