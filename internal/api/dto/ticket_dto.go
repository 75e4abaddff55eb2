package dto

import (
	"time"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/service"
)

const dateLayout = "2006-01-02"

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title         string   `json:"title" validate:"required,max=500"`
	Description   *string  `json:"description" validate:"omitempty,max=10000"`
	DueDate       *string  `json:"dueDate"`
	AssignedToIDs []string `json:"assignedToIds" validate:"required,min=1,dive,required"`
}

// EditTicketRequest payload. Absent fields are left unchanged.
type EditTicketRequest struct {
	Title         *string   `json:"title" validate:"omitempty,max=500"`
	Description   *string   `json:"description" validate:"omitempty,max=10000"`
	DueDate       *string   `json:"dueDate"`
	AssignedToIDs *[]string `json:"assignedToIds" validate:"omitempty,min=1,dive,required"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	TicketID string `json:"ticketId" validate:"required"`
	Status   string `json:"status" validate:"required"`
	UserID   string `json:"userId"`
}

// AssignmentResponse is one assignee's view of a ticket.
type AssignmentResponse struct {
	ID        string                  `json:"id"`
	TicketID  string                  `json:"ticketId"`
	UserID    string                  `json:"userId"`
	User      *UserRefResponse        `json:"user,omitempty"`
	Status    domain.AssignmentStatus `json:"status"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Description   *string              `json:"description"`
	DueDate       *string              `json:"dueDate"`
	CreatedByID   string               `json:"createdById"`
	CreatedBy     *UserRefResponse     `json:"createdBy,omitempty"`
	OverallStatus domain.OverallStatus `json:"overallStatus"`
	StatusSource  domain.StatusSource  `json:"statusSource"`
	Assignments   []AssignmentResponse `json:"assignments"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// TicketListResponse wraps list endpoints.
type TicketListResponse struct {
	Total   int              `json:"total"`
	Tickets []TicketResponse `json:"tickets"`
}

// AssignmentStatusResponse is returned by the assignment path of update-status.
type AssignmentStatusResponse struct {
	Assignment    AssignmentResponse   `json:"assignment"`
	OverallStatus domain.OverallStatus `json:"overallStatus"`
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID          string                  `json:"id"`
	TicketID    string                  `json:"ticketId"`
	ChangedByID *string                 `json:"changedById"`
	ChangeType  domain.TicketChangeType `json:"changeType"`
	OldValue    map[string]any          `json:"oldValue"`
	NewValue    map[string]any          `json:"newValue"`
	CreatedAt   time.Time               `json:"createdAt"`
}

// CreateInput maps the request onto the service input.
func (r CreateTicketRequest) CreateInput() service.CreateTicketInput {
	return service.CreateTicketInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		AssigneeIDs: r.AssignedToIDs,
	}
}

// EditInput maps the request onto the service input.
func (r EditTicketRequest) EditInput() service.EditTicketInput {
	return service.EditTicketInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		AssigneeIDs: r.AssignedToIDs,
	}
}

// StatusInput maps the request onto the service input.
func (r UpdateStatusRequest) StatusInput() service.StatusUpdateInput {
	return service.StatusUpdateInput{TicketID: r.TicketID, Status: r.Status, UserID: r.UserID}
}

// NewTicketResponse maps a ticket with its assignments.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		CreatedByID:   t.CreatorID,
		CreatedBy:     newUserRef(t.Creator),
		OverallStatus: t.Status,
		StatusSource:  t.StatusSource,
		Assignments:   make([]AssignmentResponse, 0, len(t.Assignments)),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	if t.DueDate != nil {
		formatted := t.DueDate.Format(dateLayout)
		resp.DueDate = &formatted
	}
	for i := range t.Assignments {
		resp.Assignments = append(resp.Assignments, NewAssignmentResponse(&t.Assignments[i]))
	}
	return resp
}

// NewAssignmentResponse maps an assignment.
func NewAssignmentResponse(a *domain.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:        a.ID,
		TicketID:  a.TicketID,
		UserID:    a.UserID,
		User:      newUserRef(a.User),
		Status:    a.Status,
		UpdatedAt: a.UpdatedAt,
	}
}

// NewTicketListResponse maps a listing.
func NewTicketListResponse(tickets []domain.Ticket) TicketListResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return TicketListResponse{Total: len(items), Tickets: items}
}

// NewHistoryResponses maps audit entries.
func NewHistoryResponses(entries []domain.TicketHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryResponse{
			ID:          e.ID,
			TicketID:    e.TicketID,
			ChangedByID: e.ChangedByID,
			ChangeType:  e.ChangeType,
			OldValue:    e.OldValue,
			NewValue:    e.NewValue,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}
