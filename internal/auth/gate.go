package auth

import (
	"github.com/spec-kit/ticket-tracker/internal/domain"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

// StatusPath names which branch of the status engine a request drives.
type StatusPath int

const (
	// StatusPathAdmin sets the overall status directly.
	StatusPathAdmin StatusPath = iota
	// StatusPathAssignment updates one assignee's status and re-aggregates.
	StatusPathAssignment
)

// StatusPlan is the outcome of authorizing a status update.
type StatusPlan struct {
	Path   StatusPath
	UserID string
}

// RequireTicketManager gates create, edit and list-all.
func RequireTicketManager(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin access required")
	}
	return nil
}

// CanReadTicket allows admins and users holding an assignment on the ticket.
func CanReadTicket(actor domain.Actor, ticket *domain.Ticket) error {
	if actor.IsAdmin() {
		return nil
	}
	if _, ok := ticket.AssignmentFor(actor.ID); ok {
		return nil
	}
	return apperrors.NewForbidden("access denied: ticket not assigned to you")
}

// PlanStatusUpdate decides which status path the actor may drive.
// Admins without a target user set the overall status; admins naming a user update that user's
// assignment. Everyone else may only update their own assignment, and must hold one.
func PlanStatusUpdate(actor domain.Actor, ticket *domain.Ticket, targetUserID string) (StatusPlan, error) {
	if actor.IsAdmin() {
		if targetUserID == "" {
			return StatusPlan{Path: StatusPathAdmin}, nil
		}
		return StatusPlan{Path: StatusPathAssignment, UserID: targetUserID}, nil
	}
	if targetUserID != "" && targetUserID != actor.ID {
		return StatusPlan{}, apperrors.NewForbidden("you may only update your own assignment")
	}
	if _, ok := ticket.AssignmentFor(actor.ID); !ok {
		return StatusPlan{}, apperrors.NewForbidden("you are not assigned to this ticket")
	}
	return StatusPlan{Path: StatusPathAssignment, UserID: actor.ID}, nil
}
