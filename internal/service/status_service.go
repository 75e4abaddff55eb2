package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/observability"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

// StatusService drives both status paths: an assignee updating their own assignment, which
// re-derives the overall status, and an admin setting the overall status directly.
// Each change runs in one transaction holding the ticket row lock, so concurrent assignee
// updates on the same ticket cannot derive from a stale assignment set.
type StatusService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewStatusService builds the service.
func NewStatusService(store repository.Store, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *StatusService {
	return &StatusService{store: store, dispatcher: dispatcher, metrics: metrics, logger: logger}
}

// StatusUpdateInput is a status request as received from a client.
type StatusUpdateInput struct {
	TicketID string
	Status   string
	// UserID selects whose assignment to update. Admins leaving it empty set the overall status.
	UserID string
}

// AssignmentChange is the outcome of the assignment path.
type AssignmentChange struct {
	Assignment      domain.Assignment
	PreviousStatus  domain.AssignmentStatus
	OverallStatus   domain.OverallStatus
	PreviousOverall domain.OverallStatus

	// Derived is false when the ticket is CLOSED and kept its overall status.
	Derived bool
}

// StatusUpdateResult carries whichever path ran.
type StatusUpdateResult struct {
	Path       auth.StatusPath
	Assignment *AssignmentChange
	Ticket     *domain.Ticket
}

// UpdateStatus routes a request to the admin or assignment path.
func (s *StatusService) UpdateStatus(ctx context.Context, actor domain.Actor, input StatusUpdateInput) (*StatusUpdateResult, error) {
	ticketID := strings.TrimSpace(input.TicketID)
	userID := strings.TrimSpace(input.UserID)
	details := map[string]any{}
	if ticketID == "" {
		details["ticketId"] = "required"
	}
	if strings.TrimSpace(input.Status) == "" {
		details["status"] = "required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid status update", details)
	}

	if actor.IsAdmin() && userID == "" {
		ticket, err := s.ApplyAdminStatusChange(ctx, actor, ticketID, input.Status)
		if err != nil {
			return nil, err
		}
		return &StatusUpdateResult{Path: auth.StatusPathAdmin, Ticket: ticket}, nil
	}

	change, err := s.ApplyAssignmentStatusChange(ctx, actor, ticketID, userID, input.Status)
	if err != nil {
		return nil, err
	}
	return &StatusUpdateResult{Path: auth.StatusPathAssignment, Assignment: change}, nil
}

// ApplyAssignmentStatusChange updates one assignment and re-derives the overall status from the
// full assignment set. An empty userID means the actor's own assignment; admins must name the
// user, since without one they drive the overall status instead.
// Checks run in order: ticket exists, actor may touch the assignment, assignment exists, status is
// assignee-settable.
func (s *StatusService) ApplyAssignmentStatusChange(ctx context.Context, actor domain.Actor, ticketID, userID, status string) (*AssignmentChange, error) {
	var change *AssignmentChange
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		ticket, err := loadTicket(ctx, repos, ticketID, true)
		if err != nil {
			return err
		}
		plan, err := auth.PlanStatusUpdate(actor, ticket, userID)
		if err != nil {
			return err
		}
		if plan.Path != auth.StatusPathAssignment {
			return apperrors.NewValidationError("userId is required to update an assignment",
				map[string]any{"userId": "required"})
		}
		current, ok := ticket.AssignmentFor(plan.UserID)
		if !ok {
			return apperrors.NewNotFound("assignment", map[string]any{"ticket_id": ticketID, "user_id": plan.UserID})
		}
		next, ok := domain.ParseAssignmentStatus(status)
		if !ok {
			return apperrors.NewInvalidStatus(status, domain.AssignmentStatusValues())
		}

		previous := current.Status
		updated, err := repos.Assignments.UpdateStatus(ctx, ticket.ID, plan.UserID, next)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("assignment", map[string]any{"ticket_id": ticketID, "user_id": plan.UserID})
			}
			return err
		}
		*current = *updated

		if err := recordHistory(ctx, repos, ticket.ID, actor.ID, domain.ChangeTypeAssignmentStatus,
			map[string]any{"userId": plan.UserID, "status": string(previous)},
			map[string]any{"userId": plan.UserID, "status": string(next)}); err != nil {
			return err
		}

		result := &AssignmentChange{
			Assignment:      *updated,
			PreviousStatus:  previous,
			PreviousOverall: ticket.Status,
			OverallStatus:   ticket.Status,
		}
		derived, applied := domain.DeriveOverallStatus(ticket.Status, ticket.Assignments)
		if applied {
			if derived != ticket.Status {
				if err := recordOverallChange(ctx, repos, ticket.ID, actor.ID, ticket.Status, derived, domain.StatusSourceDerived); err != nil {
					return err
				}
			}
			ticket.Status = derived
			ticket.StatusSource = domain.StatusSourceDerived
			if err := repos.Tickets.Update(ctx, ticket); err != nil {
				return err
			}
			result.OverallStatus = derived
			result.Derived = true
		}
		change = result
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("assignment status changed",
		zap.String("ticket_id", ticketID),
		zap.String("user_id", change.Assignment.UserID),
		zap.String("from", string(change.PreviousStatus)),
		zap.String("to", string(change.Assignment.Status)),
		zap.String("overall", string(change.OverallStatus)),
		zap.Bool("derived", change.Derived))

	actorMeta := events.ActorFrom(actor)
	s.publishEvent(ctx, events.New(events.EventAssignmentStatusChanged, ticketID, actorMeta,
		events.AssignmentStatusChangedPayload{
			UserID:    change.Assignment.UserID,
			OldStatus: change.PreviousStatus,
			NewStatus: change.Assignment.Status,
		}))
	if change.OverallStatus != change.PreviousOverall {
		s.metrics.RecordTransition(string(change.PreviousOverall), string(change.OverallStatus), string(domain.StatusSourceDerived))
		s.publishEvent(ctx, events.New(events.EventOverallStatusChanged, ticketID, actorMeta,
			events.OverallStatusChangedPayload{
				OldStatus: change.PreviousOverall,
				NewStatus: change.OverallStatus,
				Source:    domain.StatusSourceDerived,
			}))
	}
	return change, nil
}

// ApplyAdminStatusChange sets the overall status directly without consulting assignments.
// It is the only way into or out of CLOSED.
func (s *StatusService) ApplyAdminStatusChange(ctx context.Context, actor domain.Actor, ticketID, status string) (*domain.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin access required")
	}
	next, ok := domain.ParseOverallStatus(status)
	if !ok {
		return nil, apperrors.NewInvalidStatus(status, domain.OverallStatusValues())
	}

	var (
		updated  *domain.Ticket
		previous domain.OverallStatus
	)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		ticket, err := loadTicket(ctx, repos, ticketID, true)
		if err != nil {
			return err
		}
		previous = ticket.Status
		if previous != next {
			if err := recordOverallChange(ctx, repos, ticket.ID, actor.ID, previous, next, domain.StatusSourceAdmin); err != nil {
				return err
			}
		}
		ticket.Status = next
		ticket.StatusSource = domain.StatusSourceAdmin
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		updated = ticket
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("overall status set",
		zap.String("ticket_id", ticketID),
		zap.String("actor_id", actor.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)))
	if previous != next {
		s.metrics.RecordTransition(string(previous), string(next), string(domain.StatusSourceAdmin))
		s.publishEvent(ctx, events.New(events.EventOverallStatusChanged, ticketID, events.ActorFrom(actor),
			events.OverallStatusChangedPayload{OldStatus: previous, NewStatus: next, Source: domain.StatusSourceAdmin}))
	}
	return updated, nil
}

func (s *StatusService) publishEvent(ctx context.Context, event events.Event) {
	publish(ctx, s.dispatcher, s.logger, event)
}
