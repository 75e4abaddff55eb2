package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

const dueDateLayout = "2006-01-02"

// TicketService coordinates ticket workflows.
type TicketService struct {
	store       repository.Store
	assignments *AssignmentService
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store       repository.Store
	Assignments *AssignmentService
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	Title       string
	Description *string
	DueDate     *string
	AssigneeIDs []string
}

// EditTicketInput describes a partial update. Nil fields are left unchanged; an empty
// Description or DueDate clears it.
type EditTicketInput struct {
	Title       *string
	Description *string
	DueDate     *string
	AssigneeIDs *[]string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:       deps.Store,
		assignments: deps.Assignments,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// CreateTicket creates a ticket with one PENDING assignment per assignee. Nothing is persisted
// unless every assignee resolves to a user.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input CreateTicketInput) (*domain.Ticket, error) {
	if err := auth.RequireTicketManager(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"title": "required"})
	}
	ids, err := s.assignments.NormalizeIDs(input.AssigneeIDs)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseDueDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:        title,
		Description:  normalizeText(input.Description),
		DueDate:      dueDate,
		CreatorID:    actor.ID,
		Status:       domain.OverallStatusPending,
		StatusSource: domain.StatusSourceDerived,
	}

	var created *domain.Ticket
	err = s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Tickets.Create(ctx, ticket); err != nil {
			return err
		}
		if err := s.assignments.Assign(ctx, repos, ticket.ID, ids); err != nil {
			return err
		}
		loaded, err := loadTicket(ctx, repos, ticket.ID, false)
		if err != nil {
			return err
		}
		created = loaded
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", created.ID),
		zap.String("creator_id", actor.ID),
		zap.Int("assignees", len(ids)))
	s.publishEvent(ctx, events.New(events.EventTicketCreated, created.ID, events.ActorFrom(actor),
		events.TicketCreatedPayload{Title: created.Title, AssigneeIDs: created.AssigneeIDs()}))
	return created, nil
}

// EditTicket applies a partial update. A new assignee list goes through the configured edit
// policy. The overall status is left as it is; only assignee status updates re-derive it.
func (s *TicketService) EditTicket(ctx context.Context, actor domain.Actor, ticketID string, input EditTicketInput) (*domain.Ticket, error) {
	if err := auth.RequireTicketManager(actor); err != nil {
		return nil, err
	}

	var title string
	if input.Title != nil {
		title = strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title must not be empty", map[string]any{"title": "required"})
		}
	}
	var ids []string
	if input.AssigneeIDs != nil {
		normalized, err := s.assignments.NormalizeIDs(*input.AssigneeIDs)
		if err != nil {
			return nil, err
		}
		ids = normalized
	}
	var dueDate *time.Time
	if input.DueDate != nil {
		parsed, err := parseDueDate(input.DueDate)
		if err != nil {
			return nil, err
		}
		dueDate = parsed
	}

	var (
		updated *domain.Ticket
		fields  []string
	)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		fields = nil
		ticket, err := loadTicket(ctx, repos, ticketID, true)
		if err != nil {
			return err
		}

		if input.Title != nil {
			ticket.Title = title
			fields = append(fields, "title")
		}
		if input.Description != nil {
			ticket.Description = normalizeText(input.Description)
			fields = append(fields, "description")
		}
		if input.DueDate != nil {
			ticket.DueDate = dueDate
			fields = append(fields, "dueDate")
		}

		if input.AssigneeIDs != nil {
			change, err := s.assignments.Reassign(ctx, repos, ticket, ids)
			if err != nil {
				return err
			}
			fields = append(fields, assigneesField)
			if err := recordHistory(ctx, repos, ticket.ID, actor.ID, domain.ChangeTypeAssignees,
				map[string]any{"assigneeIds": change.Before},
				map[string]any{"assigneeIds": change.After, "policy": string(s.assignments.Policy())}); err != nil {
				return err
			}
		}

		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		updated = ticket
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("ticket edited", zap.String("ticket_id", updated.ID), zap.Strings("fields", fields))
	payload := events.TicketEditedPayload{Fields: fields}
	if input.AssigneeIDs != nil {
		payload.AssigneeIDs = updated.AssigneeIDs()
	}
	s.publishEvent(ctx, events.New(events.EventTicketEdited, updated.ID, events.ActorFrom(actor), payload))
	return updated, nil
}

// GetTicket returns a ticket the actor may read.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := loadTicket(ctx, s.store.Repos(), ticketID, false)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := auth.CanReadTicket(actor, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListAllTickets returns every ticket, newest first. A non-empty statuses keeps only tickets whose
// overall status is one of them.
func (s *TicketService) ListAllTickets(ctx context.Context, actor domain.Actor, statuses []domain.OverallStatus) ([]domain.Ticket, error) {
	if err := auth.RequireTicketManager(actor); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.TicketFilter{Statuses: statuses})
}

// ListMyTickets returns tickets the actor created or is assigned to, newest first.
func (s *TicketService) ListMyTickets(ctx context.Context, actor domain.Actor, statuses []domain.OverallStatus) ([]domain.Ticket, error) {
	actorID := actor.ID
	return s.list(ctx, repository.TicketFilter{ParticipantID: &actorID, Statuses: statuses})
}

// ParseStatusFilter reads a comma separated list of overall statuses. Blank input means no filter.
func ParseStatusFilter(raw string) ([]domain.OverallStatus, error) {
	var statuses []domain.OverallStatus
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		status, ok := domain.ParseOverallStatus(part)
		if !ok {
			return nil, apperrors.NewValidationError("invalid status filter", map[string]any{
				"status":  fmt.Sprintf("unknown status %q", part),
				"allowed": domain.OverallStatusValues(),
			})
		}
		if !slices.Contains(statuses, status) {
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}

// ListHistory returns the audit trail of a ticket the actor may read.
func (s *TicketService) ListHistory(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.TicketHistory, error) {
	repos := s.store.Repos()
	ticket, err := loadTicket(ctx, repos, ticketID, false)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := auth.CanReadTicket(actor, ticket); err != nil {
		return nil, err
	}
	entries, err := repos.History.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *TicketService) list(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	repos := s.store.Repos()
	tickets, err := repos.Tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	byTicket, err := repos.Assignments.ListByTickets(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range tickets {
		tickets[i].Assignments = byTicket[tickets[i].ID]
	}
	return tickets, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	publish(ctx, s.dispatcher, s.logger, event)
}

// loadTicket reads a ticket with its assignments. With lock set the ticket row stays locked until
// the surrounding transaction ends.
func loadTicket(ctx context.Context, repos repository.Repositories, ticketID string, lock bool) (*domain.Ticket, error) {
	var (
		ticket *domain.Ticket
		err    error
	)
	if lock {
		ticket, err = repos.Tickets.LockByID(ctx, ticketID)
	} else {
		ticket, err = repos.Tickets.GetByID(ctx, ticketID)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}
	assignments, err := repos.Assignments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.Assignments = assignments
	return ticket, nil
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Error("publish event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}

func recordHistory(ctx context.Context, repos repository.Repositories, ticketID, actorID string, changeType domain.TicketChangeType, oldValue, newValue map[string]any) error {
	entry := &domain.TicketHistory{
		TicketID:   ticketID,
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if actorID != "" {
		entry.ChangedByID = &actorID
	}
	return repos.History.Create(ctx, entry)
}

func recordOverallChange(ctx context.Context, repos repository.Repositories, ticketID, actorID string, from, to domain.OverallStatus, source domain.StatusSource) error {
	return recordHistory(ctx, repos, ticketID, actorID, domain.ChangeTypeOverallStatus,
		map[string]any{"status": string(from)},
		map[string]any{"status": string(to), "source": string(source)})
}

// parseDueDate accepts a calendar date or an RFC3339 timestamp and keeps only the date.
// An empty value means no due date.
func parseDueDate(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	raw := strings.TrimSpace(*value)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dueDateLayout, raw)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339, raw)
		if tsErr != nil {
			return nil, apperrors.NewValidationError("invalid due date",
				map[string]any{"dueDate": "expected YYYY-MM-DD or RFC3339"})
		}
		parsed = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
	return &parsed, nil
}

func normalizeText(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
