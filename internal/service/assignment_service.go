package service

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

const assigneesField = "assignedToIds"

// AssigneeChange describes how an edit moved the assignee set.
type AssigneeChange struct {
	Before  []string
	After   []string
	Added   []string
	Removed []string
}

// AssignmentService owns the assignee set of a ticket: validation, creation and replacement.
type AssignmentService struct {
	policy config.AssigneeEditPolicy
	logger *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(policy config.AssigneeEditPolicy, logger *zap.Logger) *AssignmentService {
	if policy == "" {
		policy = config.AssigneeEditReplace
	}
	return &AssignmentService{policy: policy, logger: logger}
}

// Policy returns the configured edit policy.
func (s *AssignmentService) Policy() config.AssigneeEditPolicy {
	return s.policy
}

// NormalizeIDs trims ids and rejects an empty list, blank ids and duplicates.
func (s *AssignmentService) NormalizeIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, apperrors.NewValidationError("at least one assignee is required",
			map[string]any{assigneesField: "required"})
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	var duplicates []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, apperrors.NewValidationError("assignee ids must not be blank",
				map[string]any{assigneesField: "blank id"})
		}
		if _, dup := seen[id]; dup {
			duplicates = append(duplicates, id)
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(duplicates) > 0 {
		return nil, apperrors.NewValidationError("duplicate assignee ids",
			map[string]any{assigneesField: "duplicate ids", "duplicates": duplicates})
	}
	return out, nil
}

// EnsureUsersExist fails with a validation error naming every id that does not resolve to a user.
func (s *AssignmentService) EnsureUsersExist(ctx context.Context, users repository.UserRepository, ids []string) error {
	found, err := users.ExistingIDs(ctx, ids)
	if err != nil {
		return err
	}
	var missing []string
	for _, id := range ids {
		if !slices.Contains(found, id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("assignees do not exist",
			map[string]any{assigneesField: "unknown users", "missing": missing})
	}
	return nil
}

// Assign creates a PENDING assignment for each id on a new ticket.
func (s *AssignmentService) Assign(ctx context.Context, repos repository.Repositories, ticketID string, ids []string) error {
	if err := s.EnsureUsersExist(ctx, repos.Users, ids); err != nil {
		return err
	}
	return repos.Assignments.CreateMany(ctx, ticketID, ids, domain.AssignmentStatusPending)
}

// Reassign moves a ticket to a new assignee set according to the edit policy. Under replace every
// assignment is recreated at PENDING; under reconcile retained users keep their status.
func (s *AssignmentService) Reassign(ctx context.Context, repos repository.Repositories, ticket *domain.Ticket, ids []string) (AssigneeChange, error) {
	if err := s.EnsureUsersExist(ctx, repos.Users, ids); err != nil {
		return AssigneeChange{}, err
	}

	before := ticket.AssigneeIDs()
	change := AssigneeChange{Before: before, After: ids}
	for _, id := range ids {
		if !slices.Contains(before, id) {
			change.Added = append(change.Added, id)
		}
	}
	for _, id := range before {
		if !slices.Contains(ids, id) {
			change.Removed = append(change.Removed, id)
		}
	}

	switch s.policy {
	case config.AssigneeEditReconcile:
		if err := repos.Assignments.DeleteUsers(ctx, ticket.ID, change.Removed); err != nil {
			return AssigneeChange{}, err
		}
		if len(change.Added) > 0 {
			if err := repos.Assignments.CreateMany(ctx, ticket.ID, change.Added, domain.AssignmentStatusPending); err != nil {
				return AssigneeChange{}, err
			}
		}
	default:
		if err := repos.Assignments.DeleteByTicket(ctx, ticket.ID); err != nil {
			return AssigneeChange{}, err
		}
		if err := repos.Assignments.CreateMany(ctx, ticket.ID, ids, domain.AssignmentStatusPending); err != nil {
			return AssigneeChange{}, err
		}
	}

	assignments, err := repos.Assignments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return AssigneeChange{}, err
	}
	ticket.Assignments = assignments

	s.logger.Info("assignees updated",
		zap.String("ticket_id", ticket.ID),
		zap.String("policy", string(s.policy)),
		zap.Strings("added", change.Added),
		zap.Strings("removed", change.Removed))
	return change, nil
}
