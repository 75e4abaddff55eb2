package memory

import (
	"context"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
)

type assignmentRepo struct {
	binding
}

func (r *assignmentRepo) CreateMany(_ context.Context, ticketID string, userIDs []string, status domain.AssignmentStatus) error {
	return r.with(func(st *state) error {
		if _, ok := st.tickets[ticketID]; !ok {
			return pgx.ErrNoRows
		}
		existing := st.assignments[ticketID]
		seen := make(map[string]struct{}, len(existing)+len(userIDs))
		for _, a := range existing {
			seen[a.UserID] = struct{}{}
		}
		now := r.now()
		added := make([]domain.Assignment, 0, len(userIDs))
		for _, userID := range userIDs {
			if _, ok := st.users[userID]; !ok {
				return pgx.ErrNoRows
			}
			if _, dup := seen[userID]; dup {
				return repository.UniqueViolation("ticket_assignments_ticket_id_user_id_key")
			}
			seen[userID] = struct{}{}
			added = append(added, domain.Assignment{
				ID:        newID(),
				TicketID:  ticketID,
				UserID:    userID,
				Status:    status,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		st.assignments[ticketID] = append(existing, added...)
		return nil
	})
}

func (r *assignmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Assignment, error) {
	var out []domain.Assignment
	err := r.with(func(st *state) error {
		out = st.assignmentViews(ticketID)
		return nil
	})
	return out, err
}

func (r *assignmentRepo) ListByTickets(_ context.Context, ticketIDs []string) (map[string][]domain.Assignment, error) {
	out := make(map[string][]domain.Assignment, len(ticketIDs))
	err := r.with(func(st *state) error {
		for _, id := range ticketIDs {
			if views := st.assignmentViews(id); len(views) > 0 {
				out[id] = views
			}
		}
		return nil
	})
	return out, err
}

func (r *assignmentRepo) Get(_ context.Context, ticketID, userID string) (*domain.Assignment, error) {
	var out *domain.Assignment
	err := r.with(func(st *state) error {
		for _, a := range st.assignmentViews(ticketID) {
			if a.UserID == userID {
				found := a
				out = &found
				return nil
			}
		}
		return pgx.ErrNoRows
	})
	return out, err
}

func (r *assignmentRepo) UpdateStatus(_ context.Context, ticketID, userID string, status domain.AssignmentStatus) (*domain.Assignment, error) {
	var out *domain.Assignment
	err := r.with(func(st *state) error {
		list := st.assignments[ticketID]
		for i := range list {
			if list[i].UserID != userID {
				continue
			}
			list[i].Status = status
			list[i].UpdatedAt = r.now()
			view := st.assignmentView(list[i])
			out = &view
			return nil
		}
		return pgx.ErrNoRows
	})
	return out, err
}

func (r *assignmentRepo) DeleteByTicket(_ context.Context, ticketID string) error {
	return r.with(func(st *state) error {
		delete(st.assignments, ticketID)
		return nil
	})
}

func (r *assignmentRepo) DeleteUsers(_ context.Context, ticketID string, userIDs []string) error {
	return r.with(func(st *state) error {
		st.assignments[ticketID] = slices.DeleteFunc(st.assignments[ticketID], func(a domain.Assignment) bool {
			return slices.Contains(userIDs, a.UserID)
		})
		return nil
	})
}

func (st *state) assignmentViews(ticketID string) []domain.Assignment {
	list := st.assignments[ticketID]
	out := make([]domain.Assignment, 0, len(list))
	for _, a := range list {
		out = append(out, st.assignmentView(a))
	}
	return out
}

func (st *state) assignmentView(a domain.Assignment) domain.Assignment {
	if user, ok := st.users[a.UserID]; ok {
		ref := user.Ref()
		a.User = &ref
	}
	return a
}
