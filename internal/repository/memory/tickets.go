package memory

import (
	"context"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
)

type ticketRepo struct {
	binding
}

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	return r.with(func(st *state) error {
		if _, ok := st.users[ticket.CreatorID]; !ok {
			return pgx.ErrNoRows
		}
		now := r.now()
		ticket.ID = newID()
		ticket.CreatedAt = now
		ticket.UpdatedAt = now
		stored := *ticket
		stored.Creator = nil
		stored.Assignments = nil
		st.tickets[ticket.ID] = stored
		st.ticketOrder = append(st.ticketOrder, ticket.ID)
		return nil
	})
}

func (r *ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	return r.with(func(st *state) error {
		stored, ok := st.tickets[ticket.ID]
		if !ok {
			return pgx.ErrNoRows
		}
		stored.Title = ticket.Title
		stored.Description = ticket.Description
		stored.DueDate = ticket.DueDate
		stored.Status = ticket.Status
		stored.StatusSource = ticket.StatusSource
		stored.UpdatedAt = r.now()
		st.tickets[ticket.ID] = stored
		ticket.UpdatedAt = stored.UpdatedAt
		return nil
	})
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := r.with(func(st *state) error {
		ticket, ok := st.ticketView(id)
		if !ok {
			return pgx.ErrNoRows
		}
		out = ticket
		return nil
	})
	return out, err
}

// LockByID is GetByID: transactions already hold the store mutex.
func (r *ticketRepo) LockByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := r.with(func(st *state) error {
		out = make([]domain.Ticket, 0, len(st.ticketOrder))
		for i := len(st.ticketOrder) - 1; i >= 0; i-- {
			ticket, _ := st.ticketView(st.ticketOrder[i])
			if filter.ParticipantID != nil && !st.isParticipant(ticket, *filter.ParticipantID) {
				continue
			}
			if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, ticket.Status) {
				continue
			}
			out = append(out, *ticket)
		}
		return nil
	})
	return out, err
}

func (st *state) ticketView(id string) (*domain.Ticket, bool) {
	ticket, ok := st.tickets[id]
	if !ok {
		return nil, false
	}
	if creator, ok := st.users[ticket.CreatorID]; ok {
		ref := creator.Ref()
		ticket.Creator = &ref
	}
	return &ticket, true
}

func (st *state) isParticipant(ticket *domain.Ticket, userID string) bool {
	if ticket.CreatorID == userID {
		return true
	}
	for _, a := range st.assignments[ticket.ID] {
		if a.UserID == userID {
			return true
		}
	}
	return false
}
