package memory

import (
	"context"
	"maps"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

type historyRepo struct {
	binding
}

func (r *historyRepo) Create(_ context.Context, history *domain.TicketHistory) error {
	return r.with(func(st *state) error {
		if _, ok := st.tickets[history.TicketID]; !ok {
			return pgx.ErrNoRows
		}
		history.ID = newID()
		history.CreatedAt = r.now()
		stored := *history
		stored.OldValue = maps.Clone(history.OldValue)
		stored.NewValue = maps.Clone(history.NewValue)
		st.history[history.TicketID] = append(st.history[history.TicketID], stored)
		return nil
	})
}

func (r *historyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	var out []domain.TicketHistory
	err := r.with(func(st *state) error {
		out = append([]domain.TicketHistory(nil), st.history[ticketID]...)
		return nil
	})
	return out, err
}
