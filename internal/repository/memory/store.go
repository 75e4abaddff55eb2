// Package memory provides an in-process record store with the same contract as the Postgres store.
// It is used when no database is configured and by tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
)

type state struct {
	users       map[string]domain.User
	userOrder   []string
	tickets     map[string]domain.Ticket
	ticketOrder []string
	// assignments per ticket, in creation order.
	assignments map[string][]domain.Assignment
	history     map[string][]domain.TicketHistory
}

func newState() *state {
	return &state{
		users:       map[string]domain.User{},
		tickets:     map[string]domain.Ticket{},
		assignments: map[string][]domain.Assignment{},
		history:     map[string][]domain.TicketHistory{},
	}
}

func (s *state) clone() *state {
	c := &state{
		users:       make(map[string]domain.User, len(s.users)),
		userOrder:   append([]string(nil), s.userOrder...),
		tickets:     make(map[string]domain.Ticket, len(s.tickets)),
		ticketOrder: append([]string(nil), s.ticketOrder...),
		assignments: make(map[string][]domain.Assignment, len(s.assignments)),
		history:     make(map[string][]domain.TicketHistory, len(s.history)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	for k, v := range s.assignments {
		c.assignments[k] = append([]domain.Assignment(nil), v...)
	}
	for k, v := range s.history {
		c.history[k] = append([]domain.TicketHistory(nil), v...)
	}
	return c
}

// Store keeps all records in memory behind a single mutex. Transactions work on a copy of the
// state and swap it in on success, so a failed unit of work leaves nothing behind.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

var _ repository.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Repos returns repositories that lock the store per call.
func (s *Store) Repos() repository.Repositories {
	return s.bind(nil)
}

// RunInTx serializes units of work and commits them atomically.
func (s *Store) RunInTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.st.clone()
	if err := fn(s.bind(working)); err != nil {
		return err
	}
	s.st = working
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) bind(tx *state) repository.Repositories {
	b := binding{store: s, tx: tx}
	return repository.Repositories{
		Users:       &userRepo{b},
		Tickets:     &ticketRepo{b},
		Assignments: &assignmentRepo{b},
		History:     &historyRepo{b},
	}
}

// binding routes repository calls either to a transaction's working copy (lock already held)
// or to the live state under the store mutex.
type binding struct {
	store *Store
	tx    *state
}

func (b binding) with(fn func(st *state) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	return fn(b.store.st)
}

func (b binding) now() time.Time {
	return b.store.now().UTC()
}

func newID() string {
	return uuid.NewString()
}
