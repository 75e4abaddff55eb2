package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
)

func seedUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()
	u := &domain.User{Name: email, Email: email, PasswordHash: "x", Role: domain.RoleUser}
	require.NoError(t, s.Repos().Users.Create(context.Background(), u))
	return u
}

func TestUserEmailIsUnique(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "a@example.com")

	err := s.Repos().Users.Create(context.Background(), &domain.User{Email: "A@example.com"})
	assert.True(t, repository.IsUniqueViolation(err))
}

func TestMissingRecordsReturnNoRows(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repos := s.Repos()

	_, err := repos.Users.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	_, err = repos.Tickets.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	_, err = repos.Assignments.UpdateStatus(ctx, "nope", "nope", domain.AssignmentStatusCompleted)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.ErrorIs(t, repos.Users.SetRefreshToken(ctx, "nope", nil), pgx.ErrNoRows)
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	creator := seedUser(t, s, "admin@example.com")
	boom := errors.New("boom")

	err := s.RunInTx(ctx, func(repos repository.Repositories) error {
		ticket := &domain.Ticket{Title: "t", CreatorID: creator.ID, Status: domain.OverallStatusPending}
		require.NoError(t, repos.Tickets.Create(ctx, ticket))
		require.NoError(t, repos.Assignments.CreateMany(ctx, ticket.ID, []string{creator.ID}, domain.AssignmentStatusPending))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	tickets, err := s.Repos().Tickets.List(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestRunInTxCommits(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	creator := seedUser(t, s, "admin@example.com")
	worker := seedUser(t, s, "worker@example.com")

	var ticketID string
	err := s.RunInTx(ctx, func(repos repository.Repositories) error {
		ticket := &domain.Ticket{Title: "t", CreatorID: creator.ID, Status: domain.OverallStatusPending}
		if err := repos.Tickets.Create(ctx, ticket); err != nil {
			return err
		}
		ticketID = ticket.ID
		return repos.Assignments.CreateMany(ctx, ticket.ID, []string{worker.ID}, domain.AssignmentStatusPending)
	})
	require.NoError(t, err)

	ticket, err := s.Repos().Tickets.GetByID(ctx, ticketID)
	require.NoError(t, err)
	require.NotNil(t, ticket.Creator)
	assert.Equal(t, "admin@example.com", ticket.Creator.Email)

	assignments, err := s.Repos().Assignments.ListByTicket(ctx, ticketID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, worker.ID, assignments[0].User.ID)
}

func TestAssignmentsKeepInsertionOrderAndRejectDuplicates(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	creator := seedUser(t, s, "admin@example.com")
	a := seedUser(t, s, "a@example.com")
	b := seedUser(t, s, "b@example.com")
	repos := s.Repos()

	ticket := &domain.Ticket{Title: "t", CreatorID: creator.ID, Status: domain.OverallStatusPending}
	require.NoError(t, repos.Tickets.Create(ctx, ticket))
	require.NoError(t, repos.Assignments.CreateMany(ctx, ticket.ID, []string{b.ID, a.ID}, domain.AssignmentStatusPending))

	list, err := repos.Assignments.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, []string{list[0].UserID, list[1].UserID})

	err = repos.Assignments.CreateMany(ctx, ticket.ID, []string{a.ID}, domain.AssignmentStatusPending)
	assert.True(t, repository.IsUniqueViolation(err))

	require.NoError(t, repos.Assignments.DeleteUsers(ctx, ticket.ID, []string{b.ID}))
	list, err = repos.Assignments.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].UserID)
}

func TestTicketListFiltersAndOrders(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s := NewStore().WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	ctx := context.Background()
	creator := seedUser(t, s, "admin@example.com")
	a := seedUser(t, s, "a@example.com")
	repos := s.Repos()

	first := &domain.Ticket{Title: "first", CreatorID: creator.ID, Status: domain.OverallStatusPending}
	second := &domain.Ticket{Title: "second", CreatorID: creator.ID, Status: domain.OverallStatusClosed}
	require.NoError(t, repos.Tickets.Create(ctx, first))
	require.NoError(t, repos.Tickets.Create(ctx, second))
	require.NoError(t, repos.Assignments.CreateMany(ctx, first.ID, []string{a.ID}, domain.AssignmentStatusPending))

	all, err := repos.Tickets.List(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Title)

	mine, err := repos.Tickets.List(ctx, repository.TicketFilter{ParticipantID: &a.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "first", mine[0].Title)

	closed, err := repos.Tickets.List(ctx, repository.TicketFilter{Statuses: []domain.OverallStatus{domain.OverallStatusClosed}})
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, "second", closed[0].Title)
}

func TestExistingIDs(t *testing.T) {
	s := NewStore()
	a := seedUser(t, s, "a@example.com")
	found, err := s.Repos().Users.ExistingIDs(context.Background(), []string{a.ID, "ghost"})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, found)
}
