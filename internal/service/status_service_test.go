package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

func TestOverallStatusFollowsAssignments(t *testing.T) {
	h := newHarness(t, config.AssigneeEditReplace)
	admin := h.register(t, "admin", domain.RoleAdmin)
	a := h.register(t, "alice", domain.RoleUser)
	b := h.register(t, "bob", domain.RoleUser)
	ticket := h.createTicket(t, admin, a, b)
	require.Equal(t, domain.OverallStatusPending, ticket.Status)

	steps := []struct {
		actor  domain.Actor
		status string
		want   domain.OverallStatus
	}{
		{a, "IN_PROGRESS", domain.OverallStatusInProgress},
		{b, "IN_PROGRESS", domain.OverallStatusInProgress},
		{a, "COMPLETED", domain.OverallStatusInProgress},
		{b, "COMPLETED", domain.OverallStatusCompleted},
	}
	for _, step := range steps {
		result := h.setStatus(t, step.actor, ticket.ID, step.status)
		require.Equal(t, auth.StatusPathAssignment, result.Path)
		assert.Equal(t, step.want, result.Assignment.OverallStatus)
		assert.True(t, result.Assignment.Derived)
	}

	stored := h.ticket(t, ticket.ID)
	assert.Equal(t, domain.OverallStatusCompleted, stored.Status)
	assert.Equal(t, domain.StatusSourceDerived, stored.StatusSource)
	for _, assignment := range stored.Assignments {
		assert.Equal(t, domain.AssignmentStatusCompleted, assignment.Status)
	}
}

func TestAssigneeUpdatePublishesEvents(t *testing.T) {
	h := newHarness(t, config.AssigneeEditReplace)
	admin := h.register(t, "admin", domain.RoleAdmin)
	a := h.register(t, "alice", domain.RoleUser)
	b := h.register(t, "bob", domain.RoleUser)
	ticket := h.createTicket(t, admin, a, b)
	h.sink.reset()

	h.setStatus(t, a, ticket.ID, "IN_PROGRESS")
	assert.Equal(t, []events.EventType{events.EventAssignmentStatusChanged, events.EventOverallStatusChanged}, h.sink.types())

	h.sink.reset()
	h.setStatus(t, b, ticket.ID, "IN_PROGRESS")
	assert.Equal(t, []events.EventType{events.EventAssignmentStatusChanged}, h.sink.types())

	assert.Equal(t, int64(1), h.metrics.Snapshot().Transitions["PENDING->IN_PROGRESS|DERIVED"])
}

func TestClosedTicketStaysClosedOnAssigneeUpdate(t *testing.T) {
	h := newHarness(t, config.AssigneeEditReplace)
	admin := h.register(t, "admin", domain.RoleAdmin)
	a := h.register(t, "alice", domain.RoleUser)
	ticket := h.createTicket(t, admin, a)

	closed := h.setStatus(t, admin, ticket.ID, "CLOSED")
	require.Equal(t, auth.StatusPathAdmin, closed.Path)
	assert.Equal(t, domain.OverallStatusClosed, closed.Ticket.Status)
	assert.Equal(t, domain.StatusSourceAdmin, closed.Ticket.StatusSource)

	result := h.setStatus(t, a, ticket.ID, "COMPLETED")
	assert.Equal(t, domain.AssignmentStatusCompleted, result.Assignment.Assignment.Status)
	assert.Equal(t, domain.OverallStatusClosed, result.Assignment.OverallStatus)
	assert.False(t, result.Assignment.Derived)

	stored := h.ticket(t, ticket.ID)
	assert.Equal(t, domain.OverallStatusClosed, stored.Status)
	assert.Equal(t, domain.AssignmentStatusCompleted, stored.Assignments[0].Status)
}

func TestAdminReopensClosedTicket(t *testing.T) {
	h := newHarness(t, config.AssigneeEditReplace)
	admin := h.register(t, "admin", domain.RoleAdmin)
	a := h.register(t, "alice", domain.RoleUser)
	ticket := h.createTicket(t, admin, a)

	h.setStatus(t, admin, ticket.ID, "CLOSED")
	reopened := h.setStatus(t, admin, ticket.ID, "OPEN")
	assert.Equal(t, domain.OverallStatusOpen, reopened.Ticket.Status)

	result := h.setStatus(t, a, ticket.ID, "IN_PROGRESS")
	assert.Equal(t, domain.OverallStatusInProgress, result.Assignment.OverallStatus)
	assert.True(t, result.Assignment.Derived)
}

func TestAdminStatusHoldsUntilNextAssigneeUpdate(t *testing.T) {
	h := newHarness(t, config.AssigneeEditReplace)
	admin := h.register(t, "admin", domain.RoleAdmin)
	a := h.register(t, "alice", domain.RoleUser)
	b := h.register(t, "bob", domain.RoleUser)
	ticket := h.createTicket(t, admin, a, b)

	h.setStatus(t, admin, ticket.ID, "COMPLETED")
	stored := h.ticket(t, ticket.ID)
	assert.Equal(t, domain.OverallStatusCompleted, stored.Status)
	assert.Equal(t, domain.StatusSourceAdmin, stored.StatusSource)
	for _, assignment := range stored.Assignments {
		assert.Equal(t, domain.AssignmentStatusPending, assignment.Status)
	}

	h.setStatus(t, a, ticket.ID, "IN_PROGRESS")
	stored = h.ticket(t, ticket.ID)
	assert.Equal(t, domain.OverallStatusInProgress, stored.Status)
	assert.Equal(t, domain.StatusSourceDerived, stored.StatusSource)
}

func TestAdminUpdatesAssignmentOnBehalfOfUser(t *testing.T) {
	h := newHarness(t, config.AssigneeEditReplace)
	admin := h.register(t, "admin", domain.RoleAdmin)
	a := h.register(t, "alice", domain.RoleUser)
	ticket := h.createTicket(t, admin, a)

	result, err := h.status.UpdateStatus(context.Background(), admin,
		StatusUpdateInput{TicketID: ticket.ID, Status: "COMPLETED", UserID: a.ID})
	require.NoError(t, err)
	require.Equal(t, auth.StatusPathAssignment, result.Path)
	assert.Equal(t, a.ID, result.Assignment.Assignment.UserID)
	assert.Equal(t, domain.OverallStatusCompleted, result.Assignment.OverallStatus)

	_, err = h.status.UpdateStatus(context.Background(), admin,
		StatusUpdateInput{TicketID: ticket.ID, Status: "COMPLETED", UserID: admin.ID})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestStatusUpdateRejections(t *testing.T) {
	h := newHarness(t, config.AssigneeEditReplace)
	admin := h.register(t, "admin", domain.RoleAdmin)
	a := h.register(t, "alice", domain.RoleUser)
	b := h.register(t, "bob", domain.RoleUser)
	outsider := h.register(t, "carol", domain.RoleUser)
	ticket := h.createTicket(t, admin, a, b)
	ctx := context.Background()

	tests := []struct {
		name  string
		actor domain.Actor
		input StatusUpdateInput
		code  string
	}{
		{"assignee cannot close", a, StatusUpdateInput{TicketID: ticket.ID, Status: "CLOSED"}, apperrors.CodeInvalidStatus},
		{"assignee cannot open", a, StatusUpdateInput{TicketID: ticket.ID, Status: "OPEN"}, apperrors.CodeInvalidStatus},
		{"unknown value", a, StatusUpdateInput{TicketID: ticket.ID, Status: "DONE"}, apperrors.CodeInvalidStatus},
		{"lowercase value", a, StatusUpdateInput{TicketID: ticket.ID, Status: "completed"}, apperrors.CodeInvalidStatus},
		{"non assignee", outsider, StatusUpdateInput{TicketID: ticket.ID, Status: "COMPLETED"}, apperrors.CodeForbidden},
		{"non assignee with bad status", outsider, StatusUpdateInput{TicketID: ticket.ID, Status: "CLOSED"}, apperrors.CodeForbidden},
		{"other user's assignment", a, StatusUpdateInput{TicketID: ticket.ID, Status: "COMPLETED", UserID: b.ID}, apperrors.CodeForbidden},
		{"unknown ticket", a, StatusUpdateInput{TicketID: "missing", Status: "COMPLETED"}, apperrors.CodeNotFound},
		{"admin unknown ticket", admin, StatusUpdateInput{TicketID: "missing", Status: "CLOSED"}, apperrors.CodeNotFound},
		{"admin bad status first", admin, StatusUpdateInput{TicketID: "missing", Status: "DONE"}, apperrors.CodeInvalidStatus},
		{"missing ticket id", a, StatusUpdateInput{Status: "COMPLETED"}, apperrors.CodeValidation},
		{"missing status", a, StatusUpdateInput{TicketID: ticket.ID}, apperrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.status.UpdateStatus(ctx, tt.actor, tt.input)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, tt.code), "got %v", err)
		})
	}

	stored := h.ticket(t, ticket.ID)
	assert.Equal(t, domain.OverallStatusPending, stored.Status)
	for _, assignment := range stored.Assignments {
		assert.Equal(t, domain.AssignmentStatusPending, assignment.Status)
	}
}

func TestConcurrentAssigneeUpdatesConverge(t *testing.T) {
	h := newHarness(t, config.AssigneeEditReplace)
	admin := h.register(t, "admin", domain.RoleAdmin)
	var assignees []domain.Actor
	for _, name := range []string{"u1", "u2", "u3", "u4", "u5", "u6"} {
		assignees = append(assignees, h.register(t, name, domain.RoleUser))
	}
	ticket := h.createTicket(t, admin, assignees...)

	var wg sync.WaitGroup
	errs := make(chan error, len(assignees))
	for _, actor := range assignees {
		wg.Add(1)
		go func(actor domain.Actor) {
			defer wg.Done()
			_, err := h.status.UpdateStatus(context.Background(), actor,
				StatusUpdateInput{TicketID: ticket.ID, Status: "COMPLETED"})
			errs <- err
		}(actor)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, domain.OverallStatusCompleted, h.ticket(t, ticket.ID).Status)
}

func TestStatusChangesAreRecordedInHistory(t *testing.T) {
	h := newHarness(t, config.AssigneeEditReplace)
	admin := h.register(t, "admin", domain.RoleAdmin)
	a := h.register(t, "alice", domain.RoleUser)
	ticket := h.createTicket(t, admin, a)

	h.setStatus(t, a, ticket.ID, "IN_PROGRESS")
	h.setStatus(t, admin, ticket.ID, "CLOSED")

	entries, err := h.tickets.ListHistory(context.Background(), a, ticket.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.ChangeTypeAssignmentStatus, entries[0].ChangeType)
	assert.Equal(t, "PENDING", entries[0].OldValue["status"])
	assert.Equal(t, "IN_PROGRESS", entries[0].NewValue["status"])
	assert.Equal(t, domain.ChangeTypeOverallStatus, entries[1].ChangeType)
	assert.Equal(t, "DERIVED", entries[1].NewValue["source"])
	assert.Equal(t, domain.ChangeTypeOverallStatus, entries[2].ChangeType)
	assert.Equal(t, "CLOSED", entries[2].NewValue["status"])
	assert.Equal(t, "ADMIN", entries[2].NewValue["source"])
	require.NotNil(t, entries[2].ChangedByID)
	assert.Equal(t, admin.ID, *entries[2].ChangedByID)
}

func TestAssignmentChangeRequiresUserForAdmin(t *testing.T) {
	h := newHarness(t, config.AssigneeEditReplace)
	admin := h.register(t, "admin", domain.RoleAdmin)
	a := h.register(t, "alice", domain.RoleUser)
	ticket := h.createTicket(t, admin, a)

	_, err := h.status.ApplyAssignmentStatusChange(context.Background(), admin, ticket.ID, "", "COMPLETED")
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	assert.Contains(t, de.Details, "userId")

	change, err := h.status.ApplyAssignmentStatusChange(context.Background(), a, ticket.ID, "", "COMPLETED")
	require.NoError(t, err)
	assert.Equal(t, a.ID, change.Assignment.UserID)
}

func TestAdminUpdateOnBehalfOfUserRederivesStatus(t *testing.T) {
	h := newHarness(t, config.AssigneeEditReplace)
	admin := h.register(t, "admin", domain.RoleAdmin)
	a := h.register(t, "alice", domain.RoleUser)
	b := h.register(t, "bob", domain.RoleUser)
	ticket := h.createTicket(t, admin, a, b)
	h.setStatus(t, admin, ticket.ID, "COMPLETED")

	result, err := h.status.UpdateStatus(context.Background(), admin,
		StatusUpdateInput{TicketID: ticket.ID, Status: "IN_PROGRESS", UserID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.OverallStatusInProgress, result.Assignment.OverallStatus)
	assert.Equal(t, domain.StatusSourceDerived, h.ticket(t, ticket.ID).StatusSource)
}
