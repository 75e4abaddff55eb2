package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

var (
	admin    = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	assignee = domain.Actor{ID: "user-a", Role: domain.RoleUser}
	outsider = domain.Actor{ID: "user-z", Role: domain.RoleUser}
)

func sampleTicket() *domain.Ticket {
	return &domain.Ticket{
		ID: "t1",
		Assignments: []domain.Assignment{
			{TicketID: "t1", UserID: "user-a"},
			{TicketID: "t1", UserID: "user-b"},
		},
	}
}

func TestRequireTicketManager(t *testing.T) {
	assert.NoError(t, RequireTicketManager(admin))
	err := RequireTicketManager(assignee)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestCanReadTicket(t *testing.T) {
	ticket := sampleTicket()
	assert.NoError(t, CanReadTicket(admin, ticket))
	assert.NoError(t, CanReadTicket(assignee, ticket))
	assert.True(t, apperrors.IsCode(CanReadTicket(outsider, ticket), apperrors.CodeForbidden))
}

func TestPlanStatusUpdate(t *testing.T) {
	ticket := sampleTicket()

	plan, err := PlanStatusUpdate(admin, ticket, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPathAdmin, plan.Path)

	plan, err = PlanStatusUpdate(admin, ticket, "user-b")
	require.NoError(t, err)
	assert.Equal(t, StatusPlan{Path: StatusPathAssignment, UserID: "user-b"}, plan)

	plan, err = PlanStatusUpdate(assignee, ticket, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPlan{Path: StatusPathAssignment, UserID: "user-a"}, plan)

	plan, err = PlanStatusUpdate(assignee, ticket, "user-a")
	require.NoError(t, err)
	assert.Equal(t, "user-a", plan.UserID)

	_, err = PlanStatusUpdate(assignee, ticket, "user-b")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = PlanStatusUpdate(outsider, ticket, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}
