package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []AssignmentStatus
		want     OverallStatus
	}{
		{"no assignments", nil, OverallStatusPending},
		{"all pending", []AssignmentStatus{AssignmentStatusPending, AssignmentStatusPending}, OverallStatusPending},
		{"single completed", []AssignmentStatus{AssignmentStatusCompleted}, OverallStatusCompleted},
		{"all completed", []AssignmentStatus{AssignmentStatusCompleted, AssignmentStatusCompleted, AssignmentStatusCompleted}, OverallStatusCompleted},
		{"one in progress", []AssignmentStatus{AssignmentStatusPending, AssignmentStatusInProgress}, OverallStatusInProgress},
		{"completed and pending", []AssignmentStatus{AssignmentStatusCompleted, AssignmentStatusPending}, OverallStatusInProgress},
		{"completed and in progress", []AssignmentStatus{AssignmentStatusCompleted, AssignmentStatusInProgress}, OverallStatusInProgress},
		{"all in progress", []AssignmentStatus{AssignmentStatusInProgress, AssignmentStatusInProgress}, OverallStatusInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateStatus(tt.statuses))
		})
	}
}

func TestAggregateStatusNeverProducesClosedOrOpen(t *testing.T) {
	values := AssignmentStatuses
	// every set of up to three assignments
	for _, a := range values {
		for _, b := range values {
			for _, c := range values {
				got := AggregateStatus([]AssignmentStatus{a, b, c})
				assert.NotEqual(t, OverallStatusClosed, got)
				assert.NotEqual(t, OverallStatusOpen, got)
			}
		}
	}
}

func TestDeriveOverallStatusKeepsClosed(t *testing.T) {
	assignments := []Assignment{{Status: AssignmentStatusCompleted}, {Status: AssignmentStatusCompleted}}

	next, applied := DeriveOverallStatus(OverallStatusClosed, assignments)
	assert.False(t, applied)
	assert.Equal(t, OverallStatusClosed, next)

	next, applied = DeriveOverallStatus(OverallStatusOpen, assignments)
	assert.True(t, applied)
	assert.Equal(t, OverallStatusCompleted, next)
}

func TestParseAssignmentStatus(t *testing.T) {
	for _, v := range []string{"PENDING", "IN_PROGRESS", "COMPLETED"} {
		got, ok := ParseAssignmentStatus(v)
		assert.True(t, ok, v)
		assert.Equal(t, AssignmentStatus(v), got)
	}
	for _, v := range []string{"CLOSED", "OPEN", "pending", ""} {
		_, ok := ParseAssignmentStatus(v)
		assert.False(t, ok, v)
	}
}

func TestParseOverallStatus(t *testing.T) {
	for _, v := range OverallStatusValues() {
		_, ok := ParseOverallStatus(v)
		assert.True(t, ok, v)
	}
	_, ok := ParseOverallStatus("DONE")
	assert.False(t, ok)
	assert.Len(t, OverallStatusValues(), 5)
	assert.Equal(t, []string{"PENDING", "IN_PROGRESS", "COMPLETED"}, AssignmentStatusValues())
}

func TestTicketAssignmentLookup(t *testing.T) {
	ticket := Ticket{Assignments: []Assignment{{UserID: "a"}, {UserID: "b"}}}
	a, ok := ticket.AssignmentFor("b")
	assert.True(t, ok)
	assert.Equal(t, "b", a.UserID)
	_, ok = ticket.AssignmentFor("c")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, ticket.AssigneeIDs())
}
