package domain

// AssignmentStatuses lists the values an assignee may set on their own assignment.
var AssignmentStatuses = []AssignmentStatus{
	AssignmentStatusPending,
	AssignmentStatusInProgress,
	AssignmentStatusCompleted,
}

// OverallStatuses lists the values an admin may set directly.
var OverallStatuses = []OverallStatus{
	OverallStatusPending,
	OverallStatusOpen,
	OverallStatusInProgress,
	OverallStatusCompleted,
	OverallStatusClosed,
}

// ParseAssignmentStatus accepts only assignee-settable values; CLOSED is rejected.
func ParseAssignmentStatus(value string) (AssignmentStatus, bool) {
	for _, s := range AssignmentStatuses {
		if string(s) == value {
			return s, true
		}
	}
	return "", false
}

// ParseOverallStatus accepts any recognized overall status.
func ParseOverallStatus(value string) (OverallStatus, bool) {
	for _, s := range OverallStatuses {
		if string(s) == value {
			return s, true
		}
	}
	return "", false
}

// AggregateStatus derives the overall status from the full assignment set.
// First match wins: all COMPLETED, then any progress, then PENDING.
// The result is never CLOSED or OPEN.
func AggregateStatus(statuses []AssignmentStatus) OverallStatus {
	if len(statuses) == 0 {
		return OverallStatusPending
	}
	allCompleted := true
	anyProgress := false
	for _, s := range statuses {
		switch s {
		case AssignmentStatusCompleted:
			anyProgress = true
		case AssignmentStatusInProgress:
			anyProgress = true
			allCompleted = false
		default:
			allCompleted = false
		}
	}
	switch {
	case allCompleted:
		return OverallStatusCompleted
	case anyProgress:
		return OverallStatusInProgress
	default:
		return OverallStatusPending
	}
}

// DeriveOverallStatus returns the overall status a ticket should carry after an assignee update.
// CLOSED is only entered or left through an admin set, so a closed ticket keeps its status and
// applied is false.
func DeriveOverallStatus(current OverallStatus, assignments []Assignment) (next OverallStatus, applied bool) {
	if current == OverallStatusClosed {
		return current, false
	}
	statuses := make([]AssignmentStatus, 0, len(assignments))
	for _, a := range assignments {
		statuses = append(statuses, a.Status)
	}
	return AggregateStatus(statuses), true
}

// AssignmentStatusValues returns the assignee-settable values as strings.
func AssignmentStatusValues() []string {
	out := make([]string, 0, len(AssignmentStatuses))
	for _, s := range AssignmentStatuses {
		out = append(out, string(s))
	}
	return out
}

// OverallStatusValues returns the admin-settable values as strings.
func OverallStatusValues() []string {
	out := make([]string, 0, len(OverallStatuses))
	for _, s := range OverallStatuses {
		out = append(out, string(s))
	}
	return out
}
