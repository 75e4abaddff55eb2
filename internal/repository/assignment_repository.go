package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// AssignmentRepository persists ticket/user assignments. Listings include the user reference.
type AssignmentRepository interface {
	CreateMany(ctx context.Context, ticketID string, userIDs []string, status domain.AssignmentStatus) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Assignment, error)
	ListByTickets(ctx context.Context, ticketIDs []string) (map[string][]domain.Assignment, error)
	Get(ctx context.Context, ticketID, userID string) (*domain.Assignment, error)
	UpdateStatus(ctx context.Context, ticketID, userID string, status domain.AssignmentStatus) (*domain.Assignment, error)
	DeleteByTicket(ctx context.Context, ticketID string) error
	DeleteUsers(ctx context.Context, ticketID string, userIDs []string) error
}

type assignmentRepository struct {
	db DBTX
}

// NewAssignmentRepository builds repository.
func NewAssignmentRepository(db DBTX) AssignmentRepository {
	return &assignmentRepository{db: db}
}

const assignmentSelect = `
        SELECT a.id, a.ticket_id, a.user_id, u.name, u.email, a.status, a.created_at, a.updated_at
        FROM ticket_assignments a
        JOIN users u ON u.id = a.user_id`

func (r *assignmentRepository) CreateMany(ctx context.Context, ticketID string, userIDs []string, status domain.AssignmentStatus) error {
	const query = `
        INSERT INTO ticket_assignments (ticket_id, user_id, status)
        SELECT $1::uuid, u, $3::text FROM unnest($2::uuid[]) WITH ORDINALITY AS x(u, ord) ORDER BY ord`
	_, err := r.db.Exec(ctx, query, ticketID, userIDs, status)
	return err
}

func (r *assignmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Assignment, error) {
	rows, err := r.db.Query(ctx, assignmentSelect+` WHERE a.ticket_id=$1 ORDER BY a.seq ASC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (r *assignmentRepository) ListByTickets(ctx context.Context, ticketIDs []string) (map[string][]domain.Assignment, error) {
	result := make(map[string][]domain.Assignment, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return result, nil
	}
	rows, err := r.db.Query(ctx, assignmentSelect+` WHERE a.ticket_id = ANY($1::uuid[]) ORDER BY a.seq ASC`, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments, err := scanAssignments(rows)
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		result[a.TicketID] = append(result[a.TicketID], a)
	}
	return result, nil
}

func (r *assignmentRepository) Get(ctx context.Context, ticketID, userID string) (*domain.Assignment, error) {
	return scanAssignment(r.db.QueryRow(ctx, assignmentSelect+` WHERE a.ticket_id=$1 AND a.user_id=$2`, ticketID, userID))
}

func (r *assignmentRepository) UpdateStatus(ctx context.Context, ticketID, userID string, status domain.AssignmentStatus) (*domain.Assignment, error) {
	cmd, err := r.db.Exec(ctx, `
        UPDATE ticket_assignments SET status=$1, updated_at=NOW()
        WHERE ticket_id=$2 AND user_id=$3`, status, ticketID, userID)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, pgx.ErrNoRows
	}
	return r.Get(ctx, ticketID, userID)
}

func (r *assignmentRepository) DeleteByTicket(ctx context.Context, ticketID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM ticket_assignments WHERE ticket_id=$1`, ticketID)
	return err
}

func (r *assignmentRepository) DeleteUsers(ctx context.Context, ticketID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `DELETE FROM ticket_assignments WHERE ticket_id=$1 AND user_id = ANY($2::uuid[])`, ticketID, userIDs)
	return err
}

func scanAssignments(rows pgx.Rows) ([]domain.Assignment, error) {
	var result []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func scanAssignment(row pgx.Row) (*domain.Assignment, error) {
	var a domain.Assignment
	user := domain.UserRef{}
	if err := row.Scan(
		&a.ID,
		&a.TicketID,
		&a.UserID,
		&user.Name,
		&user.Email,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.ID = a.UserID
	a.User = &user
	return &a, nil
}
