package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickdesk/quickdesk/internal/domain"
)

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, subject, body, category_id, status, priority, created_by,
       assigned_to, revision, created_at, updated_at, last_activity_at, resolved_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (subject, body, category_id, status, priority, created_by, assigned_to, last_activity_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
        RETURNING id, revision, created_at, updated_at, last_activity_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Body,
		ticket.CategoryID,
		ticket.Status,
		ticket.Priority,
		ticket.CreatedBy,
		ticket.AssignedTo,
	).Scan(&ticket.ID, &ticket.Revision, &ticket.CreatedAt, &ticket.UpdatedAt, &ticket.LastActivityAt)
}

// Save persists a mutated ticket with a compare-and-swap on the revision
// column. Zero rows means either the ticket vanished or another writer won
// the race; the follow-up existence check tells the two apart.
func (r *ticketRepository) Save(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET subject=$1, body=$2, category_id=$3, status=$4, priority=$5,
            assigned_to=$6, last_activity_at=$7, resolved_at=$8,
            revision=revision+1, updated_at=NOW()
        WHERE id=$9 AND revision=$10
        RETURNING revision, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Body,
		ticket.CategoryID,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedTo,
		ticket.LastActivityAt,
		ticket.ResolvedAt,
		ticket.ID,
		ticket.Revision,
	).Scan(&ticket.Revision, &ticket.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var exists bool
	if checkErr := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); checkErr != nil {
		return checkErr
	}
	if exists {
		return ErrRevisionConflict
	}
	return ErrNotFound
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Subject,
		&ticket.Body,
		&ticket.CategoryID,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.Revision,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.LastActivityAt,
		&ticket.ResolvedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func ticketFilterClauses(filter TicketFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(subject) LIKE %s OR LOWER(body) LIKE %s)", placeholder, placeholder))
	}
	return clauses, args
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses, args := ticketFilterClauses(filter)

	sortBy := "last_activity_at"
	switch filter.SortBy {
	case "created_at", "priority", "status", "subject":
		sortBy = filter.SortBy
	}
	order := "ASC"
	if filter.SortDesc {
		order = "DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), sortBy, order, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Subject,
			&ticket.Body,
			&ticket.CategoryID,
			&ticket.Status,
			&ticket.Priority,
			&ticket.CreatedBy,
			&ticket.AssignedTo,
			&ticket.Revision,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.LastActivityAt,
			&ticket.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int64, error) {
	clauses, args := ticketFilterClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, strings.Join(clauses, " AND "))
	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) ClearAssignee(ctx context.Context, accountID string) (int64, error) {
	const query = `
        UPDATE tickets SET assigned_to=NULL, revision=revision+1, updated_at=NOW()
        WHERE assigned_to=$1 AND status IN ($2,$3)`
	cmd, err := r.pool.Exec(ctx, query, accountID, domain.TicketStatusOpen, domain.TicketStatusInProgress)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
