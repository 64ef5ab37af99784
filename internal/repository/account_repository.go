package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickdesk/quickdesk/internal/domain"
)

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository instantiates the Postgres-backed repository.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

const accountColumns = `id, subject_id, email, name, avatar_url, role, active,
       notify_email, notify_ticket_updates, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (subject_id, email, name, avatar_url, role, active, notify_email, notify_ticket_updates)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		account.SubjectID,
		account.Email,
		account.Name,
		account.AvatarURL,
		account.Role,
		account.Active,
		account.Preferences.Email,
		account.Preferences.TicketUpdates,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

func (r *accountRepository) Save(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE accounts SET email=$1, name=$2, avatar_url=$3, role=$4, active=$5,
            notify_email=$6, notify_ticket_updates=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		account.Email,
		account.Name,
		account.AvatarURL,
		account.Role,
		account.Active,
		account.Preferences.Email,
		account.Preferences.TicketUpdates,
		account.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id=$1`, accountColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *accountRepository) GetBySubjectID(ctx context.Context, subjectID string) (*domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE subject_id=$1`, accountColumns)
	return r.fetchSingle(ctx, query, subjectID)
}

func (r *accountRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var account domain.Account
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.SubjectID,
		&account.Email,
		&account.Name,
		&account.AvatarURL,
		&account.Role,
		&account.Active,
		&account.Preferences.Email,
		&account.Preferences.TicketUpdates,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

func accountFilterClauses(filter AccountFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(email) LIKE %s)", placeholder, placeholder))
	}
	return clauses, args
}

func (r *accountRepository) List(ctx context.Context, filter AccountFilter) ([]domain.Account, error) {
	clauses, args := accountFilterClauses(filter)

	sortBy := "created_at"
	if filter.SortBy == "name" || filter.SortBy == "email" || filter.SortBy == "role" {
		sortBy = filter.SortBy
	}
	order := "ASC"
	if filter.SortDesc {
		order = "DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		accountColumns, strings.Join(clauses, " AND "), sortBy, order, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.ID,
			&account.SubjectID,
			&account.Email,
			&account.Name,
			&account.AvatarURL,
			&account.Role,
			&account.Active,
			&account.Preferences.Email,
			&account.Preferences.TicketUpdates,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	return result, rows.Err()
}

func (r *accountRepository) Count(ctx context.Context, filter AccountFilter) (int64, error) {
	clauses, args := accountFilterClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM accounts WHERE %s`, strings.Join(clauses, " AND "))
	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *accountRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	const query = `SELECT COUNT(*) FROM accounts WHERE active AND created_at >= $1`
	var count int64
	if err := r.pool.QueryRow(ctx, query, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
