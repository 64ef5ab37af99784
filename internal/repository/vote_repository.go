package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickdesk/quickdesk/internal/domain"
)

type voteRepository struct {
	pool *pgxpool.Pool
}

// NewVoteRepository instantiates the Postgres-backed repository.
func NewVoteRepository(pool *pgxpool.Pool) VoteRepository {
	return &voteRepository{pool: pool}
}

// Set upserts the caller's vote. The (ticket_id, account_id) primary key
// guarantees an account never sits in both vote sets.
func (r *voteRepository) Set(ctx context.Context, vote *domain.Vote) error {
	const query = `
        INSERT INTO ticket_votes (ticket_id, account_id, direction)
        VALUES ($1,$2,$3)
        ON CONFLICT (ticket_id, account_id) DO UPDATE SET direction=EXCLUDED.direction
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		vote.TicketID,
		vote.AccountID,
		vote.Direction,
	).Scan(&vote.CreatedAt)
}

func (r *voteRepository) Counts(ctx context.Context, ticketID string) (domain.VoteCounts, error) {
	const query = `
        SELECT
            COUNT(*) FILTER (WHERE direction='up'),
            COUNT(*) FILTER (WHERE direction='down')
        FROM ticket_votes WHERE ticket_id=$1`
	var counts domain.VoteCounts
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(&counts.Upvotes, &counts.Downvotes); err != nil {
		return domain.VoteCounts{}, err
	}
	return counts, nil
}

func (r *voteRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Vote, error) {
	const query = `
        SELECT ticket_id, account_id, direction, created_at
        FROM ticket_votes WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Vote
	for rows.Next() {
		var vote domain.Vote
		if err := rows.Scan(&vote.TicketID, &vote.AccountID, &vote.Direction, &vote.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, vote)
	}
	return result, rows.Err()
}
