package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickdesk/quickdesk/internal/domain"
)

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository instantiates the Postgres-backed repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO ticket_attachments (ticket_id, storage_key, file_name, content_type, size_bytes, position)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.StorageKey,
		attachment.FileName,
		attachment.ContentType,
		attachment.SizeBytes,
		attachment.Position,
	).Scan(&attachment.ID)
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, storage_key, file_name, content_type, size_bytes, position
        FROM ticket_attachments WHERE ticket_id=$1 ORDER BY position ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketID,
			&attachment.StorageKey,
			&attachment.FileName,
			&attachment.ContentType,
			&attachment.SizeBytes,
			&attachment.Position,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}

func (r *attachmentRepository) GetByID(ctx context.Context, ticketID, attachmentID string) (*domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, storage_key, file_name, content_type, size_bytes, position
        FROM ticket_attachments WHERE ticket_id=$1 AND id=$2`
	var attachment domain.Attachment
	if err := r.pool.QueryRow(ctx, query, ticketID, attachmentID).Scan(
		&attachment.ID,
		&attachment.TicketID,
		&attachment.StorageKey,
		&attachment.FileName,
		&attachment.ContentType,
		&attachment.SizeBytes,
		&attachment.Position,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &attachment, nil
}
