package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumora/signal-console/internal/models"
)

// PostgresMessageRepo implements MessageRepo using PostgreSQL.
type PostgresMessageRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresMessageRepo(pool *pgxpool.Pool) *PostgresMessageRepo {
	return &PostgresMessageRepo{pool: pool}
}

func (r *PostgresMessageRepo) ListAll(ctx context.Context, accountID string) ([]*models.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, name, category_id, status, created_at, updated_at
		FROM messages WHERE ($1 = '' OR account_id = $1)
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var m models.Message
		var categoryID *string
		if err := rows.Scan(&m.ID, &m.AccountID, &m.Name, &categoryID, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if categoryID != nil {
			m.CategoryID = *categoryID
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

func (r *PostgresMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	var m models.Message
	var categoryID *string
	err := r.pool.QueryRow(ctx, `
		SELECT id, account_id, name, category_id, status, created_at, updated_at
		FROM messages WHERE id = $1
	`, id).Scan(&m.ID, &m.AccountID, &m.Name, &categoryID, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if categoryID != nil {
		m.CategoryID = *categoryID
	}
	return &m, nil
}

func (r *PostgresMessageRepo) Upsert(ctx context.Context, m *models.Message) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO messages (id, account_id, name, category_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category_id = EXCLUDED.category_id,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, m.ID, m.AccountID, m.Name, nullString(m.CategoryID), m.Status, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert message: %w", err)
	}
	return nil
}

func (r *PostgresMessageRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func (r *PostgresMessageRepo) ListVariants(ctx context.Context, messageID string) ([]*models.MessageVariant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, message_id, channel, subject, body, preview_url, created_at, updated_at
		FROM message_variants WHERE message_id = $1
		ORDER BY created_at
	`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	defer rows.Close()

	var variants []*models.MessageVariant
	for rows.Next() {
		var v models.MessageVariant
		var subject, preview *string
		if err := rows.Scan(&v.ID, &v.MessageID, &v.Channel, &subject, &v.Body, &preview, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		if subject != nil {
			v.Subject = *subject
		}
		if preview != nil {
			v.PreviewURL = *preview
		}
		variants = append(variants, &v)
	}
	return variants, rows.Err()
}

func (r *PostgresMessageRepo) UpsertVariant(ctx context.Context, v *models.MessageVariant) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO message_variants (id, message_id, channel, subject, body, preview_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			channel = EXCLUDED.channel,
			subject = EXCLUDED.subject,
			body = EXCLUDED.body,
			preview_url = EXCLUDED.preview_url,
			updated_at = EXCLUDED.updated_at
	`, v.ID, v.MessageID, v.Channel, nullString(v.Subject), v.Body, nullString(v.PreviewURL), v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert variant: %w", err)
	}
	return nil
}

func (r *PostgresMessageRepo) DeleteVariant(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM message_variants WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete variant: %w", err)
	}
	return nil
}

func (r *PostgresMessageRepo) DeleteVariantsByMessage(ctx context.Context, messageID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM message_variants WHERE message_id = $1`, messageID); err != nil {
		return fmt.Errorf("failed to delete variants: %w", err)
	}
	return nil
}
