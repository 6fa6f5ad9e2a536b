package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumora/signal-console/internal/models"
)

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// =============================================
// AGENTS
// =============================================

// PostgresAgentRepo implements AgentRepo using PostgreSQL. Send
// schedule and outcome mappings are stored as jsonb.
type PostgresAgentRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresAgentRepo(pool *pgxpool.Pool) *PostgresAgentRepo {
	return &PostgresAgentRepo{pool: pool}
}

const agentColumns = `id, account_id, name, segment_id, message_category_id,
	is_active, holdout_percentage, send_frequency, send_days,
	send_time_windows, outcome_mappings, created_at, updated_at`

func scanAgent(row pgx.Row) (*models.Agent, error) {
	var a models.Agent
	var days, windows, mappings []byte
	err := row.Scan(&a.ID, &a.AccountID, &a.Name, &a.SegmentID, &a.MessageCategoryID,
		&a.IsActive, &a.HoldoutPercentage, &a.SendFrequency, &days,
		&windows, &mappings, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(days) > 0 {
		if err := json.Unmarshal(days, &a.SendDays); err != nil {
			return nil, fmt.Errorf("failed to decode send_days: %w", err)
		}
	}
	if len(windows) > 0 {
		if err := json.Unmarshal(windows, &a.SendTimeWindows); err != nil {
			return nil, fmt.Errorf("failed to decode send_time_windows: %w", err)
		}
	}
	if len(mappings) > 0 {
		if err := json.Unmarshal(mappings, &a.OutcomeMappings); err != nil {
			return nil, fmt.Errorf("failed to decode outcome_mappings: %w", err)
		}
	}
	return &a, nil
}

func (r *PostgresAgentRepo) ListAll(ctx context.Context, accountID string) ([]*models.Agent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+agentColumns+`
		FROM agents WHERE ($1 = '' OR account_id = $1)
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []*models.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (r *PostgresAgentRepo) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	a, err := scanAgent(r.pool.QueryRow(ctx, `
		SELECT `+agentColumns+` FROM agents WHERE id = $1
	`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return a, nil
}

func (r *PostgresAgentRepo) Upsert(ctx context.Context, a *models.Agent) error {
	days, err := json.Marshal(a.SendDays)
	if err != nil {
		return fmt.Errorf("failed to encode send_days: %w", err)
	}
	windows, err := json.Marshal(a.SendTimeWindows)
	if err != nil {
		return fmt.Errorf("failed to encode send_time_windows: %w", err)
	}
	mappings, err := json.Marshal(a.OutcomeMappings)
	if err != nil {
		return fmt.Errorf("failed to encode outcome_mappings: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO agents (`+agentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			segment_id = EXCLUDED.segment_id,
			message_category_id = EXCLUDED.message_category_id,
			is_active = EXCLUDED.is_active,
			holdout_percentage = EXCLUDED.holdout_percentage,
			send_frequency = EXCLUDED.send_frequency,
			send_days = EXCLUDED.send_days,
			send_time_windows = EXCLUDED.send_time_windows,
			outcome_mappings = EXCLUDED.outcome_mappings,
			updated_at = EXCLUDED.updated_at
	`, a.ID, a.AccountID, a.Name, a.SegmentID, a.MessageCategoryID,
		a.IsActive, a.HoldoutPercentage, a.SendFrequency, days,
		windows, mappings, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert agent: %w", err)
	}
	return nil
}

func (r *PostgresAgentRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	return nil
}

// =============================================
// SEGMENTS
// =============================================

// PostgresSegmentRepo implements SegmentRepo using PostgreSQL.
type PostgresSegmentRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSegmentRepo(pool *pgxpool.Pool) *PostgresSegmentRepo {
	return &PostgresSegmentRepo{pool: pool}
}

func (r *PostgresSegmentRepo) ListAll(ctx context.Context, accountID string) ([]*models.Segment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, name, description, status, created_at, updated_at
		FROM segments WHERE ($1 = '' OR account_id = $1)
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}
	defer rows.Close()

	var segments []*models.Segment
	for rows.Next() {
		var s models.Segment
		if err := rows.Scan(&s.ID, &s.AccountID, &s.Name, &s.Description, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		segments = append(segments, &s)
	}
	return segments, rows.Err()
}

func (r *PostgresSegmentRepo) GetByID(ctx context.Context, id string) (*models.Segment, error) {
	var s models.Segment
	err := r.pool.QueryRow(ctx, `
		SELECT id, account_id, name, description, status, created_at, updated_at
		FROM segments WHERE id = $1
	`, id).Scan(&s.ID, &s.AccountID, &s.Name, &s.Description, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get segment: %w", err)
	}
	return &s, nil
}

func (r *PostgresSegmentRepo) Upsert(ctx context.Context, s *models.Segment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO segments (id, account_id, name, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, s.ID, s.AccountID, s.Name, s.Description, s.Status, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert segment: %w", err)
	}
	return nil
}

func (r *PostgresSegmentRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM segment_profiles WHERE segment_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete segment members: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM segments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete segment: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *PostgresSegmentRepo) ListMembers(ctx context.Context, segmentID string) ([]*models.SegmentProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT segment_id, profile_id, added_at
		FROM segment_profiles WHERE segment_id = $1
		ORDER BY added_at
	`, segmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list segment members: %w", err)
	}
	defer rows.Close()

	var members []*models.SegmentProfile
	for rows.Next() {
		var m models.SegmentProfile
		if err := rows.Scan(&m.SegmentID, &m.ProfileID, &m.AddedAt); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

func (r *PostgresSegmentRepo) AddMember(ctx context.Context, m *models.SegmentProfile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO segment_profiles (segment_id, profile_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (segment_id, profile_id) DO NOTHING
	`, m.SegmentID, m.ProfileID, m.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to add segment member: %w", err)
	}
	return nil
}

func (r *PostgresSegmentRepo) RemoveMember(ctx context.Context, segmentID, profileID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM segment_profiles WHERE segment_id = $1 AND profile_id = $2
	`, segmentID, profileID)
	if err != nil {
		return fmt.Errorf("failed to remove segment member: %w", err)
	}
	return nil
}
