package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumora/signal-console/internal/models"
)

// PostgresProfileRepo implements ProfileRepo using PostgreSQL.
// Arbitrary profile properties are stored as jsonb.
type PostgresProfileRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresProfileRepo(pool *pgxpool.Pool) *PostgresProfileRepo {
	return &PostgresProfileRepo{pool: pool}
}

const profileColumns = `id, account_id, email, phone, first_name, last_name,
	device_id, properties, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	var email, phone, first, last, device *string
	var props []byte
	err := row.Scan(&p.ID, &p.AccountID, &email, &phone, &first, &last,
		&device, &props, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if email != nil {
		p.Email = *email
	}
	if phone != nil {
		p.Phone = *phone
	}
	if first != nil {
		p.FirstName = *first
	}
	if last != nil {
		p.LastName = *last
	}
	if device != nil {
		p.DeviceID = *device
	}
	if len(props) > 0 {
		if err := json.Unmarshal(props, &p.Properties); err != nil {
			return nil, fmt.Errorf("failed to decode profile properties: %w", err)
		}
	}
	return &p, nil
}

func (r *PostgresProfileRepo) ListAll(ctx context.Context, accountID string) ([]*models.Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM profiles WHERE ($1 = '' OR account_id = $1)
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *PostgresProfileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+` FROM profiles WHERE id = $1
	`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func (r *PostgresProfileRepo) Upsert(ctx context.Context, p *models.Profile) error {
	props, err := json.Marshal(p.Properties)
	if err != nil {
		return fmt.Errorf("failed to encode profile properties: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			device_id = EXCLUDED.device_id,
			properties = EXCLUDED.properties,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.AccountID, nullString(p.Email), nullString(p.Phone), nullString(p.FirstName),
		nullString(p.LastName), nullString(p.DeviceID), props, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (r *PostgresProfileRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM channel_subscriptions WHERE profile_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete subscriptions: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *PostgresProfileRepo) ListSubscriptions(ctx context.Context, profileID string) ([]*models.ChannelSubscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT profile_id, channel, status, is_primary, updated_at
		FROM channel_subscriptions WHERE profile_id = $1
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*models.ChannelSubscription
	for rows.Next() {
		var s models.ChannelSubscription
		if err := rows.Scan(&s.ProfileID, &s.Channel, &s.Status, &s.IsPrimary, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}

func (r *PostgresProfileRepo) GetSubscription(ctx context.Context, profileID string, ch models.Channel) (*models.ChannelSubscription, error) {
	var s models.ChannelSubscription
	err := r.pool.QueryRow(ctx, `
		SELECT profile_id, channel, status, is_primary, updated_at
		FROM channel_subscriptions WHERE profile_id = $1 AND channel = $2
	`, profileID, ch).Scan(&s.ProfileID, &s.Channel, &s.Status, &s.IsPrimary, &s.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &s, nil
}

func (r *PostgresProfileRepo) UpsertSubscription(ctx context.Context, sub *models.ChannelSubscription) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO channel_subscriptions (profile_id, channel, status, is_primary, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (profile_id, channel) DO UPDATE SET
			status = EXCLUDED.status,
			is_primary = EXCLUDED.is_primary,
			updated_at = EXCLUDED.updated_at
	`, sub.ProfileID, sub.Channel, sub.Status, sub.IsPrimary, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

// =============================================
// DECISIONS
// =============================================

// PostgresDecisionRepo implements DecisionRepo using PostgreSQL.
type PostgresDecisionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresDecisionRepo(pool *pgxpool.Pool) *PostgresDecisionRepo {
	return &PostgresDecisionRepo{pool: pool}
}

const decisionColumns = `id, account_id, agent_id, profile_id, message_id,
	message_variant_id, channel, is_holdout, was_sent, send_error,
	scheduled_send_at, decisioned_at, reasoning`

func scanDecision(row pgx.Row) (*models.AgentDecision, error) {
	var d models.AgentDecision
	var messageID, variantID, channel, sendErr, reasoning *string
	err := row.Scan(&d.ID, &d.AccountID, &d.AgentID, &d.ProfileID, &messageID,
		&variantID, &channel, &d.IsHoldout, &d.WasSent, &sendErr,
		&d.ScheduledSendAt, &d.DecisionedAt, &reasoning)
	if err != nil {
		return nil, err
	}
	if messageID != nil {
		d.MessageID = *messageID
	}
	if variantID != nil {
		d.MessageVariantID = *variantID
	}
	if channel != nil {
		d.Channel = models.Channel(*channel)
	}
	if sendErr != nil {
		d.SendError = *sendErr
	}
	if reasoning != nil {
		d.Reasoning = *reasoning
	}
	return &d, nil
}

func (r *PostgresDecisionRepo) ListAll(ctx context.Context, accountID string) ([]*models.AgentDecision, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+decisionColumns+`
		FROM agent_decisions WHERE ($1 = '' OR account_id = $1)
		ORDER BY decisioned_at DESC LIMIT 10000
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()
	return collectDecisions(rows)
}

func (r *PostgresDecisionRepo) ListByAgent(ctx context.Context, agentID string) ([]*models.AgentDecision, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+decisionColumns+`
		FROM agent_decisions WHERE agent_id = $1
		ORDER BY decisioned_at DESC LIMIT 10000
	`, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions by agent: %w", err)
	}
	defer rows.Close()
	return collectDecisions(rows)
}

func collectDecisions(rows pgx.Rows) ([]*models.AgentDecision, error) {
	var decisions []*models.AgentDecision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

func (r *PostgresDecisionRepo) GetByID(ctx context.Context, id string) (*models.AgentDecision, error) {
	d, err := scanDecision(r.pool.QueryRow(ctx, `
		SELECT `+decisionColumns+` FROM agent_decisions WHERE id = $1
	`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decision: %w", err)
	}
	return d, nil
}

func (r *PostgresDecisionRepo) Insert(ctx context.Context, d *models.AgentDecision) error {
	var channel *string
	if d.Channel != "" {
		ch := string(d.Channel)
		channel = &ch
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO agent_decisions (`+decisionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`, d.ID, d.AccountID, d.AgentID, d.ProfileID, nullString(d.MessageID),
		nullString(d.MessageVariantID), channel, d.IsHoldout, d.WasSent, nullString(d.SendError),
		d.ScheduledSendAt, d.DecisionedAt, nullString(d.Reasoning))
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}
	return nil
}
