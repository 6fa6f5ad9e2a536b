package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumora/signal-console/internal/models"
)

// PostgresEventStore implements EventStore using PostgreSQL. Suitable
// for modest volumes; the ClickHouse store covers the rest.
type PostgresEventStore struct {
	pool *pgxpool.Pool
}

func NewPostgresEventStore(pool *pgxpool.Pool) *PostgresEventStore {
	return &PostgresEventStore{pool: pool}
}

const eventColumns = `id, account_id, occurred_at, event_type, channel, agent_id,
	message_id, profile_id, product_id, order_id, revenue, currency,
	page_url, properties`

func (s *PostgresEventStore) Append(ctx context.Context, ev *models.Event) error {
	if ev == nil {
		return nil
	}
	props, err := json.Marshal(ev.Properties)
	if err != nil {
		return fmt.Errorf("failed to encode event properties: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`, ev.ID, ev.AccountID, ev.OccurredAt, ev.Type, nullString(string(ev.Channel)), nullString(ev.AgentID),
		nullString(ev.MessageID), nullString(ev.ProfileID), nullString(ev.ProductID), nullString(ev.OrderID),
		ev.Revenue, nullString(ev.Currency), nullString(ev.PageURL), props)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func scanEvent(rows pgx.Rows) (*models.Event, error) {
	var ev models.Event
	var channel, agentID, messageID, profileID, productID, orderID, currency, pageURL *string
	var props []byte
	err := rows.Scan(&ev.ID, &ev.AccountID, &ev.OccurredAt, &ev.Type, &channel, &agentID,
		&messageID, &profileID, &productID, &orderID, &ev.Revenue, &currency,
		&pageURL, &props)
	if err != nil {
		return nil, err
	}
	if channel != nil {
		ev.Channel = models.Channel(*channel)
	}
	if agentID != nil {
		ev.AgentID = *agentID
	}
	if messageID != nil {
		ev.MessageID = *messageID
	}
	if profileID != nil {
		ev.ProfileID = *profileID
	}
	if productID != nil {
		ev.ProductID = *productID
	}
	if orderID != nil {
		ev.OrderID = *orderID
	}
	if currency != nil {
		ev.Currency = *currency
	}
	if pageURL != nil {
		ev.PageURL = *pageURL
	}
	if len(props) > 0 {
		if err := json.Unmarshal(props, &ev.Properties); err != nil {
			return nil, fmt.Errorf("failed to decode event properties: %w", err)
		}
	}
	return &ev, nil
}

func (s *PostgresEventStore) ListRange(ctx context.Context, accountID string, start, end time.Time) ([]*models.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE ($1 = '' OR account_id = $1) AND occurred_at >= $2 AND occurred_at <= $3
		ORDER BY occurred_at LIMIT 100000
	`, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *PostgresEventStore) ListByProfile(ctx context.Context, profileID string, since time.Time) ([]*models.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE profile_id = $1 AND occurred_at >= $2
		ORDER BY occurred_at LIMIT 10000
	`, profileID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list profile events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
