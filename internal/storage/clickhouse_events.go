package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/lumora/signal-console/internal/models"
)

// ClickHouseEventStore implements EventStore on ClickHouse for
// accounts whose event volume outgrows PostgreSQL. Events are
// append-only, which matches the MergeTree write path.
type ClickHouseEventStore struct {
	conn driver.Conn
}

func NewClickHouseEventStore(conn driver.Conn) *ClickHouseEventStore {
	return &ClickHouseEventStore{conn: conn}
}

// InitSchema creates the events table when it does not exist.
func (s *ClickHouseEventStore) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS events (
		id String,
		account_id String,
		occurred_at DateTime64(3),
		event_type LowCardinality(String),
		channel LowCardinality(String),
		agent_id String,
		message_id String,
		profile_id String,
		product_id String,
		order_id String,
		revenue Float64,
		currency LowCardinality(String),
		page_url String,
		properties String
	) ENGINE = MergeTree()
	ORDER BY (account_id, occurred_at, id)
	PARTITION BY toYYYYMM(occurred_at)
	SETTINGS index_granularity = 8192
	`
	if err := s.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}
	return nil
}

func (s *ClickHouseEventStore) Append(ctx context.Context, ev *models.Event) error {
	if ev == nil {
		return nil
	}
	props, err := json.Marshal(ev.Properties)
	if err != nil {
		return fmt.Errorf("failed to encode event properties: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO events")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	if err := batch.Append(
		ev.ID,
		ev.AccountID,
		ev.OccurredAt,
		string(ev.Type),
		string(ev.Channel),
		ev.AgentID,
		ev.MessageID,
		ev.ProfileID,
		ev.ProductID,
		ev.OrderID,
		ev.Revenue,
		ev.Currency,
		ev.PageURL,
		string(props),
	); err != nil {
		return fmt.Errorf("failed to append event to batch: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

func (s *ClickHouseEventStore) ListRange(ctx context.Context, accountID string, start, end time.Time) ([]*models.Event, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, account_id, occurred_at, event_type, channel, agent_id,
		       message_id, profile_id, product_id, order_id, revenue, currency,
		       page_url, properties
		FROM events
		WHERE (? = '' OR account_id = ?) AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at
	`, accountID, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	return collectClickHouseEvents(rows)
}

func (s *ClickHouseEventStore) ListByProfile(ctx context.Context, profileID string, since time.Time) ([]*models.Event, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, account_id, occurred_at, event_type, channel, agent_id,
		       message_id, profile_id, product_id, order_id, revenue, currency,
		       page_url, properties
		FROM events
		WHERE profile_id = ? AND occurred_at >= ?
		ORDER BY occurred_at
	`, profileID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile events: %w", err)
	}
	defer rows.Close()

	return collectClickHouseEvents(rows)
}

func collectClickHouseEvents(rows driver.Rows) ([]*models.Event, error) {
	var events []*models.Event
	for rows.Next() {
		var ev models.Event
		var eventType, channel, props string
		if err := rows.Scan(&ev.ID, &ev.AccountID, &ev.OccurredAt, &eventType, &channel, &ev.AgentID,
			&ev.MessageID, &ev.ProfileID, &ev.ProductID, &ev.OrderID, &ev.Revenue, &ev.Currency,
			&ev.PageURL, &props); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Type = models.EventType(eventType)
		ev.Channel = models.Channel(channel)
		if props != "" && props != "null" {
			if err := json.Unmarshal([]byte(props), &ev.Properties); err != nil {
				return nil, fmt.Errorf("failed to decode event properties: %w", err)
			}
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}
