package console

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumora/signal-console/internal/geo"
	"github.com/lumora/signal-console/internal/metrics"
	"github.com/lumora/signal-console/internal/models"
	"github.com/lumora/signal-console/internal/storage"
)

// IngestService accepts raw events and appends them to the store.
// Events are immutable once written; ingestion is the only writer.
type IngestService struct {
	events   storage.EventStore
	resolver *geo.Resolver
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewIngestService creates an ingest service. resolver may be nil, in
// which case events are stored without country enrichment.
func NewIngestService(events storage.EventStore, resolver *geo.Resolver, logger *zap.Logger, m *metrics.Metrics) *IngestService {
	return &IngestService{events: events, resolver: resolver, logger: logger, metrics: m}
}

var knownEventTypes = map[models.EventType]bool{
	models.EventPageView:         true,
	models.EventSessionStart:     true,
	models.EventCheckoutStarted:  true,
	models.EventPurchase:         true,
	models.EventProfileCreated:   true,
	models.EventMessageSent:      true,
	models.EventMessageDelivered: true,
	models.EventMessageOpened:    true,
	models.EventMessageClicked:   true,
	models.EventMessageBounced:   true,
	models.EventUnsubscribed:     true,
}

// Ingest validates, enriches and appends one event. remoteIP, when
// non-empty, is resolved to a country code stored in the event
// properties.
func (s *IngestService) Ingest(ctx context.Context, ev *models.Event, remoteIP string) error {
	if ev.AccountID == "" {
		s.metrics.RecordIngestFailure("missing_account")
		return fmt.Errorf("event requires an account_id")
	}
	if !knownEventTypes[ev.Type] {
		s.metrics.RecordIngestFailure("unknown_type")
		return fmt.Errorf("unknown event type %q", ev.Type)
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	if s.resolver != nil && remoteIP != "" {
		if cc := s.resolver.CountryCode(remoteIP); cc != "" {
			if ev.Properties == nil {
				ev.Properties = make(map[string]string, 1)
			}
			ev.Properties["country"] = cc
		}
	}

	if err := s.events.Append(ctx, ev); err != nil {
		s.metrics.RecordIngestFailure("store_error")
		return fmt.Errorf("append event: %w", err)
	}

	s.metrics.RecordIngest(string(ev.Type))
	s.logger.Debug("event ingested",
		zap.String("event_id", ev.ID),
		zap.String("type", string(ev.Type)),
		zap.String("account_id", ev.AccountID),
	)
	return nil
}
