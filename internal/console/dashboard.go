package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lumora/signal-console/internal/analytics"
	"github.com/lumora/signal-console/internal/database"
	"github.com/lumora/signal-console/internal/metrics"
	"github.com/lumora/signal-console/internal/models"
	"github.com/lumora/signal-console/internal/storage"
)

// KPIReport groups the dashboard cards by vertical.
type KPIReport struct {
	Web         []analytics.KPI `json:"web"`
	Messaging   []analytics.KPI `json:"messaging"`
	Ecommerce   []analytics.KPI `json:"ecommerce"`
	Attribution []analytics.KPI `json:"attribution"`
}

// DashboardService computes time series, KPI rollups and attribution
// tables over the event store. Computed payloads are memoized in Redis
// for a short TTL; with no Redis every call recomputes.
type DashboardService struct {
	events   storage.EventStore
	agents   storage.AgentRepo
	messages storage.MessageRepo
	cache    *database.RedisDB
	loc      *time.Location
	cacheTTL time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewDashboardService(
	events storage.EventStore,
	agents storage.AgentRepo,
	messages storage.MessageRepo,
	cache *database.RedisDB,
	loc *time.Location,
	cacheTTL time.Duration,
	logger *zap.Logger,
	m *metrics.Metrics,
) *DashboardService {
	return &DashboardService{
		events:   events,
		agents:   agents,
		messages: messages,
		cache:    cache,
		loc:      loc,
		cacheTTL: cacheTTL,
		logger:   logger,
		metrics:  m,
	}
}

// Series buckets an account's events into the requested granularity.
// Bucket alignment follows the configured timezone, so the same query
// returns the same buckets on every host.
func (s *DashboardService) Series(ctx context.Context, accountID string, start, end time.Time, g analytics.Granularity, types []models.EventType) (*analytics.Series, error) {
	key := s.cacheKey("series", accountID, start, end, string(g), joinTypes(types))
	var out analytics.Series
	if s.fromCache(ctx, key, &out) {
		return &out, nil
	}

	began := time.Now()
	events, err := s.events.ListRange(ctx, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	series := analytics.BucketSeries(events, start, end, g, s.loc, types)
	s.metrics.RecordAggregation("series", time.Since(began))

	s.toCache(ctx, key, series)
	return series, nil
}

// KPIs computes all four card groups for [start, end], with deltas
// against the preceding period of equal length.
func (s *DashboardService) KPIs(ctx context.Context, accountID string, start, end time.Time) (*KPIReport, error) {
	key := s.cacheKey("kpis", accountID, start, end)
	var out KPIReport
	if s.fromCache(ctx, key, &out) {
		return &out, nil
	}

	began := time.Now()
	cur, err := s.events.ListRange(ctx, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	prevStart, prevEnd := analytics.PreviousPeriod(start, end)
	prev, err := s.events.ListRange(ctx, accountID, prevStart, prevEnd)
	if err != nil {
		return nil, fmt.Errorf("load previous period: %w", err)
	}

	curRoll := analytics.NewRollup(cur)
	prevRoll := analytics.NewRollup(prev)
	report := &KPIReport{
		Web:         analytics.WebKPIs(curRoll, prevRoll),
		Messaging:   analytics.MessagingKPIs(curRoll, prevRoll),
		Ecommerce:   analytics.EcommerceKPIs(curRoll, prevRoll),
		Attribution: analytics.AttributionKPIs(curRoll, prevRoll),
	}
	s.metrics.RecordAggregation("kpis", time.Since(began))

	s.toCache(ctx, key, report)
	return report, nil
}

// Attribution groups purchase revenue and message sends by agent or
// message, joining display names from the corresponding repository.
func (s *DashboardService) Attribution(ctx context.Context, accountID string, start, end time.Time, dim analytics.Dimension) ([]analytics.AttributionRow, error) {
	key := s.cacheKey("attribution", accountID, start, end, string(dim))
	var out []analytics.AttributionRow
	if s.fromCache(ctx, key, &out) {
		return out, nil
	}

	began := time.Now()
	events, err := s.events.ListRange(ctx, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	names, err := s.displayNames(ctx, accountID, dim)
	if err != nil {
		return nil, err
	}

	rows := analytics.Attribute(events, dim, names)
	s.metrics.RecordAggregation("attribution", time.Since(began))

	s.toCache(ctx, key, rows)
	return rows, nil
}

// CompareAgents returns the attribution rows for two agents side by
// side. A nil side means that agent produced no attributed events in
// the window.
func (s *DashboardService) CompareAgents(ctx context.Context, accountID string, start, end time.Time, agentA, agentB string) (a, b *analytics.AttributionRow, err error) {
	rows, err := s.Attribution(ctx, accountID, start, end, analytics.DimensionAgent)
	if err != nil {
		return nil, nil, err
	}
	a, b = analytics.Compare(rows, agentA, agentB)
	return a, b, nil
}

func (s *DashboardService) displayNames(ctx context.Context, accountID string, dim analytics.Dimension) (map[string]string, error) {
	names := make(map[string]string)
	switch dim {
	case analytics.DimensionAgent:
		agents, err := s.agents.ListAll(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("load agents: %w", err)
		}
		for _, a := range agents {
			names[a.ID] = a.Name
		}
	case analytics.DimensionMessage:
		msgs, err := s.messages.ListAll(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("load messages: %w", err)
		}
		for _, m := range msgs {
			names[m.ID] = m.Name
		}
	default:
		return nil, fmt.Errorf("unknown attribution dimension %q", dim)
	}
	return names, nil
}

func (s *DashboardService) cacheKey(kind, accountID string, start, end time.Time, extra ...string) string {
	parts := append([]string{
		"dashboard", kind, accountID,
		fmt.Sprintf("%d", start.Unix()),
		fmt.Sprintf("%d", end.Unix()),
	}, extra...)
	return strings.Join(parts, ":")
}

func (s *DashboardService) fromCache(ctx context.Context, key string, dst interface{}) bool {
	if s.cache == nil || s.cacheTTL <= 0 {
		return false
	}
	raw, err := s.cache.Client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.RecordCacheOutcome("miss")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("dashboard cache payload corrupt", zap.String("key", key), zap.Error(err))
		s.metrics.RecordCacheOutcome("miss")
		return false
	}
	s.metrics.RecordCacheOutcome("hit")
	return true
}

func (s *DashboardService) toCache(ctx context.Context, key string, v interface{}) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func joinTypes(types []models.EventType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}
