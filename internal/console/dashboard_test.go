package console

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/lumora/signal-console/internal/analytics"
	"github.com/lumora/signal-console/internal/models"
	"github.com/lumora/signal-console/internal/storage"
)

func newDashboard(t *testing.T) (*DashboardService, *storage.InMemoryEventStore, *storage.InMemoryAgentRepo) {
	t.Helper()
	events := storage.NewInMemoryEventStore()
	agents := storage.NewInMemoryAgentRepo()
	messages := storage.NewInMemoryMessageRepo()
	svc := NewDashboardService(events, agents, messages, nil, time.UTC, 0, zap.NewNop(), nil)
	return svc, events, agents
}

func seed(t *testing.T, store *storage.InMemoryEventStore, events ...*models.Event) {
	t.Helper()
	for i, ev := range events {
		if ev.ID == "" {
			ev.ID = string(rune('a' + i))
		}
		if ev.AccountID == "" {
			ev.AccountID = "acc"
		}
		assert.NoError(t, store.Append(context.Background(), ev))
	}
}

func TestDashboardSeries_SingleDayTwoPurchases(t *testing.T) {
	svc, store, _ := newDashboard(t)
	d := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	seed(t, store,
		&models.Event{Type: models.EventPurchase, Revenue: 100, OccurredAt: d.Add(2 * time.Hour)},
		&models.Event{Type: models.EventPurchase, Revenue: 50, OccurredAt: d.Add(4 * time.Hour)},
	)

	s, err := svc.Series(context.Background(), "acc", d, d.Add(23*time.Hour), analytics.GranularityDay, []models.EventType{models.EventPurchase})
	assert.NoError(t, err)
	assert.Len(t, s.Buckets, 1)
	assert.Equal(t, []int64{2}, s.Counts[models.EventPurchase])
}

func TestDashboardKPIs_RevenueAndAOV(t *testing.T) {
	svc, store, _ := newDashboard(t)
	d := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	seed(t, store,
		&models.Event{Type: models.EventPurchase, Revenue: 100, OccurredAt: d},
		&models.Event{Type: models.EventPurchase, Revenue: 50, OccurredAt: d},
	)

	report, err := svc.KPIs(context.Background(), "acc", d.AddDate(0, 0, -1), d.AddDate(0, 0, 1))
	assert.NoError(t, err)

	byLabel := make(map[string]analytics.KPI)
	for _, k := range report.Ecommerce {
		byLabel[k.Label] = k
	}
	assert.Equal(t, 150.0, byLabel["Revenue"].Value)
	assert.Equal(t, 2.0, byLabel["Orders"].Value)
	assert.Equal(t, 75.0, byLabel["AOV"].Value)
}

func TestDashboardKPIs_DeltaAgainstPreviousPeriod(t *testing.T) {
	svc, store, _ := newDashboard(t)
	start := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

	// One purchase in the current window, none before.
	seed(t, store,
		&models.Event{Type: models.EventPurchase, Revenue: 5, OccurredAt: start.Add(time.Hour)},
	)

	report, err := svc.KPIs(context.Background(), "acc", start, end)
	assert.NoError(t, err)

	for _, k := range report.Ecommerce {
		if k.Label == "Revenue" {
			// (5-0)/max(1,0) = 5, never Inf.
			assert.Equal(t, 5.0, k.Delta)
		}
	}
}

func TestDashboardAttribution_JoinsAgentNames(t *testing.T) {
	svc, store, agents := newDashboard(t)
	ctx := context.Background()
	d := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	err := agents.Upsert(ctx, &models.Agent{ID: "a1", AccountID: "acc", Name: "Welcome Flow"})
	assert.NoError(t, err)

	seed(t, store,
		&models.Event{Type: models.EventPurchase, Revenue: 40, AgentID: "a1", OccurredAt: d},
		&models.Event{Type: models.EventMessageSent, AgentID: "a1", OccurredAt: d},
	)

	rows, err := svc.Attribution(ctx, "acc", d.AddDate(0, 0, -1), d.AddDate(0, 0, 1), analytics.DimensionAgent)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "Welcome Flow", rows[0].Name)
	assert.Equal(t, 40.0, rows[0].Revenue)
	assert.Equal(t, int64(1), rows[0].Orders)
	assert.Equal(t, int64(1), rows[0].Sends)
	assert.Equal(t, 40.0, rows[0].AOV)
	assert.Equal(t, 40.0, rows[0].ROI)
}

func TestDashboardAttribution_UnknownDimension(t *testing.T) {
	svc, _, _ := newDashboard(t)
	_, err := svc.Attribution(context.Background(), "acc", time.Now().AddDate(0, 0, -1), time.Now(), "placement")
	assert.Error(t, err)
}

func TestDashboardCompareAgents(t *testing.T) {
	svc, store, _ := newDashboard(t)
	d := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	seed(t, store,
		&models.Event{Type: models.EventPurchase, Revenue: 100, AgentID: "a1", OccurredAt: d},
		&models.Event{Type: models.EventPurchase, Revenue: 25, AgentID: "a2", OccurredAt: d},
	)

	a, b, err := svc.CompareAgents(context.Background(), "acc", d.AddDate(0, 0, -1), d.AddDate(0, 0, 1), "a1", "a2")
	assert.NoError(t, err)
	assert.NotNil(t, a)
	assert.NotNil(t, b)
	assert.Equal(t, 100.0, a.Revenue)
	assert.Equal(t, 25.0, b.Revenue)

	a, b, err = svc.CompareAgents(context.Background(), "acc", d.AddDate(0, 0, -1), d.AddDate(0, 0, 1), "a1", "ghost")
	assert.NoError(t, err)
	assert.NotNil(t, a)
	assert.Nil(t, b)
}

func TestDashboardSeries_NoCacheStillWorks(t *testing.T) {
	// With a nil Redis handle every call recomputes.
	svc, _, _ := newDashboard(t)
	d := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		s, err := svc.Series(context.Background(), "acc", d, d, analytics.GranularityDay, models.WebEventTypes)
		assert.NoError(t, err)
		assert.Len(t, s.Buckets, 1)
	}
}
