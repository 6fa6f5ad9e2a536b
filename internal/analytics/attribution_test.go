package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumora/signal-console/internal/models"
)

func TestAttribute_SingleAgent(t *testing.T) {
	events := []*models.Event{
		{Type: models.EventPurchase, AgentID: "a1", Revenue: 40},
		{Type: models.EventMessageSent, AgentID: "a1"},
	}

	rows := Attribute(events, DimensionAgent, map[string]string{"a1": "Welcome Flow"})
	assert.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "a1", row.ID)
	assert.Equal(t, "Welcome Flow", row.Name)
	assert.Equal(t, 40.0, row.Revenue)
	assert.Equal(t, int64(1), row.Orders)
	assert.Equal(t, int64(1), row.Sends)
	assert.Equal(t, 40.0, row.AOV)
	assert.Equal(t, 40.0, row.ROI)
}

func TestAttribute_NameFallsBackToID(t *testing.T) {
	events := []*models.Event{
		{Type: models.EventPurchase, AgentID: "a-unknown", Revenue: 10},
	}
	rows := Attribute(events, DimensionAgent, nil)
	assert.Len(t, rows, 1)
	assert.Equal(t, "a-unknown", rows[0].Name)
}

func TestAttribute_SortedByRevenueDescending(t *testing.T) {
	events := []*models.Event{
		{Type: models.EventPurchase, AgentID: "low", Revenue: 5},
		{Type: models.EventPurchase, AgentID: "high", Revenue: 500},
		{Type: models.EventPurchase, AgentID: "mid", Revenue: 50},
	}
	rows := Attribute(events, DimensionAgent, nil)
	assert.Equal(t, []string{"high", "mid", "low"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
}

func TestAttribute_TiesKeepFirstSeenOrder(t *testing.T) {
	events := []*models.Event{
		{Type: models.EventMessageSent, AgentID: "first"},
		{Type: models.EventMessageSent, AgentID: "second"},
	}
	rows := Attribute(events, DimensionAgent, nil)
	assert.Equal(t, "first", rows[0].ID)
	assert.Equal(t, "second", rows[1].ID)
}

func TestAttribute_ByMessageDimension(t *testing.T) {
	events := []*models.Event{
		{Type: models.EventPurchase, AgentID: "a1", MessageID: "m1", Revenue: 30},
		{Type: models.EventMessageSent, AgentID: "a1", MessageID: "m2"},
	}
	rows := Attribute(events, DimensionMessage, nil)
	assert.Len(t, rows, 2)
	assert.Equal(t, "m1", rows[0].ID)
	assert.Equal(t, int64(1), rows[1].Sends)
}

func TestAttribute_SkipsEventsWithoutKey(t *testing.T) {
	events := []*models.Event{
		{Type: models.EventPurchase, Revenue: 100}, // organic, no agent
		{Type: models.EventPurchase, AgentID: "a1", Revenue: 10},
	}
	rows := Attribute(events, DimensionAgent, nil)
	assert.Len(t, rows, 1)
	assert.Equal(t, 10.0, rows[0].Revenue)
}

func TestAttribute_ZeroOrdersZeroSends(t *testing.T) {
	events := []*models.Event{
		{Type: models.EventMessageSent, AgentID: "a1"},
	}
	rows := Attribute(events, DimensionAgent, nil)
	assert.Zero(t, rows[0].AOV)
	assert.Zero(t, rows[0].ROI)
}

func TestCompare(t *testing.T) {
	rows := []AttributionRow{
		{ID: "a1", Revenue: 100},
		{ID: "a2", Revenue: 50},
	}

	a, b := Compare(rows, "a1", "a2")
	assert.NotNil(t, a)
	assert.NotNil(t, b)
	assert.Equal(t, 100.0, a.Revenue)
	assert.Equal(t, 50.0, b.Revenue)

	a, b = Compare(rows, "a1", "missing")
	assert.NotNil(t, a)
	assert.Nil(t, b)
}
