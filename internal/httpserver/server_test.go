package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/lumora/signal-console/internal/analytics"
	"github.com/lumora/signal-console/internal/config"
	"github.com/lumora/signal-console/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Addr: ":0", Env: "test"},
		Dashboard: config.DashboardConfig{
			Timezone: "UTC",
		},
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	return NewServer(&Dependencies{
		Config: testConfig(),
		Logger: zap.NewNop(),
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	w := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestIngestAndSeries(t *testing.T) {
	h := newTestServer(t)

	for _, revenue := range []float64{100, 50} {
		w := doJSON(t, h, http.MethodPost, "/events/ingest", models.Event{
			AccountID:  "acc",
			Type:       models.EventPurchase,
			Revenue:    revenue,
			OccurredAt: mustTime("2024-03-15T10:00:00Z"),
		})
		assert.Equal(t, http.StatusAccepted, w.Code)
	}

	w := doJSON(t, h, http.MethodGet,
		"/dashboard/series?account_id=acc&start=2024-03-15&end=2024-03-15&granularity=day&types=purchase", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var series analytics.Series
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &series))
	assert.Len(t, series.Buckets, 1)
	assert.Equal(t, []int64{2}, series.Counts[models.EventPurchase])
}

func TestIngest_RejectsUnknownType(t *testing.T) {
	h := newTestServer(t)
	w := doJSON(t, h, http.MethodPost, "/events/ingest", models.Event{
		AccountID: "acc",
		Type:      "telepathy",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAgentLifecycle(t *testing.T) {
	h := newTestServer(t)

	// Agent creation needs an existing segment.
	w := doJSON(t, h, http.MethodPost, "/segments", models.Segment{ID: "seg1", AccountID: "acc", Name: "VIPs"})
	assert.Equal(t, http.StatusOK, w.Code)

	agent := models.Agent{
		AccountID:         "acc",
		Name:              "Welcome Flow",
		SegmentID:         "seg1",
		HoldoutPercentage: 10,
		SendFrequency:     models.FrequencyWeekly,
		OutcomeMappings: []models.OutcomeMapping{
			{Outcome: models.OutcomeWorst, EventType: models.EventUnsubscribed},
			{Outcome: models.OutcomeGood, EventType: models.EventMessageOpened},
			{Outcome: models.OutcomeVeryGood, EventType: models.EventMessageClicked},
			{Outcome: models.OutcomeBest, EventType: models.EventPurchase},
		},
	}
	w = doJSON(t, h, http.MethodPost, "/agents", agent)
	assert.Equal(t, http.StatusOK, w.Code)

	var created models.Agent
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	w = doJSON(t, h, http.MethodGet, "/agents/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodDelete, "/agents/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, h, http.MethodGet, "/agents/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAgentCreate_RejectsDuplicateOutcomes(t *testing.T) {
	h := newTestServer(t)
	doJSON(t, h, http.MethodPost, "/segments", models.Segment{ID: "seg1", AccountID: "acc", Name: "VIPs"})

	agent := models.Agent{
		AccountID:         "acc",
		Name:              "Bad Agent",
		SegmentID:         "seg1",
		SendFrequency:     models.FrequencyDaily,
		HoldoutPercentage: 0,
		OutcomeMappings: []models.OutcomeMapping{
			{Outcome: models.OutcomeBest, EventType: models.EventPurchase},
			{Outcome: models.OutcomeBest, EventType: models.EventMessageOpened},
			{Outcome: models.OutcomeGood, EventType: models.EventMessageClicked},
			{Outcome: models.OutcomeWorst, EventType: models.EventUnsubscribed},
		},
	}
	w := doJSON(t, h, http.MethodPost, "/agents", agent)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptions_PendingDefaultOverHTTP(t *testing.T) {
	h := newTestServer(t)

	w := doJSON(t, h, http.MethodPost, "/profiles", models.Profile{
		ID: "p1", AccountID: "acc", Email: "jo@example.com",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/profiles/p1/subscriptions?channel=email", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var sub models.ChannelSubscription
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
	assert.Equal(t, models.StatusPending, sub.Status)

	// Set explicit state and read it back.
	w = doJSON(t, h, http.MethodPut, "/profiles/p1/subscriptions", models.ChannelSubscription{
		Channel: models.ChannelEmail,
		Status:  models.StatusSubscribed,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/profiles/p1/subscriptions?channel=email", nil)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
	assert.Equal(t, models.StatusSubscribed, sub.Status)
}

func TestExportAttributionCSV(t *testing.T) {
	h := newTestServer(t)

	doJSON(t, h, http.MethodPost, "/events/ingest", models.Event{
		AccountID:  "acc",
		Type:       models.EventPurchase,
		AgentID:    "a1",
		Revenue:    40,
		OccurredAt: mustTime("2024-03-15T10:00:00Z"),
	})
	doJSON(t, h, http.MethodPost, "/events/ingest", models.Event{
		AccountID:  "acc",
		Type:       models.EventMessageSent,
		AgentID:    "a1",
		OccurredAt: mustTime("2024-03-15T11:00:00Z"),
	})

	w := doJSON(t, h, http.MethodGet,
		"/export/attribution.csv?account_id=acc&start=2024-03-14&end=2024-03-16", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attribution-agents.csv")

	body := w.Body.String()
	assert.Contains(t, body, "id,name,revenue,orders,sends,aov,roi\n")
	assert.Contains(t, body, "a1,a1,40,1,1,40,40\n")
}

func TestExport_UnknownSubject(t *testing.T) {
	h := newTestServer(t)
	w := doJSON(t, h, http.MethodGet, "/export/unicorns.csv", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t)
	w := doJSON(t, h, http.MethodDelete, "/dashboard/kpis", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestKPIsEndpoint(t *testing.T) {
	h := newTestServer(t)

	doJSON(t, h, http.MethodPost, "/events/ingest", models.Event{
		AccountID:  "acc",
		Type:       models.EventPurchase,
		Revenue:    150,
		OccurredAt: mustTime("2024-03-15T10:00:00Z"),
	})

	w := doJSON(t, h, http.MethodGet, "/dashboard/kpis?account_id=acc&start=2024-03-10&end=2024-03-20", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var report struct {
		Ecommerce []analytics.KPI `json:"ecommerce"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))

	found := false
	for _, k := range report.Ecommerce {
		if k.Label == "Revenue" {
			assert.Equal(t, 150.0, k.Value)
			found = true
		}
	}
	assert.True(t, found)
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
