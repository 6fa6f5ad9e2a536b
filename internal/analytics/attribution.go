package analytics

import (
	"sort"

	"github.com/lumora/signal-console/internal/models"
)

// Dimension selects the grouping key for attribution rows.
type Dimension string

const (
	DimensionAgent   Dimension = "agent"
	DimensionMessage Dimension = "message"
)

// AttributionRow aggregates revenue, orders and sends for one agent or
// message. ROI is revenue per send, not a cost-based return ratio; the
// field keeps the name the console pages display.
type AttributionRow struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
	Orders  int64   `json:"orders"`
	Sends   int64   `json:"sends"`
	AOV     float64 `json:"aov"`
	ROI     float64 `json:"roi"`
}

// Attribute groups an already-scoped event list by dim, scans purchase
// and message_sent events, and joins display names from names. Keys
// with no entry in names keep their raw id. Rows are sorted by revenue
// descending; ties keep first-seen order.
func Attribute(events []*models.Event, dim Dimension, names map[string]string) []AttributionRow {
	rows := make(map[string]*AttributionRow)
	var order []string

	get := func(key string) *AttributionRow {
		if row, ok := rows[key]; ok {
			return row
		}
		row := &AttributionRow{ID: key}
		rows[key] = row
		order = append(order, key)
		return row
	}

	for _, ev := range events {
		var key string
		if dim == DimensionMessage {
			key = ev.MessageID
		} else {
			key = ev.AgentID
		}
		if key == "" {
			continue
		}

		switch ev.Type {
		case models.EventPurchase:
			row := get(key)
			row.Revenue += ev.Revenue
			row.Orders++
		case models.EventMessageSent:
			get(key).Sends++
		}
	}

	result := make([]AttributionRow, 0, len(order))
	for _, key := range order {
		row := rows[key]
		row.Name = names[key]
		if row.Name == "" {
			row.Name = key
		}
		row.AOV = Ratio(row.Revenue, float64(row.Orders))
		row.ROI = Ratio(row.Revenue, float64(row.Sends))
		result = append(result, *row)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Revenue > result[j].Revenue
	})

	return result
}

// Compare looks up the A and B rows for the side-by-side panel. Either
// return value is nil when its key is absent from rows.
func Compare(rows []AttributionRow, aID, bID string) (a, b *AttributionRow) {
	for i := range rows {
		switch rows[i].ID {
		case aID:
			a = &rows[i]
		case bID:
			b = &rows[i]
		}
	}
	return a, b
}
