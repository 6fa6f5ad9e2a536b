package analytics

import (
	"math"
	"time"

	"github.com/lumora/signal-console/internal/models"
)

// KPI is one scalar rollup for a dashboard card. Delta is the
// fractional change versus the immediately preceding period of equal
// length.
type KPI struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Delta float64 `json:"delta"`
}

// PercentOf computes a/b*100, returning 0 when b is 0.
func PercentOf(a, b int64) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b) * 100
}

// Ratio computes a/b, returning 0 when b is 0.
func Ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Delta reports (current-previous)/max(1,previous). Flooring the
// denominator to 1 avoids division by zero; it also understates the
// change when the previous value was legitimately zero, which is the
// behavior the console pages have always shown.
func Delta(current, previous float64) float64 {
	return (current - previous) / math.Max(1, previous)
}

// PreviousPeriod returns the window of equal day-length immediately
// before [start, end], non-overlapping.
func PreviousPeriod(start, end time.Time) (time.Time, time.Time) {
	daysInclusive := int(math.Ceil(end.Sub(start).Hours() / 24))
	prevStart := start.AddDate(0, 0, -(daysInclusive + 1))
	prevEnd := start.AddDate(0, 0, -1)
	return prevStart, prevEnd
}

// countType tallies events of one type.
func countType(events []*models.Event, t models.EventType) int64 {
	var n int64
	for _, ev := range events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// sumRevenue totals revenue across purchase events.
func sumRevenue(events []*models.Event) float64 {
	var total float64
	for _, ev := range events {
		if ev.Type == models.EventPurchase {
			total += ev.Revenue
		}
	}
	return total
}

// Rollup holds the per-vertical scalar counters computed from one
// window of events. Derived percentages live on the KPI rows.
type Rollup struct {
	PageViews     int64
	Sessions      int64
	Checkouts     int64
	Orders        int64
	Revenue       float64
	ProfileAdds   int64
	Sent          int64
	Delivered     int64
	Opened        int64
	Clicked       int64
	Bounced       int64
	Unsubscribed  int64
	AttribRevenue float64
	AttribOrders  int64
}

// NewRollup scans one event list once and tallies every counter.
func NewRollup(events []*models.Event) Rollup {
	var r Rollup
	for _, ev := range events {
		switch ev.Type {
		case models.EventPageView:
			r.PageViews++
		case models.EventSessionStart:
			r.Sessions++
		case models.EventCheckoutStarted:
			r.Checkouts++
		case models.EventPurchase:
			r.Orders++
			r.Revenue += ev.Revenue
			if ev.AgentID != "" {
				r.AttribOrders++
				r.AttribRevenue += ev.Revenue
			}
		case models.EventProfileCreated:
			r.ProfileAdds++
		case models.EventMessageSent:
			r.Sent++
		case models.EventMessageDelivered:
			r.Delivered++
		case models.EventMessageOpened:
			r.Opened++
		case models.EventMessageClicked:
			r.Clicked++
		case models.EventMessageBounced:
			r.Bounced++
		case models.EventUnsubscribed:
			r.Unsubscribed++
		}
	}
	return r
}

// WebKPIs builds the web vertical cards from current and previous
// rollups.
func WebKPIs(cur, prev Rollup) []KPI {
	return []KPI{
		{Label: "Page Views", Value: float64(cur.PageViews), Delta: Delta(float64(cur.PageViews), float64(prev.PageViews))},
		{Label: "Sessions", Value: float64(cur.Sessions), Delta: Delta(float64(cur.Sessions), float64(prev.Sessions))},
		{Label: "Checkout Rate", Value: PercentOf(cur.Checkouts, cur.Sessions), Delta: Delta(PercentOf(cur.Checkouts, cur.Sessions), PercentOf(prev.Checkouts, prev.Sessions))},
		{Label: "Conversion Rate", Value: PercentOf(cur.Orders, cur.Sessions), Delta: Delta(PercentOf(cur.Orders, cur.Sessions), PercentOf(prev.Orders, prev.Sessions))},
	}
}

// MessagingKPIs builds the messaging vertical cards.
func MessagingKPIs(cur, prev Rollup) []KPI {
	return []KPI{
		{Label: "Messages Sent", Value: float64(cur.Sent), Delta: Delta(float64(cur.Sent), float64(prev.Sent))},
		{Label: "Deliverability", Value: PercentOf(cur.Delivered, cur.Sent), Delta: Delta(PercentOf(cur.Delivered, cur.Sent), PercentOf(prev.Delivered, prev.Sent))},
		{Label: "Open Rate", Value: PercentOf(cur.Opened, cur.Delivered), Delta: Delta(PercentOf(cur.Opened, cur.Delivered), PercentOf(prev.Opened, prev.Delivered))},
		{Label: "Click Rate", Value: PercentOf(cur.Clicked, cur.Delivered), Delta: Delta(PercentOf(cur.Clicked, cur.Delivered), PercentOf(prev.Clicked, prev.Delivered))},
		{Label: "Bounce Rate", Value: PercentOf(cur.Bounced, cur.Sent), Delta: Delta(PercentOf(cur.Bounced, cur.Sent), PercentOf(prev.Bounced, prev.Sent))},
		{Label: "Unsubscribes", Value: float64(cur.Unsubscribed), Delta: Delta(float64(cur.Unsubscribed), float64(prev.Unsubscribed))},
	}
}

// EcommerceKPIs builds the ecommerce vertical cards.
func EcommerceKPIs(cur, prev Rollup) []KPI {
	return []KPI{
		{Label: "Revenue", Value: cur.Revenue, Delta: Delta(cur.Revenue, prev.Revenue)},
		{Label: "Orders", Value: float64(cur.Orders), Delta: Delta(float64(cur.Orders), float64(prev.Orders))},
		{Label: "AOV", Value: Ratio(cur.Revenue, float64(cur.Orders)), Delta: Delta(Ratio(cur.Revenue, float64(cur.Orders)), Ratio(prev.Revenue, float64(prev.Orders)))},
		{Label: "Profile Growth", Value: float64(cur.ProfileAdds), Delta: Delta(float64(cur.ProfileAdds), float64(prev.ProfileAdds))},
	}
}

// AttributionKPIs builds the attribution vertical cards. Revenue per
// send keeps the arithmetic the console has always used for the card
// it labels "ROI".
func AttributionKPIs(cur, prev Rollup) []KPI {
	return []KPI{
		{Label: "Attributed Revenue", Value: cur.AttribRevenue, Delta: Delta(cur.AttribRevenue, prev.AttribRevenue)},
		{Label: "Attributed Orders", Value: float64(cur.AttribOrders), Delta: Delta(float64(cur.AttribOrders), float64(prev.AttribOrders))},
		{Label: "Revenue per Send", Value: Ratio(cur.AttribRevenue, float64(cur.Sent)), Delta: Delta(Ratio(cur.AttribRevenue, float64(cur.Sent)), Ratio(prev.AttribRevenue, float64(prev.Sent)))},
	}
}
