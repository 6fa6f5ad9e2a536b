package analytics

import (
	"time"

	"github.com/lumora/signal-console/internal/models"
)

// Granularity selects the calendar period used for bucketing.
type Granularity string

const (
	GranularityHour Granularity = "hour"
	GranularityDay  Granularity = "day"
	GranularityWeek Granularity = "week"
)

// ParseGranularity maps a request string to a Granularity, defaulting
// to day.
func ParseGranularity(s string) Granularity {
	switch Granularity(s) {
	case GranularityHour, GranularityWeek:
		return Granularity(s)
	default:
		return GranularityDay
	}
}

// Series is a fixed sequence of bucket start times plus one count row
// per event type. Every requested type has an entry; an all-zero row
// means no matching events.
type Series struct {
	Buckets []time.Time                  `json:"buckets"`
	Counts  map[models.EventType][]int64 `json:"series"`
}

// Truncate floors t to the start of its period in loc. Weeks start on
// Monday.
func Truncate(t time.Time, g Granularity, loc *time.Location) time.Time {
	t = t.In(loc)
	switch g {
	case GranularityHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
	case GranularityWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		// Monday=0 .. Sunday=6
		back := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -back)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	}
}

// next advances a bucket start by one period.
func next(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityHour:
		return t.Add(time.Hour)
	case GranularityWeek:
		return t.AddDate(0, 0, 7)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// Buckets returns every period start from Truncate(start) through end,
// inclusive. start > end yields an empty slice.
func Buckets(start, end time.Time, g Granularity, loc *time.Location) []time.Time {
	var out []time.Time
	for t := Truncate(start, g, loc); !t.After(end.In(loc)); t = next(t, g) {
		out = append(out, t)
	}
	return out
}

// BucketSeries assigns events to calendar buckets by equality of
// period: an event counts toward the bucket whose truncated start
// equals the event's own truncated timestamp. Events with a zero
// timestamp, or whose period has no bucket, are silently dropped.
// Every type in types gets a zero-filled row even with no events.
func BucketSeries(events []*models.Event, start, end time.Time, g Granularity, loc *time.Location, types []models.EventType) *Series {
	buckets := Buckets(start, end, g, loc)

	index := make(map[int64]int, len(buckets))
	for i, b := range buckets {
		index[b.Unix()] = i
	}

	counts := make(map[models.EventType][]int64, len(types))
	for _, t := range types {
		counts[t] = make([]int64, len(buckets))
	}

	for _, ev := range events {
		if ev == nil || ev.OccurredAt.IsZero() {
			continue
		}
		row, ok := counts[ev.Type]
		if !ok {
			continue
		}
		i, ok := index[Truncate(ev.OccurredAt, g, loc).Unix()]
		if !ok {
			continue
		}
		row[i]++
	}

	return &Series{Buckets: buckets, Counts: counts}
}

// InWindow returns the events whose timestamp falls inside the closed
// interval [start, end]. Zero timestamps never match. The input slice
// is not modified.
func InWindow(events []*models.Event, start, end time.Time) []*models.Event {
	out := make([]*models.Event, 0, len(events))
	for _, ev := range events {
		if ev == nil || ev.OccurredAt.IsZero() {
			continue
		}
		if ev.OccurredAt.Before(start) || ev.OccurredAt.After(end) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
