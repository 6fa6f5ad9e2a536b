package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type item struct {
	name    string
	status  string
	score   float64
	created time.Time
}

func sample() []item {
	return []item{
		{name: "Beta Launch", status: "active", score: 3, created: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{name: "alpha test", status: "archived", score: 1, created: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "Gamma", status: "active", score: 2, created: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestApply_Idempotent(t *testing.T) {
	preds := []Predicate[item]{
		Equals("active", func(i item) string { return i.status }),
	}
	less := ByNumber(func(i item) float64 { return i.score }, false)

	first := Apply(sample(), preds, less)
	second := Apply(first, preds, less)
	assert.Equal(t, first, second)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := sample()
	Apply(in, nil, ByString(func(i item) string { return i.name }, true))
	assert.Equal(t, sample(), in)
}

func TestApply_NilPredicatesKeepEverything(t *testing.T) {
	out := Apply(sample(), []Predicate[item]{nil, nil}, nil)
	assert.Len(t, out, 3)
}

func TestTextSearch_CaseInsensitive(t *testing.T) {
	p := TextSearch("ALPHA", func(i item) []string { return []string{i.name} })
	out := Apply(sample(), []Predicate[item]{p}, nil)
	assert.Len(t, out, 1)
	assert.Equal(t, "alpha test", out[0].name)
}

func TestTextSearch_BlankQueryIsNoop(t *testing.T) {
	assert.Nil(t, TextSearch("", func(i item) []string { return nil }))
	assert.Nil(t, TextSearch("   ", func(i item) []string { return nil }))
}

func TestEquals_AllSentinelDisables(t *testing.T) {
	assert.Nil(t, Equals[item]("", func(i item) string { return i.status }))
	assert.Nil(t, Equals[item]("all", func(i item) string { return i.status }))

	p := Equals("archived", func(i item) string { return i.status })
	out := Apply(sample(), []Predicate[item]{p}, nil)
	assert.Len(t, out, 1)
}

func TestInSet(t *testing.T) {
	p := InSet([]string{"active"}, func(i item) string { return i.status })
	out := Apply(sample(), []Predicate[item]{p}, nil)
	assert.Len(t, out, 2)

	assert.Nil(t, InSet[item](nil, func(i item) string { return i.status }))
}

func TestDateRange_ExcludesZeroTimes(t *testing.T) {
	items := append(sample(), item{name: "no-date"})
	from := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	p := DateRange(from, time.Time{}, func(i item) time.Time { return i.created })

	out := Apply(items, []Predicate[item]{p}, nil)
	names := make([]string, len(out))
	for i, it := range out {
		names[i] = it.name
	}
	assert.NotContains(t, names, "no-date")
	assert.NotContains(t, names, "alpha test")
	assert.Len(t, out, 2)
}

func TestByString_CaseInsensitiveOrder(t *testing.T) {
	less := ByString(func(i item) string { return i.name }, false)
	out := Apply(sample(), nil, less)
	assert.Equal(t, "alpha test", out[0].name)
	assert.Equal(t, "Beta Launch", out[1].name)
	assert.Equal(t, "Gamma", out[2].name)
}

func TestByNumber_Descending(t *testing.T) {
	less := ByNumber(func(i item) float64 { return i.score }, true)
	out := Apply(sample(), nil, less)
	assert.Equal(t, 3.0, out[0].score)
	assert.Equal(t, 1.0, out[2].score)
}

func TestByTime(t *testing.T) {
	less := ByTime(func(i item) time.Time { return i.created }, true)
	out := Apply(sample(), nil, less)
	assert.Equal(t, "Gamma", out[0].name)
}

func TestApply_StableSortPreservesTies(t *testing.T) {
	items := []item{
		{name: "one", score: 1},
		{name: "two", score: 1},
		{name: "three", score: 1},
	}
	less := ByNumber(func(i item) float64 { return i.score }, false)
	out := Apply(items, nil, less)
	assert.Equal(t, "one", out[0].name)
	assert.Equal(t, "two", out[1].name)
	assert.Equal(t, "three", out[2].name)
}
