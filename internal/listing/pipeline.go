// Package listing implements the filter/sort pipeline shared by every
// console list page: composable predicates over a candidate slice
// followed by one stable sort. The pipeline never mutates its input
// and always returns a fresh slice, so re-running the same filter
// state yields the same output.
package listing

import (
	"sort"
	"strings"
	"time"
)

// Predicate reports whether an item survives one filter.
type Predicate[T any] func(T) bool

// Apply runs every predicate, then the comparator when non-nil. A nil
// or empty predicate list keeps everything.
func Apply[T any](items []T, preds []Predicate[T], less func(a, b T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		keep := true
		for _, p := range preds {
			if p != nil && !p(item) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, item)
		}
	}
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}

// TextSearch matches when the query appears, case-insensitively, in
// any of the item's searchable fields. A blank or whitespace-only
// query matches everything.
func TextSearch[T any](query string, fields func(T) []string) Predicate[T] {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	return func(item T) bool {
		for _, f := range fields(item) {
			if strings.Contains(strings.ToLower(f), q) {
				return true
			}
		}
		return false
	}
}

// Equals matches items whose key equals want. The sentinel values ""
// and "all" disable the filter.
func Equals[T any](want string, key func(T) string) Predicate[T] {
	if want == "" || want == "all" {
		return nil
	}
	return func(item T) bool { return key(item) == want }
}

// InSet matches items whose key is one of want. An empty set disables
// the filter.
func InSet[T any](want []string, key func(T) string) Predicate[T] {
	if len(want) == 0 {
		return nil
	}
	set := make(map[string]bool, len(want))
	for _, w := range want {
		set[w] = true
	}
	return func(item T) bool { return set[key(item)] }
}

// DateRange matches items whose timestamp falls inside the closed
// interval [from, to]. A zero bound is open on that side. Items with a
// zero timestamp fail the filter whenever either bound is set.
func DateRange[T any](from, to time.Time, key func(T) time.Time) Predicate[T] {
	if from.IsZero() && to.IsZero() {
		return nil
	}
	return func(item T) bool {
		t := key(item)
		if t.IsZero() {
			return false
		}
		if !from.IsZero() && t.Before(from) {
			return false
		}
		if !to.IsZero() && t.After(to) {
			return false
		}
		return true
	}
}

// ByString builds a case-insensitive lexicographic comparator.
func ByString[T any](key func(T) string, descending bool) func(a, b T) bool {
	return func(a, b T) bool {
		x, y := strings.ToLower(key(a)), strings.ToLower(key(b))
		if descending {
			return x > y
		}
		return x < y
	}
}

// ByNumber builds a numeric comparator.
func ByNumber[T any](key func(T) float64, descending bool) func(a, b T) bool {
	return func(a, b T) bool {
		if descending {
			return key(a) > key(b)
		}
		return key(a) < key(b)
	}
}

// ByTime builds a timestamp comparator.
func ByTime[T any](key func(T) time.Time, descending bool) func(a, b T) bool {
	return func(a, b T) bool {
		if descending {
			return key(a).After(key(b))
		}
		return key(a).Before(key(b))
	}
}
