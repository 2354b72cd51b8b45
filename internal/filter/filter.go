// Package filter implements the predicate engine shared by all catalog
// list endpoints. One declarative field map replaces per-page filter
// implementations: every active control contributes a predicate and the
// result is the items matching all of them.
package filter

import "strings"

// Predicate reports whether an item passes one filter control.
type Predicate[T any] func(T) bool

// Text matches a case-insensitive substring against one or more fields.
// An empty query constrains nothing.
func Text[T any](query string, fields ...func(T) string) Predicate[T] {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	return func(item T) bool {
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field(item)), query) {
				return true
			}
		}
		return false
	}
}

// Range keeps items with value inside [min, max], bounds inclusive. A nil
// bound means unbounded on that side.
func Range[T any](min, max *float64, value func(T) float64) Predicate[T] {
	if min == nil && max == nil {
		return nil
	}
	return func(item T) bool {
		v := value(item)
		if min != nil && v < *min {
			return false
		}
		if max != nil && v > *max {
			return false
		}
		return true
	}
}

// Enum keeps items whose field equals the selected value. Empty selection
// means "any".
func Enum[T any](selected string, value func(T) string) Predicate[T] {
	if selected == "" {
		return nil
	}
	return func(item T) bool {
		return strings.EqualFold(value(item), selected)
	}
}

// Toggle applies a boolean control only when it is switched on.
func Toggle[T any](enabled bool, value func(T) bool) Predicate[T] {
	if !enabled {
		return nil
	}
	return func(item T) bool {
		return value(item)
	}
}

// MinNumber keeps items whose numeric field is at least the given value.
func MinNumber[T any](min *float64, value func(T) float64) Predicate[T] {
	if min == nil {
		return nil
	}
	return func(item T) bool {
		return value(item) >= *min
	}
}

// Apply returns the subset matching every non-nil predicate, preserving
// input order. With no active predicates the input is returned as is, so
// resetting controls restores the unfiltered list.
func Apply[T any](items []T, predicates ...Predicate[T]) []T {
	active := predicates[:0:0]
	for _, p := range predicates {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return items
	}

	result := make([]T, 0, len(items))
	for _, item := range items {
		matched := true
		for _, p := range active {
			if !p(item) {
				matched = false
				break
			}
		}
		if matched {
			result = append(result, item)
		}
	}
	return result
}
