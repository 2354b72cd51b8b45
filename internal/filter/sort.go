package filter

import "sort"

// Sort keys accepted by the list endpoints. Anything else leaves the
// backend order untouched.
const (
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortRatingDesc = "rating_desc"
)

// Sort orders items by the chosen key. The sort is stable: ties keep
// their original (backend) order. An unknown or empty key is a no-op.
func Sort[T any](items []T, key string, price func(T) float64, rating func(T) float64) {
	switch key {
	case SortPriceAsc:
		sort.SliceStable(items, func(i, j int) bool {
			return price(items[i]) < price(items[j])
		})
	case SortPriceDesc:
		sort.SliceStable(items, func(i, j int) bool {
			return price(items[i]) > price(items[j])
		})
	case SortRatingDesc:
		sort.SliceStable(items, func(i, j int) bool {
			return rating(items[i]) > rating(items[j])
		})
	}
}
