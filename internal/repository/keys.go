package repository

import "fmt"

// Cache keys are namespaced per listing so invalidation can target a
// single catalog section or one user's bookings.

func CatalogKey(itemType string, featuredOnly bool) string {
	if featuredOnly {
		return fmt.Sprintf("catalog:%s:featured", itemType)
	}
	return fmt.Sprintf("catalog:%s:all", itemType)
}

func CatalogItemKey(itemType string, id int64) string {
	return fmt.Sprintf("catalog:%s:%d", itemType, id)
}

func UserBookingsKey(userID int64) string {
	return fmt.Sprintf("bookings:user:%d", userID)
}

func BookingKey(bookingID int64) string {
	return fmt.Sprintf("bookings:%d", bookingID)
}
