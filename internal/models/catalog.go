package models

import "time"

// ItemType discriminates the bookable catalog kinds.
type ItemType string

const (
	ItemTypeHotel        ItemType = "hotel"
	ItemTypeTour         ItemType = "tour"
	ItemTypePackage      ItemType = "package"
	ItemTypeSpecialOffer ItemType = "special_offer"
)

// Item carries the fields shared by every bookable listing.
type Item struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	ImageURL        string   `json:"imageUrl"`
	Price           float64  `json:"price"`
	DiscountedPrice *float64 `json:"discountedPrice,omitempty"`
	Rating          float64  `json:"rating"`
	ReviewCount     int64    `json:"reviewCount"`
	Duration        string   `json:"duration,omitempty"`
	Featured        bool     `json:"featured"`
	IsActive        bool     `json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EffectivePrice returns the discounted price when one is set.
func (i Item) EffectivePrice() float64 {
	if i.DiscountedPrice != nil && *i.DiscountedPrice > 0 {
		return *i.DiscountedPrice
	}
	return i.Price
}

type Hotel struct {
	Item
	Location  string   `json:"location"`
	Amenities []string `json:"amenities"`
}

type Tour struct {
	Item
	Location  string `json:"location"`
	GroupSize int64  `json:"groupSize"`
}

type Package struct {
	Item
	Highlights []string `json:"highlights"`
	Inclusions []string `json:"inclusions"`
}

type SpecialOffer struct {
	Item
	ValidUntil time.Time `json:"validUntil"`
}
