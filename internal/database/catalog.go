package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"voyago/internal/models"
)

const catalogColumns = `id, item_type, name, description, image_url, price,
	discounted_price, rating, review_count, duration, location, group_size,
	amenities, highlights, inclusions, valid_until, featured, is_active,
	created_at, updated_at`

// catalogRow holds one scanned catalog_items row before it is shaped into
// a typed listing.
type catalogRow struct {
	models.Item
	ItemType   models.ItemType
	Location   sql.NullString
	GroupSize  sql.NullInt64
	Amenities  sql.NullString
	Highlights sql.NullString
	Inclusions sql.NullString
	ValidUntil sql.NullTime
}

func (db *DB) listCatalog(ctx context.Context, itemType models.ItemType, featuredOnly bool) ([]catalogRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM catalog_items WHERE item_type = ? AND is_active = 1`, catalogColumns)
	if featuredOnly {
		query += ` AND featured = 1`
	}
	query += ` ORDER BY id`

	rows, err := db.db.QueryContext(ctx, query, itemType)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var result []catalogRow
	for rows.Next() {
		row, err := scanCatalogRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *row)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCatalogRow(s rowScanner) (*catalogRow, error) {
	var row catalogRow
	var description, imageURL, duration sql.NullString
	var discounted sql.NullFloat64
	err := s.Scan(
		&row.ID, &row.ItemType, &row.Name, &description, &imageURL, &row.Price,
		&discounted, &row.Rating, &row.ReviewCount, &duration, &row.Location,
		&row.GroupSize, &row.Amenities, &row.Highlights, &row.Inclusions,
		&row.ValidUntil, &row.Featured, &row.IsActive,
		&row.CreatedAt, &row.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan catalog row: %w", err)
	}
	row.Description = description.String
	row.ImageURL = imageURL.String
	row.Duration = duration.String
	if discounted.Valid {
		row.DiscountedPrice = &discounted.Float64
	}
	return &row, nil
}

func decodeStrings(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw.String), &out); err != nil {
		return nil
	}
	return out
}

func (db *DB) ListHotels(ctx context.Context, featuredOnly bool) ([]models.Hotel, error) {
	rows, err := db.listCatalog(ctx, models.ItemTypeHotel, featuredOnly)
	if err != nil {
		return nil, err
	}
	hotels := make([]models.Hotel, 0, len(rows))
	for _, r := range rows {
		hotels = append(hotels, models.Hotel{
			Item:      r.Item,
			Location:  r.Location.String,
			Amenities: decodeStrings(r.Amenities),
		})
	}
	return hotels, nil
}

func (db *DB) ListTours(ctx context.Context, featuredOnly bool) ([]models.Tour, error) {
	rows, err := db.listCatalog(ctx, models.ItemTypeTour, featuredOnly)
	if err != nil {
		return nil, err
	}
	tours := make([]models.Tour, 0, len(rows))
	for _, r := range rows {
		tours = append(tours, models.Tour{
			Item:      r.Item,
			Location:  r.Location.String,
			GroupSize: r.GroupSize.Int64,
		})
	}
	return tours, nil
}

func (db *DB) ListPackages(ctx context.Context, featuredOnly bool) ([]models.Package, error) {
	rows, err := db.listCatalog(ctx, models.ItemTypePackage, featuredOnly)
	if err != nil {
		return nil, err
	}
	packages := make([]models.Package, 0, len(rows))
	for _, r := range rows {
		packages = append(packages, models.Package{
			Item:       r.Item,
			Highlights: decodeStrings(r.Highlights),
			Inclusions: decodeStrings(r.Inclusions),
		})
	}
	return packages, nil
}

func (db *DB) ListSpecialOffers(ctx context.Context, featuredOnly bool) ([]models.SpecialOffer, error) {
	rows, err := db.listCatalog(ctx, models.ItemTypeSpecialOffer, featuredOnly)
	if err != nil {
		return nil, err
	}
	offers := make([]models.SpecialOffer, 0, len(rows))
	for _, r := range rows {
		offers = append(offers, models.SpecialOffer{
			Item:       r.Item,
			ValidUntil: r.ValidUntil.Time,
		})
	}
	return offers, nil
}

// GetCatalogItem returns the shared listing fields for any active item. The
// booking flow uses it to resolve names and verify prices.
func (db *DB) GetCatalogItem(ctx context.Context, itemType models.ItemType, id int64) (*models.Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM catalog_items WHERE item_type = ? AND id = ? AND is_active = 1`, catalogColumns)
	row, err := scanCatalogRow(db.db.QueryRowContext(ctx, query, itemType, id))
	if err != nil {
		return nil, err
	}
	return &row.Item, nil
}

// CatalogSeed describes one item to insert, used by fixtures and the admin
// seeding script.
type CatalogSeed struct {
	Type       models.ItemType
	Item       models.Item
	Location   string
	GroupSize  int64
	Amenities  []string
	Highlights []string
	Inclusions []string
	ValidUntil time.Time
}

func (db *DB) CreateCatalogItem(ctx context.Context, seed *CatalogSeed) (int64, error) {
	encode := func(v []string) any {
		if len(v) == 0 {
			return nil
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(raw)
	}

	var validUntil any
	if !seed.ValidUntil.IsZero() {
		validUntil = seed.ValidUntil
	}

	now := time.Now()
	res, err := db.db.ExecContext(ctx, `INSERT INTO catalog_items (
			item_type, name, description, image_url, price, discounted_price,
			rating, review_count, duration, location, group_size,
			amenities, highlights, inclusions, valid_until, featured, is_active,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seed.Type, seed.Item.Name, seed.Item.Description, seed.Item.ImageURL,
		seed.Item.Price, seed.Item.DiscountedPrice, seed.Item.Rating,
		seed.Item.ReviewCount, seed.Item.Duration, seed.Location, seed.GroupSize,
		encode(seed.Amenities), encode(seed.Highlights), encode(seed.Inclusions),
		validUntil, seed.Item.Featured, true, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create catalog item: %w", err)
	}
	return res.LastInsertId()
}
