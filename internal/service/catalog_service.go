package service

import (
	"context"
	"encoding/json"
	"time"

	"voyago/internal/domain"
	"voyago/internal/filter"
	"voyago/internal/metrics"
	"voyago/internal/models"
	"voyago/internal/repository"

	"github.com/rs/zerolog"
)

// CatalogService serves listing queries from the repository through the
// cache. Filtering and sorting happen in-process on the cached set, so
// every combination of controls hits the same cache entry.
type CatalogService struct {
	repo     domain.Repository
	cache    domain.Cache
	cacheTTL time.Duration
	logger   *zerolog.Logger
}

func NewCatalogService(repo domain.Repository, cache domain.Cache, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{
		repo:     repo,
		cache:    cache,
		cacheTTL: time.Duration(models.CatalogCacheTTL) * time.Second,
		logger:   logger,
	}
}

// listCached loads the raw listing for one catalog section, consulting
// the cache first. A cache failure is logged and ignored.
func listCached[T any](ctx context.Context, s *CatalogService, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key)
		if err == nil && raw != nil {
			var items []T
			if err := json.Unmarshal(raw, &items); err == nil {
				metrics.IncCacheLookup(true)
				return items, nil
			}
		}
		metrics.IncCacheLookup(false)
	}

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
				s.logger.Warn().Err(err).Str("key", key).Msg("failed to cache catalog listing")
			}
		}
	}

	return items, nil
}

func (s *CatalogService) ListHotels(ctx context.Context, q domain.CatalogQuery) ([]models.Hotel, error) {
	key := repository.CatalogKey(string(models.ItemTypeHotel), q.FeaturedOnly)
	hotels, err := listCached(ctx, s, key, func(ctx context.Context) ([]models.Hotel, error) {
		return s.repo.ListHotels(ctx, q.FeaturedOnly)
	})
	if err != nil {
		return nil, err
	}

	hotels = filter.Apply(hotels,
		filter.Text(q.Search,
			func(h models.Hotel) string { return h.Name },
			func(h models.Hotel) string { return h.Description },
			func(h models.Hotel) string { return h.Location },
		),
		filter.Enum(q.Location, func(h models.Hotel) string { return h.Location }),
		filter.Range(q.MinPrice, q.MaxPrice, func(h models.Hotel) float64 { return h.EffectivePrice() }),
		filter.MinNumber(q.MinRating, func(h models.Hotel) float64 { return h.Rating }),
	)
	filter.Sort(hotels, q.Sort,
		func(h models.Hotel) float64 { return h.EffectivePrice() },
		func(h models.Hotel) float64 { return h.Rating },
	)
	return hotels, nil
}

func (s *CatalogService) ListTours(ctx context.Context, q domain.CatalogQuery) ([]models.Tour, error) {
	key := repository.CatalogKey(string(models.ItemTypeTour), q.FeaturedOnly)
	tours, err := listCached(ctx, s, key, func(ctx context.Context) ([]models.Tour, error) {
		return s.repo.ListTours(ctx, q.FeaturedOnly)
	})
	if err != nil {
		return nil, err
	}

	tours = filter.Apply(tours,
		filter.Text(q.Search,
			func(t models.Tour) string { return t.Name },
			func(t models.Tour) string { return t.Description },
			func(t models.Tour) string { return t.Location },
		),
		filter.Enum(q.Location, func(t models.Tour) string { return t.Location }),
		filter.Range(q.MinPrice, q.MaxPrice, func(t models.Tour) float64 { return t.EffectivePrice() }),
		filter.MinNumber(q.MinRating, func(t models.Tour) float64 { return t.Rating }),
	)
	filter.Sort(tours, q.Sort,
		func(t models.Tour) float64 { return t.EffectivePrice() },
		func(t models.Tour) float64 { return t.Rating },
	)
	return tours, nil
}

func (s *CatalogService) ListPackages(ctx context.Context, q domain.CatalogQuery) ([]models.Package, error) {
	key := repository.CatalogKey(string(models.ItemTypePackage), q.FeaturedOnly)
	packages, err := listCached(ctx, s, key, func(ctx context.Context) ([]models.Package, error) {
		return s.repo.ListPackages(ctx, q.FeaturedOnly)
	})
	if err != nil {
		return nil, err
	}

	packages = filter.Apply(packages,
		filter.Text(q.Search,
			func(p models.Package) string { return p.Name },
			func(p models.Package) string { return p.Description },
		),
		filter.Range(q.MinPrice, q.MaxPrice, func(p models.Package) float64 { return p.EffectivePrice() }),
		filter.MinNumber(q.MinRating, func(p models.Package) float64 { return p.Rating }),
	)
	filter.Sort(packages, q.Sort,
		func(p models.Package) float64 { return p.EffectivePrice() },
		func(p models.Package) float64 { return p.Rating },
	)
	return packages, nil
}

func (s *CatalogService) ListSpecialOffers(ctx context.Context, q domain.CatalogQuery) ([]models.SpecialOffer, error) {
	key := repository.CatalogKey(string(models.ItemTypeSpecialOffer), q.FeaturedOnly)
	offers, err := listCached(ctx, s, key, func(ctx context.Context) ([]models.SpecialOffer, error) {
		return s.repo.ListSpecialOffers(ctx, q.FeaturedOnly)
	})
	if err != nil {
		return nil, err
	}

	offers = filter.Apply(offers,
		filter.Text(q.Search,
			func(o models.SpecialOffer) string { return o.Name },
			func(o models.SpecialOffer) string { return o.Description },
		),
		filter.Range(q.MinPrice, q.MaxPrice, func(o models.SpecialOffer) float64 { return o.EffectivePrice() }),
		filter.MinNumber(q.MinRating, func(o models.SpecialOffer) float64 { return o.Rating }),
	)
	filter.Sort(offers, q.Sort,
		func(o models.SpecialOffer) float64 { return o.EffectivePrice() },
		func(o models.SpecialOffer) float64 { return o.Rating },
	)
	return offers, nil
}
