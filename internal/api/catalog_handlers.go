package api

import (
	"net/http"
	"strconv"

	"voyago/internal/domain"
)

// featuredOnly forces the featured flag on before delegating, for the
// /featured route variants.
func featuredOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		q.Set("featured", "true")
		r.URL.RawQuery = q.Encode()
		next(w, r)
	}
}

// parseCatalogQuery reads the filter controls off the query string.
// Absent or malformed numeric params mean "no constraint".
func parseCatalogQuery(r *http.Request) domain.CatalogQuery {
	q := r.URL.Query()

	query := domain.CatalogQuery{
		Search:   q.Get("search"),
		Location: q.Get("location"),
		Sort:     q.Get("sort"),
	}
	if v, err := strconv.ParseBool(q.Get("featured")); err == nil {
		query.FeaturedOnly = v
	}
	if v, err := strconv.ParseFloat(q.Get("min_price"), 64); err == nil {
		query.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(q.Get("max_price"), 64); err == nil {
		query.MaxPrice = &v
	}
	if v, err := strconv.ParseFloat(q.Get("min_rating"), 64); err == nil {
		query.MinRating = &v
	}
	return query
}

func (s *Server) handleListHotels(w http.ResponseWriter, r *http.Request) {
	hotels, err := s.catalog.ListHotels(r.Context(), parseCatalogQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hotels": hotels, "count": len(hotels)})
}

func (s *Server) handleListTours(w http.ResponseWriter, r *http.Request) {
	tours, err := s.catalog.ListTours(r.Context(), parseCatalogQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tours": tours, "count": len(tours)})
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := s.catalog.ListPackages(r.Context(), parseCatalogQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"packages": packages, "count": len(packages)})
}

func (s *Server) handleListSpecialOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := s.catalog.ListSpecialOffers(r.Context(), parseCatalogQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"special_offers": offers, "count": len(offers)})
}
