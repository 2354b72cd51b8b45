package api

import (
	"net/http"
	"strconv"
	"time"

	"voyago/internal/models"
)

type createBookingRequest struct {
	BookingType string  `json:"bookingType"`
	ItemID      int64   `json:"itemId"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	Guests      int64   `json:"guests"`
	TotalPrice  float64 `json:"totalPrice"`
	Notes       string  `json:"notes"`
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	var body createBookingRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, err := time.Parse("2006-01-02", body.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startDate; expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endDate; expected YYYY-MM-DD")
		return
	}

	booking := &models.Booking{
		UserID:      claims.UserID,
		BookingType: models.ItemType(body.BookingType),
		ItemID:      body.ItemID,
		StartDate:   start,
		EndDate:     end,
		Guests:      body.Guests,
		TotalPrice:  body.TotalPrice,
		Notes:       body.Notes,
	}
	if err := s.bookings.CreateBooking(r.Context(), booking); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	bookings, err := s.bookings.GetUserBookings(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings, "count": len(bookings)})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	// Customers only see their own bookings; staff see all.
	if booking.UserID != claims.UserID && !models.RoleSatisfies(claims.RoleID, []int64{models.RoleAgent, models.RoleHotelOwner, models.RoleAdmin}) {
		writeError(w, http.StatusForbidden, "not your booking")
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if booking.UserID != claims.UserID && !models.RoleSatisfies(claims.RoleID, []int64{models.RoleAdmin}) {
		writeError(w, http.StatusForbidden, "not your booking")
		return
	}

	if err := s.bookings.CancelBooking(r.Context(), id, claims.UserID); err != nil {
		writeServiceError(w, err)
		return
	}

	updated, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
