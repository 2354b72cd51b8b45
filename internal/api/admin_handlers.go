package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if raw := r.URL.Query().Get("start"); raw != "" {
		start, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return start, end, fmt.Errorf("invalid start; expected YYYY-MM-DD")
		}
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		end, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return start, end, fmt.Errorf("invalid end; expected YYYY-MM-DD")
		}
	}
	return start, end, nil
}

func (s *Server) handleAdminListBookings(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.bookings.ListBookings(r.Context(), r.URL.Query().Get("status"), start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings, "count": len(bookings)})
}

func (s *Server) handleAdminSetStatus(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	if err := s.bookings.SetBookingStatus(r.Context(), id, body.Status, claims.UserID); err != nil {
		writeServiceError(w, err)
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.bookings.GetBookingStats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if start.IsZero() {
		start = time.Now().AddDate(0, -1, 0)
	}
	if end.IsZero() {
		end = time.Now()
	}

	bookings, err := s.bookings.ListBookings(r.Context(), r.URL.Query().Get("status"), start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Build the workbook in memory first so a build error still gets a
	// clean 500 instead of a truncated download.
	var buf bytes.Buffer
	if err := s.exporter.WriteBookings(&buf, bookings, start, end); err != nil {
		s.logger.Error().Err(err).Msg("export: build workbook")
		writeError(w, http.StatusInternalServerError, "failed to build export")
		return
	}

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx", start.Format("2006-01-02"), end.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn().Err(err).Msg("export: send workbook")
	}
}
