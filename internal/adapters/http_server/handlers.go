package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"resmatch/internal/app"
	"resmatch/internal/domain"
)

type Handlers struct{ R *app.Reconciler }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/report", h.getReport)
	s.mux.Post("/v1/report/refresh", h.refresh)
	s.mux.Post("/v1/bookings/mark-left", h.markLeft)
	s.mux.Post("/v1/guests/{id}/booking", h.createBooking)
	s.mux.Get("/v1/availability/times", h.availableTimes)
	s.mux.Get("/v1/availability/tables", h.availableTables)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeUpstreamProblem maps errors from the booking sources onto the
// gateway status codes clients can act on.
func writeUpstreamProblem(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusBadGateway, "Upstream Auth Failed", "a booking source rejected our credentials; check API keys")
	case errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusGatewayTimeout, "Upstream Timeout", err.Error())
	default:
		writeProblem(w, http.StatusBadGateway, "Upstream Error", err.Error())
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// dateParam reads ?date=YYYY-MM-DD, defaulting to today.
func dateParam(r *http.Request) (domain.Date, error) {
	s := r.URL.Query().Get("date")
	if s == "" {
		return domain.Today(), nil
	}
	return domain.ParseDate(s)
}

func (h *Handlers) getReport(w http.ResponseWriter, r *http.Request) {
	snap := h.R.Snapshot()
	if snap == nil {
		writeProblem(w, http.StatusConflict, "No Data", "no cycle has run yet; POST /v1/report/refresh first")
		return
	}
	writeJSON(w, r, http.StatusOK, app.BuildReport(snap))
}

func (h *Handlers) refresh(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Date", "date must be YYYY-MM-DD")
		return
	}
	snap, err := h.R.Refresh(r.Context(), date)
	if err != nil {
		writeUpstreamProblem(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, app.BuildReport(snap))
}

func (h *Handlers) markLeft(w http.ResponseWriter, r *http.Request) {
	res, err := h.R.MarkLeftPastDue(r.Context())
	if err != nil {
		if errors.Is(err, app.ErrNoSnapshot) {
			writeProblem(w, http.StatusConflict, "No Data", err.Error())
			return
		}
		writeUpstreamProblem(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

type createBookingBody struct {
	People        int    `json:"people"`
	Time          string `json:"time"`
	TableID       string `json:"tableId"`
	OpeningHourID string `json:"openingHourId"`
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var body createBookingBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if body.Time == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "time is required")
		return
	}
	snap, err := h.R.CreateGuestBooking(r.Context(), app.CreateBookingRequest{
		HotelBookingID: chi.URLParam(r, "id"),
		People:         body.People,
		Time:           body.Time,
		TableID:        body.TableID,
		OpeningHourID:  body.OpeningHourID,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrGuestNotFound):
			writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
		case errors.Is(err, app.ErrNoSnapshot):
			writeProblem(w, http.StatusConflict, "No Data", err.Error())
		default:
			writeUpstreamProblem(w, err)
		}
		return
	}
	writeJSON(w, r, http.StatusCreated, app.BuildReport(snap))
}

func (h *Handlers) availableTimes(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Date", "date must be YYYY-MM-DD")
		return
	}
	people, _ := strconv.Atoi(r.URL.Query().Get("people"))
	periods, err := h.R.TimeSlots(r.Context(), date, people)
	if err != nil {
		writeUpstreamProblem(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, periods)
}

func (h *Handlers) availableTables(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Date", "date must be YYYY-MM-DD")
		return
	}
	at := r.URL.Query().Get("time")
	if at == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid Time", "time is required, e.g. 18:30")
		return
	}
	people, _ := strconv.Atoi(r.URL.Query().Get("people"))
	areas, err := h.R.AvailableTables(r.Context(), date, at, people)
	if err != nil {
		writeUpstreamProblem(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, areas)
}
