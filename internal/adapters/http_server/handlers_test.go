package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	httpserver "resmatch/internal/adapters/http_server"
	"resmatch/internal/app"
	"resmatch/internal/domain"
)

// ---- fakes ----

type stubRoster struct{ data []map[string]any }

func (s *stubRoster) StayingOn(ctx context.Context, date domain.Date) ([]map[string]any, error) {
	return s.data, nil
}

type stubResos struct {
	bookings []map[string]any
	fields   []map[string]any
	updated  []string
}

func (s *stubResos) BookingsOn(ctx context.Context, date domain.Date) ([]map[string]any, error) {
	return s.bookings, nil
}
func (s *stubResos) CustomFields(ctx context.Context) ([]map[string]any, error) {
	return s.fields, nil
}
func (s *stubResos) AvailableTimes(ctx context.Context, date domain.Date, people int) ([]map[string]any, error) {
	return []map[string]any{{"time": "18:30"}}, nil
}
func (s *stubResos) AvailableTables(ctx context.Context, people int, from, to string) ([]map[string]any, error) {
	return nil, nil
}
func (s *stubResos) OpeningHours(ctx context.Context) ([]map[string]any, error) { return nil, nil }
func (s *stubResos) CreateBooking(ctx context.Context, payload map[string]any) (map[string]any, error) {
	return map[string]any{"_id": "created"}, nil
}
func (s *stubResos) UpdateBookingStatus(ctx context.Context, id string, st domain.BookingStatus) error {
	s.updated = append(s.updated, id)
	return nil
}

func testServer(t *testing.T, refreshFirst bool) (*httptest.Server, *stubResos) {
	t.Helper()
	rs := &stubResos{
		bookings: []map[string]any{{
			"_id": "r1", "status": "approved", "people": float64(2),
			"customFields": []any{map[string]any{"_id": "cf-ref", "value": "101"}},
		}},
		fields: []map[string]any{{"_id": "cf-ref", "name": "Booking #", "type": "text"}},
	}
	roster := &stubRoster{data: []map[string]any{{
		"booking_id": "101", "site_name": "7 Bay", "booking_status": "staying",
	}}}
	recon := app.NewReconciler(roster, rs, nil, app.Options{}, zerolog.Nop())

	if refreshFirst {
		date, _ := domain.ParseDate("2024-03-02")
		if _, err := recon.Refresh(context.Background(), date); err != nil {
			t.Fatal(err)
		}
	}

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{R: recon})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts, rs
}

// ---- tests ----

func TestHealthz(t *testing.T) {
	ts, _ := testServer(t, false)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestGetReportBeforeFirstCycle(t *testing.T) {
	ts, _ := testServer(t, false)
	resp, err := http.Get(ts.URL + "/v1/report")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestGetReport(t *testing.T) {
	ts, _ := testServer(t, true)
	resp, err := http.Get(ts.URL + "/v1/report")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var rep app.Report
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		t.Fatal(err)
	}
	if rep.Date != "2024-03-02" {
		t.Errorf("date = %q", rep.Date)
	}
	if len(rep.Guests) != 1 || !rep.Guests[0].Matched {
		t.Errorf("guests = %+v", rep.Guests)
	}
}

func TestGetReportETag(t *testing.T) {
	ts, _ := testServer(t, true)

	first, err := http.Get(ts.URL + "/v1/report")
	if err != nil {
		t.Fatal(err)
	}
	first.Body.Close()
	etag := first.Header.Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	req, _ := http.NewRequest("GET", ts.URL+"/v1/report", nil)
	req.Header.Set("If-None-Match", etag)
	second, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	second.Body.Close()
	if second.StatusCode != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", second.StatusCode)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	ts, _ := testServer(t, false)
	resp, err := http.Post(ts.URL+"/v1/report/refresh?date=2024-03-02", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRefreshEndpointBadDate(t *testing.T) {
	ts, _ := testServer(t, false)
	resp, err := http.Post(ts.URL+"/v1/report/refresh?date=tomorrow", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMarkLeftEndpoint(t *testing.T) {
	ts, _ := testServer(t, true)
	resp, err := http.Post(ts.URL+"/v1/bookings/mark-left", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var res app.MarkLeftResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	// the fixture booking is approved, not seated/arrived
	if res.Candidates != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestCreateBookingEndpoint(t *testing.T) {
	ts, _ := testServer(t, true)

	body := strings.NewReader(`{"time":"18:30","people":2}`)
	resp, err := http.Post(ts.URL+"/v1/guests/101/booking", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
}

func TestCreateBookingUnknownGuest(t *testing.T) {
	ts, _ := testServer(t, true)

	body := strings.NewReader(`{"time":"18:30"}`)
	resp, err := http.Post(ts.URL+"/v1/guests/999/booking", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateBookingMissingTime(t *testing.T) {
	ts, _ := testServer(t, true)

	resp, err := http.Post(ts.URL+"/v1/guests/101/booking", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAvailabilityTimesEndpoint(t *testing.T) {
	ts, _ := testServer(t, false)
	resp, err := http.Get(ts.URL + "/v1/availability/times?date=2024-03-02&people=2")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestAvailabilityTablesRequiresTime(t *testing.T) {
	ts, _ := testServer(t, false)
	resp, err := http.Get(ts.URL + "/v1/availability/tables?date=2024-03-02")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
