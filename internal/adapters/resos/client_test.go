package resos_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"resmatch/internal/adapters/resos"
	"resmatch/internal/domain"
)

func mustDate(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestClient_BookingsOn_Pagination(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, _, _ := r.BasicAuth(); user != "test-key" {
			t.Errorf("api key not sent as basic auth user")
		}
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		n := 100
		if skip >= 100 {
			n = 17 // short second page ends the walk
		}
		page := make([]map[string]any, n)
		for i := range page {
			page[i] = map[string]any{"_id": strconv.Itoa(skip + i)}
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer ts.Close()

	cl, err := resos.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got, err := cl.BookingsOn(context.Background(), mustDate(t, "2024-03-02"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 117 {
		t.Fatalf("got %d bookings, want 117 across two pages", len(got))
	}
	if got[116]["_id"] != "116" {
		t.Fatalf("last record = %+v", got[116])
	}
}

func TestClient_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{"_id": "f1"}})
	}))
	defer ts.Close()

	cl, _ := resos.New(ts.URL, "k", 100)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := cl.CustomFields(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("got %+v after %d hits", got, hits)
	}
}

func TestClient_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	cl, _ := resos.New(ts.URL, "bad", 100)
	_, err := cl.CustomFields(context.Background())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestClient_UpdateBookingStatus(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer ts.Close()

	cl, _ := resos.New(ts.URL, "k", 100)
	if err := cl.UpdateBookingStatus(context.Background(), "abc123", domain.StatusLeft); err != nil {
		t.Fatal(err)
	}

	if gotMethod != http.MethodPut || gotPath != "/bookings/abc123" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if gotBody["status"] != "left" {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestClient_CreateBooking(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["status"] != "approved" {
			t.Errorf("payload = %+v", payload)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"_id": "new1"})
	}))
	defer ts.Close()

	cl, _ := resos.New(ts.URL, "k", 100)
	got, err := cl.CreateBooking(context.Background(), map[string]any{"status": "approved"})
	if err != nil {
		t.Fatal(err)
	}
	if got["_id"] != "new1" {
		t.Fatalf("created = %+v", got)
	}
}
