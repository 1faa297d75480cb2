package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resmatch/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record one sample of each family so counters are non-zero
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveReconcile("manual", "ok", 80*time.Millisecond)
	observability.SetSnapshotGauges(3, 7)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"resmatch_http_requests_total",
		"resmatch_reconcile_cycles_total",
		"resmatch_snapshot_hotel_guests",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output", want)
		}
	}
}
