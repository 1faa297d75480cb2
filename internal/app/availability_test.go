package app_test

import (
	"context"
	"testing"

	"resmatch/internal/app"
)

func TestTimeSlots(t *testing.T) {
	rs := &fakeResos{
		times: []map[string]any{{"time": "18:30"}, {"time": "19:00"}},
		hours: []map[string]any{{
			"_id":      "oh1",
			"name":     "Dinner",
			"open":     "18:00",
			"close":    "21:00",
			"duration": float64(60),
			"seating":  map[string]any{"interval": float64(30)},
		}},
	}
	recon := newTestReconciler(&fakeRoster{}, rs, nil, app.Options{})

	periods, err := recon.TimeSlots(context.Background(), d("2024-03-02"), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(periods) != 1 {
		t.Fatalf("got %d periods", len(periods))
	}
	p := periods[0]
	if p.ID != "oh1" || p.Name != "Dinner" {
		t.Errorf("period = %+v", p)
	}

	// 18:00 through 20:00 inclusive at 30-minute steps
	wantTimes := []string{"18:00", "18:30", "19:00", "19:30", "20:00"}
	if len(p.Slots) != len(wantTimes) {
		t.Fatalf("slots = %+v", p.Slots)
	}
	for i, s := range p.Slots {
		if s.Time != wantTimes[i] {
			t.Errorf("slot %d = %q, want %q", i, s.Time, wantTimes[i])
		}
		wantAvail := s.Time == "18:30" || s.Time == "19:00"
		if s.Available != wantAvail {
			t.Errorf("slot %s availability = %v, want %v", s.Time, s.Available, wantAvail)
		}
	}
}

func TestTimeSlotsFallbackWithoutOpeningHours(t *testing.T) {
	rs := &fakeResos{times: []map[string]any{{"time": "19:00"}, {"time": "18:30"}}}
	recon := newTestReconciler(&fakeRoster{}, rs, nil, app.Options{})

	periods, err := recon.TimeSlots(context.Background(), d("2024-03-02"), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(periods) != 1 {
		t.Fatalf("got %d periods", len(periods))
	}
	p := periods[0]
	if p.Name != "18:30 - 19:00" {
		t.Errorf("fallback period name = %q", p.Name)
	}
	if len(p.Slots) != 2 || p.Slots[0].Time != "18:30" || !p.Slots[0].Available {
		t.Errorf("slots = %+v", p.Slots)
	}
}

func TestAvailableTables(t *testing.T) {
	rs := &fakeResos{
		tables: []map[string]any{
			{"_id": "t10", "name": "10", "area": map[string]any{"name": "Restaurant"}},
			{"_id": "t2", "name": "2", "area": map[string]any{"name": "Restaurant"}, "booked": true},
			{"_id": "t20", "name": "20 Window", "area": map[string]any{"name": "Conservatory"}},
			{"_id": "tj", "name": "1+2+3", "area": map[string]any{"name": "Restaurant"}},
		},
	}
	recon := newTestReconciler(&fakeRoster{}, rs, nil, app.Options{DefaultTableArea: "Restaurant"})

	areas, err := recon.AvailableTables(context.Background(), d("2024-03-02"), "18:30", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(areas) != 2 {
		t.Fatalf("areas = %+v", areas)
	}

	rest := areas[0]
	if rest.Name != "Restaurant" || !rest.Default {
		t.Errorf("first area = %+v", rest)
	}
	// composite join dropped, remaining sorted by table number
	if len(rest.Tables) != 2 || rest.Tables[0].Name != "2" || rest.Tables[1].Name != "10" {
		t.Errorf("tables = %+v", rest.Tables)
	}
	if !rest.Tables[0].Booked {
		t.Error("booked flag lost")
	}
	if rest.Tables[1].Booked {
		t.Error("tables without a booked flag default to free")
	}

	if areas[1].Name != "Conservatory" || areas[1].Default {
		t.Errorf("second area = %+v", areas[1])
	}
}

func TestAvailableTablesBadTime(t *testing.T) {
	recon := newTestReconciler(&fakeRoster{}, &fakeResos{}, nil, app.Options{})
	if _, err := recon.AvailableTables(context.Background(), d("2024-03-02"), "half past six", 2); err == nil {
		t.Fatal("expected error for unparseable time")
	}
}
