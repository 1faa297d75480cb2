package app_test

import (
	"testing"

	"resmatch/internal/app"
	"resmatch/internal/domain"
)

func TestAggregate(t *testing.T) {
	date := d("2024-03-02")
	roles := domain.FieldRoles{
		BookingRefFieldID: refField,
		HotelGuestFieldID: "hg",
		HotelGuestYesID:   "hg-yes",
		MealPlanFieldID:   "mp",
		MealPlanYesID:     "mp-yes",
	}
	hgYes := domain.CustomFieldValue{FieldID: "hg", Value: "hg-yes"}
	mpYes := domain.CustomFieldValue{FieldID: "mp", Value: "mp-yes"}

	snap := &domain.Snapshot{
		Date:  date,
		Roles: roles,
		HotelBookings: []domain.HotelBooking{
			{ID: "1", Arrival: date, Departure: d("2024-03-05")},         // arriving, matched
			{ID: "2", Arrival: d("2024-03-01"), Departure: d("2024-03-03")}, // departing, unmatched
			{ID: "3", Arrival: d("2024-03-01"), Departure: d("2024-03-05")}, // mid-stay, unmatched
		},
		RestaurantBookings: []domain.RestaurantBooking{
			{ID: "r1", Status: domain.StatusApproved, People: 2, CustomFields: []domain.CustomFieldValue{hgYes, mpYes}},
			{ID: "r2", Status: domain.StatusSeated, People: 4, CustomFields: []domain.CustomFieldValue{hgYes}},
			{ID: "r3", Status: domain.StatusApproved, People: 3}, // walk-in, non-resident
			{ID: "r4", Status: domain.StatusCancelled, People: 6},
		},
		MatchedIDs: map[string]struct{}{"1": {}},
	}

	st := app.Aggregate(snap)

	if st.Guests != (domain.Ratio{Matched: 1, Total: 3}) {
		t.Errorf("Guests = %+v", st.Guests)
	}
	if st.Arrivals != (domain.Ratio{Matched: 1, Total: 1}) {
		t.Errorf("Arrivals = %+v", st.Arrivals)
	}
	if st.Departures != (domain.Ratio{Matched: 0, Total: 1}) {
		t.Errorf("Departures = %+v", st.Departures)
	}
	if st.Restaurant != (domain.Tally{Bookings: 3, Covers: 9}) {
		t.Errorf("Restaurant = %+v (cancelled bookings must not count)", st.Restaurant)
	}
	if st.MealPlan != (domain.Tally{Bookings: 1, Covers: 2}) {
		t.Errorf("MealPlan = %+v", st.MealPlan)
	}
	if st.HotelGuests != (domain.Tally{Bookings: 2, Covers: 6}) {
		t.Errorf("HotelGuests = %+v", st.HotelGuests)
	}
	if st.NonResidents != (domain.Tally{Bookings: 1, Covers: 3}) {
		t.Errorf("NonResidents = %+v", st.NonResidents)
	}
}

func TestAggregateUnresolvedFlagsCountEveryoneNonResident(t *testing.T) {
	snap := &domain.Snapshot{
		Date: d("2024-03-02"),
		RestaurantBookings: []domain.RestaurantBooking{
			{ID: "r1", Status: domain.StatusApproved, People: 2,
				CustomFields: []domain.CustomFieldValue{{FieldID: "hg", Value: "hg-yes"}}},
		},
	}
	st := app.Aggregate(snap)
	if st.HotelGuests.Bookings != 0 || st.NonResidents.Bookings != 1 {
		t.Fatalf("without resolved roles the flag cannot fire: %+v", st)
	}
}
