package app

import "resmatch/internal/domain"

// Aggregate folds a snapshot into the display rollups. Pure: no state is
// touched, so it can run on every read of the report.
//
// The meal-plan and hotel-guest tallies come from the restaurant side's own
// flag fields and are independent of the hotel-side package classification.
func Aggregate(s *domain.Snapshot) domain.Stats {
	var st domain.Stats

	st.Guests.Total = len(s.HotelBookings)
	for _, hb := range s.HotelBookings {
		matched := s.Matched(hb.ID)
		if matched {
			st.Guests.Matched++
		}
		nr := ClassifyNight(hb, s.Date)
		if nr.FirstNight {
			st.Arrivals.Total++
			if matched {
				st.Arrivals.Matched++
			}
		}
		if nr.LastNight {
			st.Departures.Total++
			if matched {
				st.Departures.Matched++
			}
		}
	}

	roles := s.Roles
	for _, rb := range s.RestaurantBookings {
		if !rb.Status.Active() {
			continue
		}
		st.Restaurant.Bookings++
		st.Restaurant.Covers += rb.People

		var hotelGuest, mealPlan bool
		for _, cf := range rb.CustomFields {
			if roles.HotelGuestFieldID != "" && roles.HotelGuestYesID != "" &&
				cf.FieldID == roles.HotelGuestFieldID && cf.Value == roles.HotelGuestYesID {
				hotelGuest = true
			}
			if roles.MealPlanFieldID != "" && roles.MealPlanYesID != "" &&
				cf.FieldID == roles.MealPlanFieldID && cf.Value == roles.MealPlanYesID {
				mealPlan = true
			}
		}

		if mealPlan {
			st.MealPlan.Bookings++
			st.MealPlan.Covers += rb.People
		}
		if hotelGuest {
			st.HotelGuests.Bookings++
			st.HotelGuests.Covers += rb.People
		} else {
			st.NonResidents.Bookings++
			st.NonResidents.Covers += rb.People
		}
	}

	return st
}
