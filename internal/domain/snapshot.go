package domain

import "time"

// FieldRoles binds the reservation platform's dynamic custom fields to the
// semantic roles the engine needs. Empty ID = role unresolved = feature
// disabled; an absent role is never an error.
type FieldRoles struct {
	BookingRefFieldID   string
	HotelGuestFieldID   string
	HotelGuestYesID     string
	MealPlanFieldID     string
	MealPlanYesID       string
	GroupExcludeFieldID string
}

// Orphan is a restaurant booking whose hotel reference does not correspond
// to any hotel booking fetched for the target date.
type Orphan struct {
	Booking  RestaurantBooking
	HotelRef string
}

// Snapshot is the immutable result of one reconciliation cycle. A cycle
// builds a wholly new snapshot and publishes it atomically; readers never
// observe a partially built one.
type Snapshot struct {
	Date               Date
	HotelBookings      []HotelBooking
	RestaurantBookings []RestaurantBooking
	Roles              FieldRoles

	MatchedIDs    map[string]struct{} // hotel booking ids with a restaurant booking
	RestaurantFor map[string]string   // hotel booking id -> restaurant booking id
	Orphans       []Orphan
	PackageIDs    map[string]struct{} // hotel booking ids on a package this night

	DataHash string
	Seq      uint64
	BuiltAt  time.Time
}

func (s *Snapshot) Matched(hotelID string) bool {
	_, ok := s.MatchedIDs[hotelID]
	return ok
}

func (s *Snapshot) HasPackage(hotelID string) bool {
	_, ok := s.PackageIDs[hotelID]
	return ok
}

type Ratio struct {
	Matched int
	Total   int
}

type Tally struct {
	Bookings int
	Covers   int
}

// Stats are the display rollups derived from a snapshot.
type Stats struct {
	Guests       Ratio // matched / staying hotel guests
	Arrivals     Ratio // first-night guests
	Departures   Ratio // last-night guests
	Restaurant   Tally // all active restaurant bookings
	MealPlan     Tally // restaurant-side meal-plan flag
	HotelGuests  Tally // restaurant-side hotel-guest flag
	NonResidents Tally
}
