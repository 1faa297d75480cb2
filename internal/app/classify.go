package app

import (
	"strings"

	"resmatch/internal/domain"
)

// PackageIDs flags hotel bookings whose inventory indicates the configured
// package on the target date: at least one line item dated exactly to the
// date whose description contains packageName (case-insensitive). An empty
// package name disables the feature rather than matching everything.
func PackageIDs(bookings []domain.HotelBooking, packageName string, date domain.Date) map[string]struct{} {
	ids := make(map[string]struct{})
	name := strings.ToLower(strings.TrimSpace(packageName))
	if name == "" || date.IsZero() {
		return ids
	}
	for _, b := range bookings {
		for _, it := range b.Inventory {
			if it.StayDate == date && strings.Contains(strings.ToLower(it.Description), name) {
				ids[b.ID] = struct{}{}
				break
			}
		}
	}
	return ids
}

// NightRole classifies the target date within a stay. A single-night stay
// sets both flags; a middle night of a longer stay sets neither.
type NightRole struct {
	FirstNight bool
	LastNight  bool
}

// ClassifyNight uses calendar arithmetic: the last night is the date
// immediately preceding departure, so checkout morning itself counts as
// neither first nor last.
func ClassifyNight(b domain.HotelBooking, date domain.Date) NightRole {
	var nr NightRole
	if date.IsZero() || b.Arrival.IsZero() || b.Departure.IsZero() {
		return nr
	}
	nr.FirstNight = b.Arrival == date
	nr.LastNight = b.Departure.AddDays(-1) == date
	return nr
}
