package app

import (
	"strings"

	"resmatch/internal/domain"
)

// DetectOrphans finds active restaurant bookings whose booking-reference
// value does not correspond to any hotel booking fetched for the date.
// Requires a resolved booking-reference role; without one the result is
// empty. Order is stable: reservation iteration order, not re-sorted.
func DetectOrphans(hotel []domain.HotelBooking, reservations []domain.RestaurantBooking, roles domain.FieldRoles) []domain.Orphan {
	if roles.BookingRefFieldID == "" {
		return nil
	}

	known := make(map[string]struct{}, len(hotel))
	for _, hb := range hotel {
		known[hb.ID] = struct{}{}
	}

	var out []domain.Orphan
	for _, rb := range reservations {
		if !rb.Status.Active() {
			continue
		}
		// first value on the reference field only; further matches ignored
		v, ok := rb.FieldValue(roles.BookingRefFieldID)
		if !ok {
			continue
		}
		ref := strings.TrimSpace(v)
		if ref == "" {
			continue
		}
		if _, exists := known[ref]; exists {
			continue
		}
		out = append(out, domain.Orphan{Booking: rb, HotelRef: ref})
	}
	return out
}
