package domain

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned by source adapters on a credential failure
// (HTTP 401). It is surfaced verbatim and never retried.
var ErrUnauthorized = errors.New("source authentication failed")

// RosterSource is the property-management system. Records come back as raw
// JSON objects; the app layer owns the mapping into HotelBooking.
type RosterSource interface {
	// StayingOn returns every stay record overlapping the given date.
	StayingOn(ctx context.Context, date Date) ([]map[string]any, error)
}

// ReservationSource is the restaurant reservation platform.
type ReservationSource interface {
	// BookingsOn returns every reservation overlapping the given date,
	// following the platform's pagination to exhaustion.
	BookingsOn(ctx context.Context, date Date) ([]map[string]any, error)
	// CustomFields returns the current custom-field schema.
	CustomFields(ctx context.Context) ([]map[string]any, error)

	AvailableTimes(ctx context.Context, date Date, people int) ([]map[string]any, error)
	AvailableTables(ctx context.Context, people int, fromDateTime, toDateTime string) ([]map[string]any, error)
	OpeningHours(ctx context.Context) ([]map[string]any, error)

	CreateBooking(ctx context.Context, payload map[string]any) (map[string]any, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, status BookingStatus) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
