package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resmatch/internal/domain"
)

// ErrGuestNotFound is returned when a booking id is not in the current
// hotel roster.
var ErrGuestNotFound = errors.New("guest not found in current roster")

type CreateBookingRequest struct {
	HotelBookingID string
	People         int
	Time           string // "18:30"
	TableID        string
	OpeningHourID  string
}

// CreateGuestBooking creates a restaurant reservation for an in-house
// guest, prefilled from the hotel booking: name, phone, email, and the
// custom fields that link the reservation back to the room.
func (r *Reconciler) CreateGuestBooking(ctx context.Context, req CreateBookingRequest) (*domain.Snapshot, error) {
	cur := r.cur.Load()
	if cur == nil {
		return nil, ErrNoSnapshot
	}

	var hb *domain.HotelBooking
	for i := range cur.HotelBookings {
		if cur.HotelBookings[i].ID == req.HotelBookingID {
			hb = &cur.HotelBookings[i]
			break
		}
	}
	if hb == nil {
		return nil, fmt.Errorf("%w: %s", ErrGuestNotFound, req.HotelBookingID)
	}

	people := req.People
	if people <= 0 {
		people = hb.TotalOccupants()
		if people <= 0 {
			people = 2
		}
	}

	guest := map[string]any{"name": hb.FullName()}
	phone := hb.Contact("phone")
	if phone == "" {
		phone = hb.Contact("mobile")
	}
	if phone != "" {
		guest["phone"] = normalizePhone(phone)
	}
	if email := hb.Contact("email"); email != "" {
		guest["email"] = email
		if r.opts.NotifyGuests {
			guest["notificationEmail"] = true
		}
	}

	var fields []map[string]any
	if cur.Roles.BookingRefFieldID != "" {
		fields = append(fields, map[string]any{
			"_id":   cur.Roles.BookingRefFieldID,
			"name":  "Booking #",
			"value": hb.ID,
		})
	}
	if cur.Roles.HotelGuestFieldID != "" && cur.Roles.HotelGuestYesID != "" {
		fields = append(fields, map[string]any{
			"_id":                     cur.Roles.HotelGuestFieldID,
			"name":                    "Hotel Guest",
			"value":                   cur.Roles.HotelGuestYesID,
			"multipleChoiceValueName": "Yes",
		})
	}
	if cur.Roles.MealPlanFieldID != "" && cur.Roles.MealPlanYesID != "" && cur.HasPackage(hb.ID) {
		fields = append(fields, map[string]any{
			"_id":                     cur.Roles.MealPlanFieldID,
			"name":                    "DBB",
			"value":                   cur.Roles.MealPlanYesID,
			"multipleChoiceValueName": "Yes",
		})
	}

	payload := map[string]any{
		"date":         cur.Date.String(),
		"time":         req.Time,
		"people":       people,
		"guest":        guest,
		"status":       string(domain.StatusApproved),
		"languageCode": "en",
		"source":       "api",
		"note":         "Created by resmatch",
		"customFields": fields,
	}
	if req.TableID != "" {
		payload["tables"] = []string{req.TableID}
	}
	if req.OpeningHourID != "" {
		payload["openingHourId"] = req.OpeningHourID
	}

	created, err := r.resos.CreateBooking(ctx, payload)
	if err != nil {
		return nil, err
	}

	resv := make([]domain.RestaurantBooking, len(cur.RestaurantBookings), len(cur.RestaurantBookings)+1)
	copy(resv, cur.RestaurantBookings)
	if created != nil {
		resv = append(resv, mapRestaurantBooking(created))
	}
	return r.rebuildWith(cur, resv), nil
}

// normalizePhone reduces a local-format number to E.164 with a UK country
// code: digits only, leading zero dropped.
func normalizePhone(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	d := b.String()
	if d == "" {
		return ""
	}
	if strings.HasPrefix(s, "+") && !strings.HasPrefix(d, "0") {
		return "+" + d
	}
	d = strings.TrimPrefix(d, "0")
	return "+44" + d
}
