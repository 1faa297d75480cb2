package app

import (
	"sort"
	"strconv"
	"time"

	"resmatch/internal/domain"
)

// Report is the read-model view of a snapshot: per-guest rows, orphaned
// reservations, and the aggregate figures.
type Report struct {
	Date     string
	BuiltAt  time.Time
	DataHash string
	Stats    domain.Stats
	Guests   []GuestEntry
	Orphans  []OrphanEntry
}

type GuestEntry struct {
	ID                  string
	Name                string
	Room                string
	Occupants           int
	Status              string
	FirstNight          bool
	LastNight           bool
	Package             bool
	Matched             bool
	RestaurantBookingID string
}

type OrphanEntry struct {
	RestaurantBookingID string
	HotelRef            string
	GuestName           string
	People              int
	Time                string
	Status              string
}

// BuildReport flattens a snapshot into the shape served to clients, guests
// ordered by room number.
func BuildReport(s *domain.Snapshot) Report {
	rep := Report{
		Date:     s.Date.String(),
		BuiltAt:  s.BuiltAt,
		DataHash: s.DataHash,
		Stats:    Aggregate(s),
	}

	rep.Guests = make([]GuestEntry, 0, len(s.HotelBookings))
	for _, hb := range s.HotelBookings {
		night := ClassifyNight(hb, s.Date)
		rep.Guests = append(rep.Guests, GuestEntry{
			ID:                  hb.ID,
			Name:                hb.FullName(),
			Room:                hb.Site,
			Occupants:           hb.TotalOccupants(),
			Status:              hb.Status,
			FirstNight:          night.FirstNight,
			LastNight:           night.LastNight,
			Package:             s.HasPackage(hb.ID),
			Matched:             s.Matched(hb.ID),
			RestaurantBookingID: s.RestaurantFor[hb.ID],
		})
	}
	sort.SliceStable(rep.Guests, func(i, j int) bool {
		return roomLess(rep.Guests[i].Room, rep.Guests[j].Room)
	})

	rep.Orphans = make([]OrphanEntry, 0, len(s.Orphans))
	for _, o := range s.Orphans {
		e := OrphanEntry{
			RestaurantBookingID: o.Booking.ID,
			HotelRef:            o.HotelRef,
			GuestName:           o.Booking.GuestName,
			People:              o.Booking.People,
			Status:              string(o.Booking.Status),
		}
		if !o.Booking.DateTime.IsZero() {
			e.Time = o.Booking.DateTime.Format("15:04")
		}
		rep.Orphans = append(rep.Orphans, e)
	}
	return rep
}

// roomLess orders room names numerically when both carry a leading number,
// lexically otherwise, so "2" sorts before "10".
func roomLess(a, b string) bool {
	na, oka := leadingInt(a)
	nb, okb := leadingInt(b)
	switch {
	case oka && okb && na != nb:
		return na < nb
	case oka != okb:
		return oka
	default:
		return a < b
	}
}

func leadingInt(s string) (int, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, false
	}
	return n, true
}
