package domain

import (
	"strings"
	"time"
)

// BookingStatus is a restaurant reservation status as reported by the
// reservation platform.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusApproved  BookingStatus = "approved"
	StatusArrived   BookingStatus = "arrived"
	StatusSeated    BookingStatus = "seated"
	StatusLeft      BookingStatus = "left"
	StatusDeclined  BookingStatus = "declined"
	StatusCancelled BookingStatus = "cancelled"
	StatusNoShow    BookingStatus = "noshow"
)

// Active reports whether the status counts toward matching and statistics.
func (s BookingStatus) Active() bool {
	switch s {
	case StatusApproved, StatusArrived, StatusSeated, StatusLeft:
		return true
	}
	return false
}

type Contact struct {
	Type  string
	Value string
}

// InventoryItem is one charged line of a hotel stay, dated to the night it
// covers. Package membership is detected from its description.
type InventoryItem struct {
	StayDate    Date
	Description string
}

// HotelBooking is one stay-day record from the property-management system.
// Records are fetched fresh per cycle and never mutated.
type HotelBooking struct {
	ID        string // always normalized to string, the source sends both
	GroupID   string
	FirstName string
	LastName  string
	Site      string
	Adults    int
	Children  int
	Infants   int
	Arrival   Date
	Departure Date
	Status    string
	Contacts  []Contact
	Inventory []InventoryItem
}

func (b HotelBooking) FullName() string {
	name := strings.TrimSpace(b.FirstName + " " + b.LastName)
	if name == "" {
		return "Unknown Guest"
	}
	return name
}

func (b HotelBooking) TotalOccupants() int {
	return b.Adults + b.Children + b.Infants
}

// Contact returns the first contact value of the given type, or "".
func (b HotelBooking) Contact(typ string) string {
	for _, c := range b.Contacts {
		if c.Type == typ {
			return c.Value
		}
	}
	return ""
}

// CustomFieldValue is one custom-field entry on a restaurant booking. The
// platform's schema is dynamic; FieldID is resolved to a role per cycle.
type CustomFieldValue struct {
	FieldID string
	Value   string
}

// RestaurantBooking is one reservation from the restaurant platform.
type RestaurantBooking struct {
	ID           string
	Status       BookingStatus
	DateTime     time.Time
	Duration     int // minutes
	People       int
	GuestName    string
	GuestPhone   string
	GuestEmail   string
	CustomFields []CustomFieldValue
}

// FieldValue returns the first non-empty value recorded against fieldID.
func (b RestaurantBooking) FieldValue(fieldID string) (string, bool) {
	if fieldID == "" {
		return "", false
	}
	for _, cf := range b.CustomFields {
		if cf.FieldID == fieldID && cf.Value != "" {
			return cf.Value, true
		}
	}
	return "", false
}

type FieldChoice struct {
	ID    string
	Label string
}

// CustomFieldDefinition is a schema entry from the reservation platform,
// used only to resolve role mappings for the current cycle.
type CustomFieldDefinition struct {
	ID      string
	Name    string
	Type    string
	Choices []FieldChoice
}
