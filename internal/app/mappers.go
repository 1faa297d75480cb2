package app

import (
	"strconv"
	"strings"
	"time"

	"resmatch/internal/domain"
)

/********** tiny helpers for loosely-typed source payloads **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// strFlexible returns the value at path as a string. Both sources send ids
// and counts as either JSON numbers or strings, so numbers are rendered
// without a fractional part.
func strFlexible(m map[string]any, paths ...string) string {
	for _, p := range paths {
		switch v := lookupAny(m, p).(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}

func intFlexible(m map[string]any, paths ...string) int {
	for _, p := range paths {
		switch v := lookupAny(m, p).(type) {
		case float64:
			return int(v)
		case int:
			return v
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}

func sliceOfMaps(m map[string]any, path string) []map[string]any {
	raw, ok := lookupAny(m, path).([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		if obj, ok := it.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// dateFlexible parses "YYYY-MM-DD" or "YYYY-MM-DD HH:MM:SS" at path.
func dateFlexible(m map[string]any, paths ...string) domain.Date {
	s := strFlexible(m, paths...)
	if s == "" {
		return domain.Date{}
	}
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return domain.Date{}
	}
	return d
}

// titleCase normalizes guest names to display case, keeping the Mc/Mac and
// apostrophe conventions (O'BRIEN -> O'Brien, MCDONALD -> McDonald).
func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	lower := strings.ToLower(w)
	switch {
	case len(w) > 2 && w[1] == '\'':
		return strings.ToUpper(w[:1]) + "'" + strings.ToUpper(w[2:3]) + strings.ToLower(w[3:])
	case len(w) > 2 && strings.HasPrefix(lower, "mc"):
		return "Mc" + strings.ToUpper(w[2:3]) + strings.ToLower(w[3:])
	case len(w) > 3 && strings.HasPrefix(lower, "mac") && w[3] >= 'A' && w[3] <= 'Z':
		return "Mac" + strings.ToUpper(w[3:4]) + strings.ToLower(w[4:])
	default:
		return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
}

/********** hotel roster mapping **********/

func MapHotelBookings(raw []map[string]any) []domain.HotelBooking {
	out := make([]domain.HotelBooking, 0, len(raw))
	for _, m := range raw {
		out = append(out, mapHotelBooking(m))
	}
	return out
}

func mapHotelBooking(m map[string]any) domain.HotelBooking {
	b := domain.HotelBooking{
		ID:        strFlexible(m, "booking_id"),
		GroupID:   strFlexible(m, "bookings_group_id"),
		Site:      strFlexible(m, "site_name"),
		Status:    strFlexible(m, "booking_status"),
		Adults:    intFlexible(m, "booking_adults"),
		Children:  intFlexible(m, "booking_children"),
		Infants:   intFlexible(m, "booking_infants"),
		Arrival:   dateFlexible(m, "booking_arrival"),
		Departure: dateFlexible(m, "booking_departure"),
	}
	if guests := sliceOfMaps(m, "guests"); len(guests) > 0 {
		g := guests[0]
		b.FirstName = titleCase(strFlexible(g, "firstname"))
		b.LastName = titleCase(strFlexible(g, "lastname"))
		for _, cd := range sliceOfMaps(g, "contact_details") {
			typ := strFlexible(cd, "type")
			val := strFlexible(cd, "content")
			if typ != "" && val != "" {
				b.Contacts = append(b.Contacts, domain.Contact{Type: typ, Value: val})
			}
		}
	}
	for _, it := range sliceOfMaps(m, "inventory_items") {
		b.Inventory = append(b.Inventory, domain.InventoryItem{
			StayDate:    dateFlexible(it, "stay_date"),
			Description: strFlexible(it, "description"),
		})
	}
	return b
}

/********** reservation platform mapping **********/

func MapRestaurantBookings(raw []map[string]any) []domain.RestaurantBooking {
	out := make([]domain.RestaurantBooking, 0, len(raw))
	for _, m := range raw {
		out = append(out, mapRestaurantBooking(m))
	}
	return out
}

func mapRestaurantBooking(m map[string]any) domain.RestaurantBooking {
	b := domain.RestaurantBooking{
		ID:         strFlexible(m, "_id", "id"),
		Status:     domain.BookingStatus(strings.ToLower(strFlexible(m, "status"))),
		People:     intFlexible(m, "people"),
		Duration:   intFlexible(m, "duration"),
		GuestName:  strFlexible(m, "guest.name", "name"),
		GuestPhone: strFlexible(m, "guest.phone"),
		GuestEmail: strFlexible(m, "guest.email"),
		DateTime:   timeFlexible(strFlexible(m, "dateTime")),
	}
	for _, cf := range sliceOfMaps(m, "customFields") {
		// the platform sends the field id under either key
		id := strFlexible(cf, "_id", "id")
		if id == "" {
			continue
		}
		b.CustomFields = append(b.CustomFields, domain.CustomFieldValue{
			FieldID: id,
			Value:   strFlexible(cf, "value"),
		})
	}
	return b
}

func timeFlexible(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

/********** custom-field schema mapping **********/

func MapCustomFields(raw []map[string]any) []domain.CustomFieldDefinition {
	out := make([]domain.CustomFieldDefinition, 0, len(raw))
	for _, m := range raw {
		d := domain.CustomFieldDefinition{
			ID:   strFlexible(m, "_id", "id"),
			Name: strFlexible(m, "name"),
			Type: strFlexible(m, "type"),
		}
		for _, c := range sliceOfMaps(m, "multipleChoiceSelections") {
			d.Choices = append(d.Choices, domain.FieldChoice{
				ID:    strFlexible(c, "_id", "id"),
				Label: strFlexible(c, "name"),
			})
		}
		out = append(out, d)
	}
	return out
}
