package app

import (
	"strings"

	"resmatch/internal/domain"
)

// MatchResult is the bidirectional outcome of one matching pass.
type MatchResult struct {
	IDs           map[string]struct{} // hotel booking ids with a restaurant booking
	RestaurantFor map[string]string   // hotel booking id -> restaurant booking id
}

// Match computes which hotel bookings have an active restaurant booking,
// either through a direct booking-reference field or through the
// group/exclude field's encoded references.
//
// Tie-break: when several restaurant bookings reference the same hotel id,
// the one processed later in reservation iteration order wins the
// RestaurantFor mapping (last-write-wins).
func Match(hotel []domain.HotelBooking, reservations []domain.RestaurantBooking, roles domain.FieldRoles) MatchResult {
	res := MatchResult{
		IDs:           make(map[string]struct{}),
		RestaurantFor: make(map[string]string),
	}

	// group id -> member hotel booking ids, for G# references
	byGroup := make(map[string][]string)
	for _, hb := range hotel {
		if hb.GroupID != "" {
			byGroup[hb.GroupID] = append(byGroup[hb.GroupID], hb.ID)
		}
	}

	for _, rb := range reservations {
		if !rb.Status.Active() {
			continue
		}
		for _, cf := range rb.CustomFields {
			if cf.Value == "" {
				continue
			}
			if roles.BookingRefFieldID != "" && cf.FieldID == roles.BookingRefFieldID {
				res.mark(cf.Value, rb.ID)
			}
			if roles.GroupExcludeFieldID != "" && cf.FieldID == roles.GroupExcludeFieldID {
				parsed := ParseGroupExclude(cf.Value)
				for _, id := range parsed.Individuals {
					res.mark(id, rb.ID)
				}
				for _, gid := range parsed.Groups {
					for _, id := range byGroup[gid] {
						res.mark(id, rb.ID)
					}
				}
			}
		}
	}
	return res
}

func (r *MatchResult) mark(hotelID, restaurantID string) {
	r.IDs[hotelID] = struct{}{}
	r.RestaurantFor[hotelID] = restaurantID
}

// GroupExcludeList is the parse result of a group/exclude field value.
// Excluded entries are recognized by the grammar but deliberately unused by
// matching; they exist for the operators' own bookkeeping.
type GroupExcludeList struct {
	Individuals []string
	Groups      []string
	Excluded    []string
}

// ParseGroupExclude parses the comma-separated mini-grammar: each trimmed
// entry is classified by prefix, checked in order NOT-#<id>, G#<id>, #<id>
// (the first two case-insensitive). Anything else is silently ignored.
func ParseGroupExclude(value string) GroupExcludeList {
	var out GroupExcludeList
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		upper := strings.ToUpper(entry)
		switch {
		case strings.HasPrefix(upper, "NOT-#"):
			if id := strings.TrimSpace(entry[5:]); id != "" {
				out.Excluded = append(out.Excluded, id)
			}
		case strings.HasPrefix(upper, "G#"):
			if id := strings.TrimSpace(entry[2:]); id != "" {
				out.Groups = append(out.Groups, id)
			}
		case strings.HasPrefix(entry, "#"):
			if id := strings.TrimSpace(entry[1:]); id != "" {
				out.Individuals = append(out.Individuals, id)
			}
		}
	}
	return out
}
