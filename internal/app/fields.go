package app

import (
	"strings"

	"resmatch/internal/domain"
)

// FieldOverrides are operator-supplied custom-field IDs. A non-empty value
// is trusted verbatim; empty falls back to the name heuristics below.
type FieldOverrides struct {
	BookingRef string
	HotelGuest string
	MealPlan   string
}

// ResolveFieldRoles binds the platform's custom fields to their semantic
// roles. Pure function, resolved once per cycle; a role that no field
// satisfies stays empty, which disables the dependent feature downstream.
//
// Heuristics (case-insensitive on the display name unless noted):
//   - booking reference: name contains both "booking" and "#"
//   - hotel-guest flag:  name contains both "hotel" and "guest"
//   - meal-plan flag:    name equals "dbb"
//   - group/exclude:     name equals "GROUP/EXCLUDE" exactly, case-sensitive,
//     with no override path
func ResolveFieldRoles(defs []domain.CustomFieldDefinition, ov FieldOverrides) domain.FieldRoles {
	var roles domain.FieldRoles

	if ov.BookingRef != "" {
		roles.BookingRefFieldID = ov.BookingRef
	} else {
		for _, d := range defs {
			n := strings.ToLower(d.Name)
			if strings.Contains(n, "booking") && strings.Contains(n, "#") {
				roles.BookingRefFieldID = d.ID
				break
			}
		}
	}

	if ov.HotelGuest != "" {
		roles.HotelGuestFieldID = ov.HotelGuest
		roles.HotelGuestYesID = yesChoiceByID(defs, ov.HotelGuest)
	} else {
		for _, d := range defs {
			n := strings.ToLower(d.Name)
			if strings.Contains(n, "hotel") && strings.Contains(n, "guest") {
				roles.HotelGuestFieldID = d.ID
				roles.HotelGuestYesID = yesChoice(d)
				break
			}
		}
	}

	if ov.MealPlan != "" {
		roles.MealPlanFieldID = ov.MealPlan
		roles.MealPlanYesID = yesChoiceByID(defs, ov.MealPlan)
	} else {
		for _, d := range defs {
			if strings.EqualFold(d.Name, "dbb") {
				roles.MealPlanFieldID = d.ID
				roles.MealPlanYesID = yesChoice(d)
				break
			}
		}
	}

	for _, d := range defs {
		if d.Name == "GROUP/EXCLUDE" {
			roles.GroupExcludeFieldID = d.ID
			break
		}
	}

	return roles
}

// yesChoice finds the "Yes" choice of a choice-valued field by
// case-insensitive exact label match. Empty if the field has no such choice.
func yesChoice(d domain.CustomFieldDefinition) string {
	for _, c := range d.Choices {
		if strings.EqualFold(c.Label, "yes") {
			return c.ID
		}
	}
	return ""
}

func yesChoiceByID(defs []domain.CustomFieldDefinition, fieldID string) string {
	for _, d := range defs {
		if d.ID == fieldID {
			return yesChoice(d)
		}
	}
	return ""
}
