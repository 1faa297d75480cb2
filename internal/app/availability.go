package app

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"resmatch/internal/domain"
)

type TimeSlot struct {
	Time      string
	Available bool
}

// ServicePeriod is one opening-hour window with its bookable slots.
type ServicePeriod struct {
	ID    string
	Name  string
	Slots []TimeSlot
}

type Table struct {
	ID     string
	Name   string
	Booked bool
}

type TableArea struct {
	Name    string
	Default bool
	Tables  []Table
}

// TimeSlots builds the bookable grid for a date and party size: every slot
// the opening hours define, flagged available or not against the venue's
// own availability answer. Falls back to the raw availability list when no
// opening hours are configured.
func (r *Reconciler) TimeSlots(ctx context.Context, date domain.Date, people int) ([]ServicePeriod, error) {
	if people <= 0 {
		people = 2
	}
	var (
		times []map[string]any
		hours []map[string]any
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		times, err = r.resos.AvailableTimes(gctx, date, people)
		return err
	})
	g.Go(func() error {
		var err error
		hours, err = r.resos.OpeningHours(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	avail := make(map[string]struct{})
	for _, t := range times {
		if s := strFlexible(t, "time"); s != "" {
			avail[normalizeSlotTime(s)] = struct{}{}
		}
	}

	var periods []ServicePeriod
	for _, h := range hours {
		id := strFlexible(h, "_id", "id")
		open := slotMinutes(strFlexible(h, "open"))
		close := slotMinutes(strFlexible(h, "close"))
		if open < 0 || close <= open {
			continue
		}
		interval := intFlexible(h, "seating.interval")
		if interval <= 0 {
			interval = 15
		}
		duration := intFlexible(h, "duration")
		if duration <= 0 {
			duration = 120
		}
		name := strFlexible(h, "name")

		var slots []TimeSlot
		for m := open; m <= close-duration; m += interval {
			t := fmt.Sprintf("%d:%02d", m/60, m%60)
			_, ok := avail[t]
			slots = append(slots, TimeSlot{Time: t, Available: ok})
		}
		if len(slots) == 0 {
			continue
		}
		if name == "" {
			name = slots[0].Time + " - " + slots[len(slots)-1].Time
		}
		periods = append(periods, ServicePeriod{ID: id, Name: name, Slots: slots})
	}

	if len(periods) == 0 && len(avail) > 0 {
		keys := make([]string, 0, len(avail))
		for t := range avail {
			keys = append(keys, t)
		}
		sort.Slice(keys, func(i, j int) bool { return slotMinutes(keys[i]) < slotMinutes(keys[j]) })
		slots := make([]TimeSlot, 0, len(keys))
		for _, t := range keys {
			slots = append(slots, TimeSlot{Time: t, Available: true})
		}
		periods = append(periods, ServicePeriod{Name: keys[0] + " - " + keys[len(keys)-1], Slots: slots})
	}
	return periods, nil
}

// AvailableTables lists tables that could seat the party at the given time,
// grouped by floor-plan area and sorted by table number. Composite tables
// (joins of more than two) are dropped.
func (r *Reconciler) AvailableTables(ctx context.Context, date domain.Date, at string, people int) ([]TableArea, error) {
	if people <= 0 {
		people = 2
	}
	start := slotMinutes(at)
	if start < 0 {
		return nil, fmt.Errorf("bad time %q", at)
	}
	end := (start + 120) % (24 * 60)
	from := fmt.Sprintf("%sT%02d:%02d:00", date, start/60, start%60)
	to := fmt.Sprintf("%sT%02d:%02d:00", date, end/60, end%60)

	raw, err := r.resos.AvailableTables(ctx, people, from, to)
	if err != nil {
		return nil, err
	}

	byArea := make(map[string]*TableArea)
	var order []string
	for _, t := range raw {
		name := strFlexible(t, "name")
		if strings.Count(name, "+") > 1 {
			continue
		}
		area := strFlexible(t, "area.name")
		if area == "" {
			area = "Other"
		}
		ta, ok := byArea[area]
		if !ok {
			ta = &TableArea{Name: area}
			byArea[area] = ta
			order = append(order, area)
		}
		booked := false
		if b, ok := lookupAny(t, "booked").(bool); ok {
			booked = b
		}
		ta.Tables = append(ta.Tables, Table{
			ID:     strFlexible(t, "_id", "id"),
			Name:   name,
			Booked: booked,
		})
	}

	out := make([]TableArea, 0, len(order))
	for _, area := range order {
		ta := byArea[area]
		sort.SliceStable(ta.Tables, func(i, j int) bool {
			return tableNumber(ta.Tables[i].Name) < tableNumber(ta.Tables[j].Name)
		})
		if r.opts.DefaultTableArea == "" || strings.EqualFold(area, r.opts.DefaultTableArea) {
			ta.Default = true
		}
		out = append(out, *ta)
	}
	// default area leads, response order otherwise preserved
	sort.SliceStable(out, func(i, j int) bool { return out[i].Default && !out[j].Default })
	return out, nil
}

// normalizeSlotTime reduces "18:30", "18.30" or "6:30 pm" style values to
// the unpadded "H:MM" key used for slot lookup.
func normalizeSlotTime(s string) string {
	m := slotMinutes(s)
	if m < 0 {
		return strings.TrimSpace(s)
	}
	return fmt.Sprintf("%d:%02d", m/60, m%60)
}

// slotMinutes parses a clock time into minutes since midnight, -1 when
// unparseable.
func slotMinutes(s string) int {
	s = strings.TrimSpace(strings.ToLower(s))
	pm := strings.HasSuffix(s, "pm")
	am := strings.HasSuffix(s, "am")
	if pm || am {
		s = strings.TrimSpace(s[:len(s)-2])
	}
	s = strings.ReplaceAll(s, ".", ":")
	parts := strings.SplitN(s, ":", 2)
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return -1
	}
	m := 0
	if len(parts) == 2 {
		if m, err = strconv.Atoi(parts[1]); err != nil || m < 0 || m > 59 {
			return -1
		}
	}
	if pm && h < 12 {
		h += 12
	}
	if am && h == 12 {
		h = 0
	}
	return h*60 + m
}

// tableNumber extracts the leading number from a table name for ordering;
// unnumbered tables sort last.
func tableNumber(name string) int {
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i == 0 {
		return 9999
	}
	n, _ := strconv.Atoi(name[:i])
	return n
}
