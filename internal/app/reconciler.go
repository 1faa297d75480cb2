package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"resmatch/internal/adapters/observability"
	"resmatch/internal/domain"
)

// ErrNoSnapshot is returned by operations that need a published snapshot
// before any cycle has run.
var ErrNoSnapshot = errors.New("no snapshot loaded; refresh first")

type Options struct {
	Overrides        FieldOverrides
	PackageName      string
	DefaultTableArea string
	RefreshInterval  time.Duration // 0 disables the silent-refresh loop
	SchemaTTL        time.Duration
	NotifyGuests     bool
	UpdateWorkers    int
}

// Reconciler runs fetch-and-match cycles against the two booking sources
// and publishes immutable snapshots. A cycle replaces the snapshot in full;
// readers never see a partial build.
type Reconciler struct {
	roster domain.RosterSource
	resos  domain.ReservationSource
	cache  domain.Cache // optional; nil runs uncached
	opts   Options
	log    zerolog.Logger

	seq atomic.Uint64
	cur atomic.Pointer[domain.Snapshot]
}

func NewReconciler(roster domain.RosterSource, resos domain.ReservationSource, cache domain.Cache, opts Options, log zerolog.Logger) *Reconciler {
	if opts.UpdateWorkers <= 0 {
		opts.UpdateWorkers = 4
	}
	return &Reconciler{roster: roster, resos: resos, cache: cache, opts: opts, log: log}
}

// Snapshot returns the currently published snapshot, or nil before the
// first successful cycle.
func (r *Reconciler) Snapshot() *domain.Snapshot { return r.cur.Load() }

// Refresh runs one full user-initiated cycle for the date. The three
// fetches run concurrently and fail fast: the first error cancels the rest
// and the cycle aborts with no partial state visible.
func (r *Reconciler) Refresh(ctx context.Context, date domain.Date) (*domain.Snapshot, error) {
	start := time.Now()
	seq := r.seq.Add(1)

	var (
		hotel []domain.HotelBooking
		resv  []domain.RestaurantBooking
		defs  []domain.CustomFieldDefinition
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := r.roster.StayingOn(gctx, date)
		if err != nil {
			return fmt.Errorf("hotel roster: %w", err)
		}
		hotel = MapHotelBookings(raw)
		return nil
	})
	g.Go(func() error {
		raw, err := r.resos.BookingsOn(gctx, date)
		if err != nil {
			return fmt.Errorf("reservations: %w", err)
		}
		resv = MapRestaurantBookings(raw)
		return nil
	})
	g.Go(func() error {
		var err error
		defs, err = r.customFieldDefs(gctx)
		if err != nil {
			return fmt.Errorf("custom field schema: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		observability.ObserveReconcile("manual", "error", time.Since(start))
		return nil, err
	}

	roles := ResolveFieldRoles(defs, r.opts.Overrides)
	snap := r.build(date, seq, hotel, resv, roles)
	if !r.publish(snap) {
		// a newer cycle finished while this one was in flight
		observability.ObserveReconcile("manual", "stale", time.Since(start))
		return r.cur.Load(), nil
	}
	observability.ObserveReconcile("manual", "ok", time.Since(start))
	r.log.Info().
		Str("date", date.String()).
		Int("hotel", len(hotel)).
		Int("restaurant", len(resv)).
		Int("matched", len(snap.MatchedIDs)).
		Int("orphans", len(snap.Orphans)).
		Msg("reconcile cycle complete")
	return snap, nil
}

// SilentRefresh re-runs the two data fetches in the background. Errors are
// logged and swallowed; if the dataset hash is unchanged the snapshot is
// not rebuilt and no one is notified.
func (r *Reconciler) SilentRefresh(ctx context.Context, date domain.Date) {
	start := time.Now()
	seq := r.seq.Add(1)

	var (
		hotel []domain.HotelBooking
		resv  []domain.RestaurantBooking
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := r.roster.StayingOn(gctx, date)
		if err != nil {
			return err
		}
		hotel = MapHotelBookings(raw)
		return nil
	})
	g.Go(func() error {
		raw, err := r.resos.BookingsOn(gctx, date)
		if err != nil {
			return err
		}
		resv = MapRestaurantBookings(raw)
		return nil
	})
	if err := g.Wait(); err != nil {
		observability.ObserveReconcile("silent", "error", time.Since(start))
		r.log.Warn().Err(err).Str("date", date.String()).Msg("silent refresh failed; keeping previous snapshot")
		return
	}

	cur := r.cur.Load()
	hash := DataHash(hotel, resv)
	if cur != nil && cur.Date == date && cur.DataHash == hash {
		observability.ObserveReconcile("silent", "unchanged", time.Since(start))
		return
	}

	var roles domain.FieldRoles
	if cur != nil && cur.Date == date {
		roles = cur.Roles
	} else {
		defs, err := r.customFieldDefs(ctx)
		if err != nil {
			observability.ObserveReconcile("silent", "error", time.Since(start))
			r.log.Warn().Err(err).Msg("silent refresh schema fetch failed")
			return
		}
		roles = ResolveFieldRoles(defs, r.opts.Overrides)
	}

	snap := r.build(date, seq, hotel, resv, roles)
	if !r.publish(snap) {
		observability.ObserveReconcile("silent", "stale", time.Since(start))
		return
	}
	observability.ObserveReconcile("silent", "ok", time.Since(start))
	r.log.Info().Str("date", date.String()).Msg("silent refresh picked up changes")
}

// Run drives SilentRefresh for the published snapshot's date at the
// configured interval. Blocks until ctx is done; no-op when disabled.
func (r *Reconciler) Run(ctx context.Context) {
	if r.opts.RefreshInterval <= 0 {
		return
	}
	t := time.NewTicker(r.opts.RefreshInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if cur := r.cur.Load(); cur != nil {
				r.SilentRefresh(ctx, cur.Date)
			}
		}
	}
}

const schemaCacheKey = "resos:customfields"

func (r *Reconciler) customFieldDefs(ctx context.Context) ([]domain.CustomFieldDefinition, error) {
	if r.cache != nil {
		var defs []domain.CustomFieldDefinition
		if ok, _ := r.cache.Get(ctx, schemaCacheKey, &defs); ok {
			return defs, nil
		}
	}
	raw, err := r.resos.CustomFields(ctx)
	if err != nil {
		return nil, err
	}
	defs := MapCustomFields(raw)
	if r.cache != nil {
		_ = r.cache.Set(ctx, schemaCacheKey, defs, int(r.opts.SchemaTTL.Seconds()))
	}
	return defs, nil
}

func (r *Reconciler) build(date domain.Date, seq uint64, hotel []domain.HotelBooking, resv []domain.RestaurantBooking, roles domain.FieldRoles) *domain.Snapshot {
	m := Match(hotel, resv, roles)
	return &domain.Snapshot{
		Date:               date,
		HotelBookings:      hotel,
		RestaurantBookings: resv,
		Roles:              roles,
		MatchedIDs:         m.IDs,
		RestaurantFor:      m.RestaurantFor,
		Orphans:            DetectOrphans(hotel, resv, roles),
		PackageIDs:         PackageIDs(hotel, r.opts.PackageName, date),
		DataHash:           DataHash(hotel, resv),
		Seq:                seq,
		BuiltAt:            time.Now(),
	}
}

// publish installs snap unless a newer cycle already published, so a slow
// stale response cannot overwrite fresher state.
func (r *Reconciler) publish(snap *domain.Snapshot) bool {
	for {
		cur := r.cur.Load()
		if cur != nil && cur.Seq > snap.Seq {
			return false
		}
		if r.cur.CompareAndSwap(cur, snap) {
			matched := matchedHotelCount(snap)
			observability.SetSnapshotGauges(matched, len(snap.HotelBookings)-matched)
			return true
		}
	}
}

// matchedHotelCount counts matched ids that actually belong to fetched
// hotel bookings; the matched set can also carry stale references.
func matchedHotelCount(s *domain.Snapshot) int {
	n := 0
	for _, hb := range s.HotelBookings {
		if s.Matched(hb.ID) {
			n++
		}
	}
	return n
}

// DataHash fingerprints the two datasets for the silent-refresh idempotence
// guard: order-independent over booking ids and the fields whose change
// matters for display.
func DataHash(hotel []domain.HotelBooking, resv []domain.RestaurantBooking) string {
	hIDs := make([]string, 0, len(hotel))
	for _, b := range hotel {
		hIDs = append(hIDs, b.ID+":"+b.Status)
	}
	sort.Strings(hIDs)

	rIDs := make([]string, 0, len(resv))
	for _, b := range resv {
		rIDs = append(rIDs, fmt.Sprintf("%s:%s:%d", b.ID, b.Status, b.People))
	}
	sort.Strings(rIDs)

	sum := sha1.Sum([]byte(strings.Join(hIDs, ",") + "|" + strings.Join(rIDs, ",")))
	return hex.EncodeToString(sum[:])
}

// MarkLeftResult reports a batch status update. Failures are counted, never
// retried; the successfully-updated subset is kept.
type MarkLeftResult struct {
	Candidates int
	Updated    int
	Failed     int
}

// MarkLeftPastDue re-fetches reservations for the snapshot's date, selects
// seated/arrived bookings whose visit has elapsed, and marks each "left"
// with bounded concurrency. Partial failure is tolerated: some updates may
// fail while others stick.
func (r *Reconciler) MarkLeftPastDue(ctx context.Context) (MarkLeftResult, error) {
	cur := r.cur.Load()
	if cur == nil {
		return MarkLeftResult{}, ErrNoSnapshot
	}

	raw, err := r.resos.BookingsOn(ctx, cur.Date)
	if err != nil {
		return MarkLeftResult{}, err
	}
	resv := MapRestaurantBookings(raw)

	now := time.Now()
	var targets []string
	for _, b := range resv {
		if (b.Status == domain.StatusSeated || b.Status == domain.StatusArrived) && pastDue(b, cur.Date, now) {
			targets = append(targets, b.ID)
		}
	}

	res := MarkLeftResult{Candidates: len(targets)}
	if len(targets) == 0 {
		r.rebuildWith(cur, resv)
		return res, nil
	}

	sem := semaphore.NewWeighted(int64(r.opts.UpdateWorkers))
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		updated = make(map[string]struct{}, len(targets))
		failed  int
	)
	for i, id := range targets {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failed += len(targets) - i
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer sem.Release(1)
			if err := r.resos.UpdateBookingStatus(ctx, id, domain.StatusLeft); err != nil {
				observability.ObserveStatusUpdate("failed")
				r.log.Warn().Str("booking", id).Err(err).Msg("mark-left update failed")
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			observability.ObserveStatusUpdate("ok")
			mu.Lock()
			updated[id] = struct{}{}
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	// fold the successful transitions in without another fetch
	for i := range resv {
		if _, ok := updated[resv[i].ID]; ok {
			resv[i].Status = domain.StatusLeft
		}
	}
	r.rebuildWith(cur, resv)

	res.Updated = len(updated)
	res.Failed = failed
	return res, nil
}

// pastDue: any reservation on a past date, or one whose start plus duration
// has already elapsed today.
func pastDue(b domain.RestaurantBooking, date domain.Date, now time.Time) bool {
	if date.Before(domain.DateOf(now)) {
		return true
	}
	if b.DateTime.IsZero() {
		return false
	}
	return !b.DateTime.Add(time.Duration(b.Duration) * time.Minute).After(now)
}

// rebuildWith publishes a new snapshot reusing the previous cycle's hotel
// roster and resolved roles with a replacement reservation set.
func (r *Reconciler) rebuildWith(cur *domain.Snapshot, resv []domain.RestaurantBooking) *domain.Snapshot {
	snap := r.build(cur.Date, r.seq.Add(1), cur.HotelBookings, resv, cur.Roles)
	if !r.publish(snap) {
		return r.cur.Load()
	}
	return snap
}
