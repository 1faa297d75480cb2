package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"resmatch/internal/adapters/newbook"
	"resmatch/internal/adapters/observability"
	"resmatch/internal/adapters/resos"
	"resmatch/internal/app"
	"resmatch/internal/domain"
	"resmatch/internal/shared"
)

// One-shot reconcile: run a single cycle for a date and print the report
// as JSON. Useful for cron jobs and debugging without the API running.
func main() {
	dateFlag := flag.String("date", "", "service date, YYYY-MM-DD (default today)")
	flag.Parse()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)
	observability.InitRegistry()

	date := domain.Today()
	if *dateFlag != "" {
		var err error
		if date, err = domain.ParseDate(*dateFlag); err != nil {
			log.Fatal().Err(err).Msg("bad -date")
		}
	}

	roster, err := newbook.New(cfg.NewbookBase, cfg.NewbookUsername, cfg.NewbookPassword, cfg.NewbookAPIKey, cfg.NewbookRegion, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("hotel roster client init failed")
	}
	resv, err := resos.New(cfg.ResosBase, cfg.ResosAPIKey, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("reservation client init failed")
	}

	recon := app.NewReconciler(roster, resv, nil, app.Options{
		Overrides: app.FieldOverrides{
			BookingRef: cfg.BookingRefFieldID,
			HotelGuest: cfg.HotelGuestFieldID,
			MealPlan:   cfg.MealPlanFieldID,
		},
		PackageName: cfg.PackageName,
	}, log.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	snap, err := recon.Refresh(ctx, date)
	if err != nil {
		log.Fatal().Err(err).Msg("reconcile failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(app.BuildReport(snap)); err != nil {
		log.Fatal().Err(err).Msg("encode report failed")
	}
}
