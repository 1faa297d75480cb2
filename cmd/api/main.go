package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	server "resmatch/internal/adapters/http_server"
	"resmatch/internal/adapters/newbook"
	"resmatch/internal/adapters/observability"
	redisad "resmatch/internal/adapters/redis"
	"resmatch/internal/adapters/resos"
	"resmatch/internal/app"
	"resmatch/internal/domain"
	"resmatch/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// booking sources
	roster, err := newbook.New(cfg.NewbookBase, cfg.NewbookUsername, cfg.NewbookPassword, cfg.NewbookAPIKey, cfg.NewbookRegion, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("hotel roster client init failed")
	}
	resv, err := resos.New(cfg.ResosBase, cfg.ResosAPIKey, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("reservation client init failed")
	}

	// cache is optional; the service degrades to uncached schema lookups
	var cache domain.Cache
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; running uncached")
	} else {
		cache = rc
	}
	pingCancel()

	recon := app.NewReconciler(roster, resv, cache, app.Options{
		Overrides: app.FieldOverrides{
			BookingRef: cfg.BookingRefFieldID,
			HotelGuest: cfg.HotelGuestFieldID,
			MealPlan:   cfg.MealPlanFieldID,
		},
		PackageName:      cfg.PackageName,
		DefaultTableArea: cfg.DefaultTableArea,
		RefreshInterval:  cfg.AutoRefresh,
		SchemaTTL:        cfg.SchemaTTL,
		NotifyGuests:     cfg.NotifyGuests,
		UpdateWorkers:    cfg.UpdateWorkers,
	}, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go recon.Run(ctx)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{R: recon})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
