package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/tripmate/internal/config"
	"github.com/pkordes/tripmate/internal/database"
	"github.com/pkordes/tripmate/internal/handler"
	"github.com/pkordes/tripmate/internal/identity"
	"github.com/pkordes/tripmate/internal/middleware"
	"github.com/pkordes/tripmate/internal/repo"
	"github.com/pkordes/tripmate/internal/service"
	"github.com/pkordes/tripmate/internal/sharing"
)

// app is the fully wired server: its router and the resources it holds open.
type app struct {
	handler http.Handler
	closers []func()
}

// Close releases the app's database handles in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp opens the storage tiers named by cfg and wires services, resolvers,
// and the router on top of them.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}

	// --- Storage ----------------------------------------------------------
	// The local tier is SQLite when a path is configured, otherwise memory.
	// Postgres is the optional shared tier that shared trips are published to.
	var (
		local    repo.TripRepo
		bindings repo.BindingRepo
		shared   repo.TripRepo
	)
	if cfg.UseSQLite() {
		db, err := database.OpenSQLite(ctx, cfg.LocalDBPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { db.Close() })
		local = repo.NewSQLiteTripRepo(db)
		bindings = repo.NewSQLiteBindingRepo(db)
		logger.Info("local store ready", "driver", "sqlite", "path", cfg.LocalDBPath)
	} else {
		local = repo.NewMemoryTripRepo()
		bindings = repo.NewMemoryBindingRepo()
		logger.Info("local store ready", "driver", "memory")
	}

	if cfg.DatabaseURL != "" {
		pool, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		shared = repo.NewTripRepo(pool)
		logger.Info("shared store ready", "driver", "postgres")
	}

	trips := repo.NewTieredTripRepo(local, shared)

	// --- Services ---------------------------------------------------------
	tripSvc := service.NewTripService(trips, bindings, service.WithLogger(logger))
	exportSvc := service.NewExportService(trips)
	identities := identity.NewResolver(tripSvc, bindings)
	invites, err := sharing.NewResolver(tripSvc, cfg.PublicBaseURL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("sharing: %w", err)
	}

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → DeviceIdentity →
	// Logger → Recoverer → CORS → MaxBodySize.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// DeviceIdentity reads X-Device-ID so the logger and handlers can see it.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewDeviceIdentity())
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	srv := handler.NewServer(tripSvc, exportSvc, identities, invites,
		handler.WithLogger(logger),
		handler.WithDebugRoutes(cfg.EnableDebugRoutes),
	)
	r.Mount("/", srv.Routes())

	a.handler = r
	return a, nil
}
