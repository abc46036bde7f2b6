// Package handler implements the HTTP surface of the tripmate API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, activity.go, etc.) but share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/tripmate/internal/domain"
	"github.com/pkordes/tripmate/internal/sharing"
)

// TripServicer defines the trip entity store operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the service or repo layers.
type TripServicer interface {
	CreateTrip(ctx context.Context, name string, start, end time.Time, ownerName string) (domain.Trip, error)
	GetTrip(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	ListTrips(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int, error)
	UpdateTrip(ctx context.Context, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error)
	DeleteTrip(ctx context.Context, id uuid.UUID) error

	AddActivity(ctx context.Context, tripID uuid.UUID, in domain.ActivityInput) (domain.Activity, error)
	UpdateActivity(ctx context.Context, tripID, activityID uuid.UUID, patch domain.ActivityPatch) (domain.Activity, error)
	DeleteActivity(ctx context.Context, tripID, activityID uuid.UUID) error
	JoinActivity(ctx context.Context, tripID, activityID, travelerID uuid.UUID) (domain.Activity, error)
	LeaveActivity(ctx context.Context, tripID, activityID, travelerID uuid.UUID) (domain.Activity, error)
	GetActivitiesForDay(ctx context.Context, tripID uuid.UUID, dayIndex int) ([]domain.Activity, error)

	JoinTrip(ctx context.Context, tripID uuid.UUID, name string) (domain.Traveler, error)
	LeaveTrip(ctx context.Context, tripID, travelerID uuid.UUID) error
	GetTravelerCosts(ctx context.Context, tripID, travelerID uuid.UUID) (float64, error)

	Itinerary(ctx context.Context, id uuid.UUID) (domain.Itinerary, error)
	Summary(ctx context.Context, id uuid.UUID) (domain.TripSummary, error)
}

// ExportServicer defines the export operation the export handler depends on.
type ExportServicer interface {
	Export(ctx context.Context, tripID uuid.UUID) ([]domain.ExportRow, error)
}

// IdentityResolver answers "who is this device on this trip".
type IdentityResolver interface {
	CurrentTravelerForTrip(ctx context.Context, tripID uuid.UUID) (domain.Traveler, bool, error)
	SetCurrentTraveler(ctx context.Context, traveler *domain.Traveler) error
	ResetUserForTesting(ctx context.Context) error
}

// Sharer publishes trips and builds their invite links.
type Sharer interface {
	ShareTrip(ctx context.Context, tripID uuid.UUID) (domain.Invite, error)
}

// InviteResolver parses an invite link into the trip it points at.
type InviteResolver func(raw string) (domain.InviteTarget, bool)

// Server holds the dependencies of every API endpoint.
// Methods are in domain-specific files but all operate on this struct.
type Server struct {
	trips    TripServicer
	export   ExportServicer
	identity IdentityResolver
	sharer   Sharer
	invites  InviteResolver
	logger   *slog.Logger
	debug    bool
}

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the logger used for unexpected failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithDebugRoutes mounts routes meant for manual testing only.
func WithDebugRoutes(enabled bool) Option {
	return func(s *Server) { s.debug = enabled }
}

// WithInviteResolver sets the function behind GET /invites/resolve.
func WithInviteResolver(fn InviteResolver) Option {
	return func(s *Server) { s.invites = fn }
}

// NewServer constructs the Server with all its dependencies.
// Any dependency may be nil in tests that do not reach it.
func NewServer(trips TripServicer, export ExportServicer, identity IdentityResolver, sharer Sharer, opts ...Option) *Server {
	s := &Server{
		trips:    trips,
		export:   export,
		identity: identity,
		sharer:   sharer,
		invites:  sharing.ResolveInviteLink,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil)
}

// Routes returns a chi router with every API endpoint mounted.
// Global middleware (logging, CORS, body limits) is applied by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", s.ListTrips)
		r.Post("/", s.CreateTrip)

		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Patch("/", s.UpdateTrip)
			r.Delete("/", s.DeleteTrip)

			r.Get("/days", s.GetItinerary)
			r.Get("/days/{dayIndex}/activities", s.GetActivitiesForDay)
			r.Get("/summary", s.GetSummary)
			r.Get("/export", s.GetExport)
			r.Get("/me", s.GetCurrentTraveler)
			r.Post("/share", s.ShareTrip)

			r.Post("/activities", s.AddActivity)
			r.Patch("/activities/{activityID}", s.UpdateActivity)
			r.Delete("/activities/{activityID}", s.DeleteActivity)
			r.Put("/activities/{activityID}/participants/{travelerID}", s.JoinActivity)
			r.Delete("/activities/{activityID}/participants/{travelerID}", s.LeaveActivity)

			r.Post("/travelers", s.JoinTrip)
			r.Delete("/travelers/{travelerID}", s.LeaveTrip)
			r.Get("/travelers/{travelerID}/cost", s.GetTravelerCosts)
		})
	})

	r.Put("/me", s.SetCurrentTraveler)
	r.Delete("/me", s.ClearCurrentTraveler)
	if s.debug {
		r.Delete("/me/identity", s.ResetIdentity)
	}

	r.Get("/invites/resolve", s.ResolveInvite)

	return r
}
