// Package service contains the business logic for the tripmate API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/r3labs/diff/v3"

	"github.com/pkordes/tripmate/internal/domain"
	"github.com/pkordes/tripmate/internal/itinerary"
	"github.com/pkordes/tripmate/internal/repo"
)

// TripService is the trip entity store: the only code allowed to change a
// trip, its travelers, or its activities.
//
// Every mutation takes the per-trip lock, loads the aggregate, edits a deep
// copy, validates it, and publishes it with a single Save. A failure at any
// step leaves the stored trip exactly as it was.
type TripService struct {
	trips    repo.TripRepo
	bindings repo.BindingRepo
	locks    *tripLocks
	logger   *slog.Logger
	now      func() time.Time
	newID    func() uuid.UUID
}

// Option customises a TripService.
type Option func(*TripService)

// WithLogger sets the logger used for mutation events.
func WithLogger(l *slog.Logger) Option {
	return func(s *TripService) { s.logger = l }
}

// WithClock replaces time.Now, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *TripService) { s.now = now }
}

// WithIDGenerator replaces uuid.New, for deterministic tests.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *TripService) { s.newID = newID }
}

// NewTripService constructs a TripService backed by the provided repos.
func NewTripService(trips repo.TripRepo, bindings repo.BindingRepo, opts ...Option) *TripService {
	s := &TripService{
		trips:    trips,
		bindings: bindings,
		locks:    newTripLocks(),
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTrip validates and persists a new trip with its owner as the only
// traveler. When the request carries a device id, the device is bound to the
// owner.
// Returns domain.ErrValidation if input violates business rules.
func (s *TripService) CreateTrip(ctx context.Context, name string, start, end time.Time, ownerName string) (domain.Trip, error) {
	now := s.timestamp()
	trip := domain.Trip{
		ID:         s.newID(),
		Name:       strings.TrimSpace(name),
		StartDate:  domain.Date(start),
		EndDate:    domain.Date(end),
		CreatedAt:  now,
		UpdatedAt:  now,
		Activities: []domain.Activity{},
	}
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.CreateTrip: %w", err)
	}
	owner := strings.TrimSpace(ownerName)
	if err := validateTravelerName("owner_name", owner); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.CreateTrip: %w", err)
	}
	trip.Travelers = []domain.Traveler{{
		ID:       s.newID(),
		TripID:   trip.ID,
		Name:     owner,
		IsOwner:  true,
		JoinedAt: now,
	}}

	ctx = context.WithoutCancel(ctx)
	if err := s.trips.Save(ctx, trip); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.CreateTrip: %w", err)
	}
	if err := s.bind(ctx, trip.ID, trip.Travelers[0].ID); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.CreateTrip: %w", err)
	}

	s.logger.InfoContext(ctx, "trip created", "trip_id", trip.ID, "days", trip.DayCount())
	return trip, nil
}

// GetTrip returns a single trip by ID from whichever tier has it.
// Returns domain.ErrNotFound if no trip with that ID exists.
func (s *TripService) GetTrip(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.load(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetTrip: %w", err)
	}
	return trip, nil
}

// ListTrips returns one page of trips, newest first, and the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) ListTrips(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int, error) {
	trips, err := s.trips.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListTrips: %w", err)
	}
	lo, hi := p.Window(len(trips))
	page := make([]domain.Trip, 0, hi-lo)
	page = append(page, trips[lo:hi]...)
	return page, len(trips), nil
}

// UpdateTrip merges the non-nil fields of patch into the trip and re-validates
// the result. Activities whose day falls outside shrunken dates are kept.
// Returns domain.ErrValidation for invalid input, domain.ErrNotFound if the
// trip does not exist.
func (s *TripService) UpdateTrip(ctx context.Context, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error) {
	var before tripFields
	trip, err := s.mutate(ctx, id, func(t *domain.Trip) (bool, error) {
		before = fieldsOf(*t)
		if patch.Name != nil {
			t.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.StartDate != nil {
			t.StartDate = domain.Date(*patch.StartDate)
		}
		if patch.EndDate != nil {
			t.EndDate = domain.Date(*patch.EndDate)
		}
		if err := validateTrip(*t); err != nil {
			return false, err
		}
		return fieldsOf(*t) != before, nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.UpdateTrip: %w", err)
	}
	s.logChanges(ctx, "trip updated", trip.ID, before, fieldsOf(trip))
	return trip, nil
}

// DeleteTrip removes a trip from every tier. Deleting an unknown trip is not
// an error.
func (s *TripService) DeleteTrip(ctx context.Context, id uuid.UUID) error {
	unlock := s.locks.lock(id)
	defer unlock()

	err := s.trips.Delete(context.WithoutCancel(ctx), id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("service.TripService.DeleteTrip: %w", err)
	}
	s.logger.InfoContext(ctx, "trip deleted", "trip_id", id)
	return nil
}

// ShareTrip marks the trip as discoverable by other devices. Sharing an
// already shared trip saves it again, which re-publishes it to the shared tier.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *TripService) ShareTrip(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.mutate(ctx, id, func(t *domain.Trip) (bool, error) {
		t.Shared = true
		return true, nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.ShareTrip: %w", err)
	}
	s.logger.InfoContext(ctx, "trip shared", "trip_id", id)
	return trip, nil
}

// mutate runs fn against a private copy of the trip under the trip's lock and
// saves the copy if fn reports a change. The stored trip is returned unchanged
// when fn makes no change.
func (s *TripService) mutate(ctx context.Context, id uuid.UUID, fn func(*domain.Trip) (bool, error)) (domain.Trip, error) {
	return s.mutateThen(ctx, id, fn, nil)
}

// mutateThen is mutate with a follow-up step. after runs once the mutation
// has been saved (or found to be a no-op) and before the lock is released, so
// writes it makes are ordered with every other mutation of the trip.
func (s *TripService) mutateThen(ctx context.Context, id uuid.UUID, fn func(*domain.Trip) (bool, error), after func(context.Context) error) (domain.Trip, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	// A mutation that has started runs to completion.
	ctx = context.WithoutCancel(ctx)

	current, err := s.load(ctx, id)
	if err != nil {
		return domain.Trip{}, err
	}
	next := current.Clone()
	changed, err := fn(&next)
	if err != nil {
		return domain.Trip{}, err
	}
	if changed {
		next.UpdatedAt = s.timestamp()
		if err := s.trips.Save(ctx, next); err != nil {
			return domain.Trip{}, err
		}
	} else {
		next = current
	}
	if after != nil {
		if err := after(ctx); err != nil {
			return domain.Trip{}, err
		}
	}
	return next, nil
}

// load fetches a trip and names it in the not-found error.
func (s *TripService) load(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, id)
	return trip, notFoundAs(err, "trip")
}

// notFoundAs replaces a bare not-found error with one naming entity.
func notFoundAs(err error, entity string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.NotFoundError{Entity: entity}
	}
	return err
}

func (s *TripService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// tripFields is the editable part of a trip, compared to log what changed.
type tripFields struct {
	Name      string    `diff:"name"`
	StartDate time.Time `diff:"start_date"`
	EndDate   time.Time `diff:"end_date"`
}

func fieldsOf(t domain.Trip) tripFields {
	return tripFields{Name: t.Name, StartDate: t.StartDate, EndDate: t.EndDate}
}

// logChanges writes one debug line per changed field.
func (s *TripService) logChanges(ctx context.Context, msg string, tripID uuid.UUID, before, after any) {
	if !s.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	changes, err := diff.Diff(before, after)
	if err != nil {
		s.logger.WarnContext(ctx, "diff failed", "trip_id", tripID, "error", err)
		return
	}
	for _, c := range changes {
		s.logger.DebugContext(ctx, msg,
			"trip_id", tripID,
			"field", strings.Join(c.Path, "."),
			"from", c.From,
			"to", c.To,
		)
	}
}

// validateTrip enforces the trip-level business rules.
// Returns a *domain.FieldError naming the offending field.
func validateTrip(t domain.Trip) error {
	if t.Name == "" {
		return domain.Invalid("name", "is required")
	}
	if t.EndDate.Before(t.StartDate) {
		return domain.Invalid("end_date", "must not be before start_date")
	}
	if _, err := itinerary.Count(t.StartDate, t.EndDate); err != nil {
		return domain.Invalid("end_date", "trip may not be longer than %d days", itinerary.MaxDays)
	}
	return nil
}

// validateTravelerName checks an already trimmed display name.
func validateTravelerName(field, name string) error {
	if utf8.RuneCountInString(name) < domain.MinTravelerNameLength {
		return domain.Invalid(field, "must be at least %d characters", domain.MinTravelerNameLength)
	}
	return nil
}

func validateCost(cost *float64) error {
	if cost == nil {
		return nil
	}
	if math.IsNaN(*cost) || math.IsInf(*cost, 0) {
		return domain.Invalid("cost", "must be a number")
	}
	if *cost < 0 {
		return domain.Invalid("cost", "must not be negative")
	}
	return nil
}
