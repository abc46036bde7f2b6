// Package repo contains all persistence logic for the tripmate API.
// A trip is stored and loaded as a whole aggregate (trip, travelers,
// activities, participants). Each tier has its own file: memory for the
// primary cache, SQLite for per-device local state, Postgres for the durable
// shared backend, and a tiered wrapper that combines them.
// No business logic lives here, only storage and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/tripmate/internal/domain"
)

// TripRepo defines the persistence operations for Trip aggregates.
// The service layer depends on this interface, not on any concrete tier,
// which allows the service to be unit-tested with isolated in-memory repos.
type TripRepo interface {
	// GetByID retrieves a trip with all of its travelers and activities.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// List returns every trip ordered by created_at descending.
	List(ctx context.Context) ([]domain.Trip, error)

	// Save inserts the trip or replaces every stored field and child of an
	// existing trip with the same ID. Order of travelers, activities, and
	// participants is preserved.
	Save(ctx context.Context, trip domain.Trip) error

	// Delete removes a trip and its children.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// BindingRepo stores which traveler each device is acting as.
// A device has at most one current binding, and remembers the last traveler
// it used on every trip so it can resume as that traveler later.
type BindingRepo interface {
	// Current returns the device's current binding.
	// Returns domain.ErrNotFound if the device has none.
	Current(ctx context.Context, deviceID string) (domain.Binding, error)

	// SetCurrent replaces the device's current binding and remembers the
	// traveler for the binding's trip.
	SetCurrent(ctx context.Context, b domain.Binding) error

	// ClearCurrent removes the current binding. Remembered travelers are kept.
	// Clearing a device without a binding is not an error.
	ClearCurrent(ctx context.Context, deviceID string) error

	// Remembered returns the traveler the device last acted as on tripID.
	// Returns domain.ErrNotFound if the device never joined that trip.
	Remembered(ctx context.Context, deviceID string, tripID uuid.UUID) (uuid.UUID, error)

	// Reset forgets everything about the device.
	Reset(ctx context.Context, deviceID string) error
}

// storeErr classifies a driver error: not-found passes through, anything else
// is marked as a store failure so callers can match domain.ErrStore.
func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
}
