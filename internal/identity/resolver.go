// Package identity answers "which traveler is this device acting as?".
// The answer is a local identity kept per device, not an authenticated
// session: any device can bind itself to any traveler of a trip.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tripmate/internal/device"
	"github.com/pkordes/tripmate/internal/domain"
	"github.com/pkordes/tripmate/internal/repo"
)

// ErrNoDevice is returned when ctx carries no device id.
var ErrNoDevice = errors.New("no device id")

// TripGetter loads trips. *service.TripService satisfies it.
type TripGetter interface {
	GetTrip(ctx context.Context, id uuid.UUID) (domain.Trip, error)
}

// Resolver maps the calling device to its current traveler.
// A device is bound to at most one traveler, on one trip, at a time.
type Resolver struct {
	trips    TripGetter
	bindings repo.BindingRepo
	now      func() time.Time
}

// NewResolver constructs a Resolver over the given trips and bindings.
func NewResolver(trips TripGetter, bindings repo.BindingRepo) *Resolver {
	return &Resolver{trips: trips, bindings: bindings, now: time.Now}
}

// CurrentTravelerForTrip returns the traveler the device is bound to, if that
// binding is for tripID and the traveler is still on the trip.
// Returns domain.ErrNotFound if the trip does not exist.
func (r *Resolver) CurrentTravelerForTrip(ctx context.Context, tripID uuid.UUID) (domain.Traveler, bool, error) {
	deviceID, ok := device.IDFrom(ctx)
	if !ok {
		return domain.Traveler{}, false, ErrNoDevice
	}

	trip, err := r.trips.GetTrip(ctx, tripID)
	if err != nil {
		return domain.Traveler{}, false, fmt.Errorf("identity.Resolver.CurrentTravelerForTrip: %w", err)
	}

	b, err := r.bindings.Current(ctx, deviceID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Traveler{}, false, nil
	}
	if err != nil {
		return domain.Traveler{}, false, fmt.Errorf("identity.Resolver.CurrentTravelerForTrip: %w", err)
	}
	if b.TripID != tripID {
		return domain.Traveler{}, false, nil
	}

	tr, ok := trip.Traveler(b.TravelerID)
	return tr, ok, nil
}

// SetCurrentTraveler binds the device to traveler, replacing any binding it
// had on another trip. A nil traveler clears the binding.
// Returns domain.ErrNotFound if the trip or the traveler does not exist.
func (r *Resolver) SetCurrentTraveler(ctx context.Context, traveler *domain.Traveler) error {
	deviceID, ok := device.IDFrom(ctx)
	if !ok {
		return ErrNoDevice
	}

	if traveler == nil {
		if err := r.bindings.ClearCurrent(ctx, deviceID); err != nil {
			return fmt.Errorf("identity.Resolver.SetCurrentTraveler: %w", err)
		}
		return nil
	}

	trip, err := r.trips.GetTrip(ctx, traveler.TripID)
	if err != nil {
		return fmt.Errorf("identity.Resolver.SetCurrentTraveler: %w", err)
	}
	if _, ok := trip.Traveler(traveler.ID); !ok {
		return fmt.Errorf("identity.Resolver.SetCurrentTraveler: %w", &domain.NotFoundError{Entity: "traveler"})
	}

	err = r.bindings.SetCurrent(ctx, domain.Binding{
		DeviceID:   deviceID,
		TripID:     trip.ID,
		TravelerID: traveler.ID,
		BoundAt:    r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("identity.Resolver.SetCurrentTraveler: %w", err)
	}
	return nil
}

// ResetUserForTesting forgets everything about the device, so its next join
// on any trip creates a new traveler. It exists to simulate a fresh browser
// profile during manual testing.
func (r *Resolver) ResetUserForTesting(ctx context.Context) error {
	deviceID, ok := device.IDFrom(ctx)
	if !ok {
		return ErrNoDevice
	}
	if err := r.bindings.Reset(ctx, deviceID); err != nil {
		return fmt.Errorf("identity.Resolver.ResetUserForTesting: %w", err)
	}
	return nil
}
