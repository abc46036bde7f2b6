package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/tripmate/internal/device"
	"github.com/pkordes/tripmate/internal/domain"
)

// JoinTrip adds a guest traveler and binds the calling device to it.
//
// A device that joined this trip before resumes as the same traveler: the id
// is reused and the name refreshed, and a traveler who had left is added back
// under that id. Without a device id in ctx every call creates a new traveler.
// Returns domain.ErrValidation if the name is shorter than
// domain.MinTravelerNameLength, domain.ErrNotFound if the trip does not exist.
func (s *TripService) JoinTrip(ctx context.Context, tripID uuid.UUID, name string) (domain.Traveler, error) {
	name = strings.TrimSpace(name)
	if err := validateTravelerName("name", name); err != nil {
		return domain.Traveler{}, fmt.Errorf("service.TripService.JoinTrip: %w", err)
	}
	ctx = context.WithoutCancel(ctx)

	var joined domain.Traveler
	_, err := s.mutateThen(ctx, tripID, func(t *domain.Trip) (bool, error) {
		remembered, ok, err := s.remembered(ctx, tripID)
		if err != nil {
			return false, err
		}
		if ok {
			if existing, found := t.Traveler(remembered); found {
				joined = existing
				if existing.Name == name {
					return false, nil
				}
				joined.Name = name
				for i := range t.Travelers {
					if t.Travelers[i].ID == remembered {
						t.Travelers[i].Name = name
					}
				}
				return true, nil
			}
		}

		id := remembered
		if !ok {
			id = s.newID()
		}
		joined = domain.Traveler{
			ID:       id,
			TripID:   t.ID,
			Name:     name,
			JoinedAt: s.timestamp(),
		}
		t.Travelers = append(t.Travelers, joined)
		return true, nil
	}, func(ctx context.Context) error {
		// Bound under the trip lock so a repeated join from this device
		// sees the binding and resumes instead of adding a second traveler.
		return s.bind(ctx, tripID, joined.ID)
	})
	if err != nil {
		return domain.Traveler{}, fmt.Errorf("service.TripService.JoinTrip: %w", err)
	}

	s.logger.InfoContext(ctx, "traveler joined", "trip_id", tripID, "traveler_id", joined.ID)
	return joined, nil
}

// LeaveTrip removes a guest traveler. The traveler stays listed on the
// activities they joined, so rejoining from the same device restores their
// participation. Leaving as an absent traveler is not an error. If the calling
// device is bound to the traveler, the binding is cleared.
// Returns domain.ErrValidation when travelerID is the owner, domain.ErrNotFound
// if the trip does not exist.
func (s *TripService) LeaveTrip(ctx context.Context, tripID, travelerID uuid.UUID) error {
	ctx = context.WithoutCancel(ctx)

	_, err := s.mutateThen(ctx, tripID, func(t *domain.Trip) (bool, error) {
		tr, ok := t.Traveler(travelerID)
		if !ok {
			return false, nil
		}
		if tr.IsOwner {
			return false, domain.Invalid("traveler_id", "the trip owner cannot leave the trip")
		}
		return t.RemoveTraveler(travelerID), nil
	}, func(ctx context.Context) error {
		return s.unbind(ctx, tripID, travelerID)
	})
	if err != nil {
		return fmt.Errorf("service.TripService.LeaveTrip: %w", err)
	}

	s.logger.InfoContext(ctx, "traveler left", "trip_id", tripID, "traveler_id", travelerID)
	return nil
}

// GetTravelerCosts sums the traveler's share of every activity they take part
// in. Each activity's cost is split evenly among its current participants.
// Returns domain.ErrNotFound if the trip does not exist, or if the traveler is
// neither on the trip nor on any of its activities.
func (s *TripService) GetTravelerCosts(ctx context.Context, tripID, travelerID uuid.UUID) (float64, error) {
	trip, err := s.load(ctx, tripID)
	if err != nil {
		return 0, fmt.Errorf("service.TripService.GetTravelerCosts: %w", err)
	}
	_, known := trip.Traveler(travelerID)
	total := 0.0
	for _, a := range trip.Activities {
		if a.HasParticipant(travelerID) {
			known = true
			total += a.CostShare()
		}
	}
	if !known {
		return 0, fmt.Errorf("service.TripService.GetTravelerCosts: %w", &domain.NotFoundError{Entity: "traveler"})
	}
	return total, nil
}

// remembered returns the traveler the calling device last acted as on tripID.
func (s *TripService) remembered(ctx context.Context, tripID uuid.UUID) (uuid.UUID, bool, error) {
	deviceID, ok := device.IDFrom(ctx)
	if !ok {
		return uuid.Nil, false, nil
	}
	id, err := s.bindings.Remembered(ctx, deviceID, tripID)
	if errors.Is(err, domain.ErrNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

// bind makes travelerID the calling device's current traveler.
// It does nothing when ctx carries no device id.
func (s *TripService) bind(ctx context.Context, tripID, travelerID uuid.UUID) error {
	deviceID, ok := device.IDFrom(ctx)
	if !ok {
		return nil
	}
	return s.bindings.SetCurrent(ctx, domain.Binding{
		DeviceID:   deviceID,
		TripID:     tripID,
		TravelerID: travelerID,
		BoundAt:    s.timestamp(),
	})
}

// unbind clears the calling device's binding if it points at travelerID on tripID.
func (s *TripService) unbind(ctx context.Context, tripID, travelerID uuid.UUID) error {
	deviceID, ok := device.IDFrom(ctx)
	if !ok {
		return nil
	}
	b, err := s.bindings.Current(ctx, deviceID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if b.TripID != tripID || b.TravelerID != travelerID {
		return nil
	}
	return s.bindings.ClearCurrent(ctx, deviceID)
}
