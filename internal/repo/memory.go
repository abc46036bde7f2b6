package repo

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/tripmate/internal/domain"
)

// memTripRepo is an in-memory TripRepo. Every value crossing the boundary is
// cloned so callers can never alias stored slices.
type memTripRepo struct {
	mu    sync.RWMutex
	trips map[uuid.UUID]domain.Trip
}

// NewMemoryTripRepo constructs an empty in-memory TripRepo.
func NewMemoryTripRepo() TripRepo {
	return &memTripRepo{trips: make(map[uuid.UUID]domain.Trip)}
}

func (r *memTripRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trips[id]
	if !ok {
		return domain.Trip{}, fmt.Errorf("repo.memTripRepo.GetByID: %w", domain.ErrNotFound)
	}
	return t.Clone(), nil
}

func (r *memTripRepo) List(_ context.Context) ([]domain.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Trip, 0, len(r.trips))
	for _, t := range r.trips {
		out = append(out, t.Clone())
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *memTripRepo) Save(_ context.Context, trip domain.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trips[trip.ID] = trip.Clone()
	return nil
}

func (r *memTripRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.trips[id]; !ok {
		return fmt.Errorf("repo.memTripRepo.Delete: %w", domain.ErrNotFound)
	}
	delete(r.trips, id)
	return nil
}

// sortNewestFirst orders trips by CreatedAt descending, breaking ties by ID
// so listings are stable across tiers.
func sortNewestFirst(trips []domain.Trip) {
	slices.SortFunc(trips, func(a, b domain.Trip) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
}

type deviceTrip struct {
	deviceID string
	tripID   uuid.UUID
}

// memBindingRepo is an in-memory BindingRepo.
type memBindingRepo struct {
	mu         sync.Mutex
	current    map[string]domain.Binding
	remembered map[deviceTrip]uuid.UUID
}

// NewMemoryBindingRepo constructs an empty in-memory BindingRepo.
func NewMemoryBindingRepo() BindingRepo {
	return &memBindingRepo{
		current:    make(map[string]domain.Binding),
		remembered: make(map[deviceTrip]uuid.UUID),
	}
}

func (r *memBindingRepo) Current(_ context.Context, deviceID string) (domain.Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.current[deviceID]
	if !ok {
		return domain.Binding{}, fmt.Errorf("repo.memBindingRepo.Current: %w", domain.ErrNotFound)
	}
	return b, nil
}

func (r *memBindingRepo) SetCurrent(_ context.Context, b domain.Binding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current[b.DeviceID] = b
	r.remembered[deviceTrip{b.DeviceID, b.TripID}] = b.TravelerID
	return nil
}

func (r *memBindingRepo) ClearCurrent(_ context.Context, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.current, deviceID)
	return nil
}

func (r *memBindingRepo) Remembered(_ context.Context, deviceID string, tripID uuid.UUID) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.remembered[deviceTrip{deviceID, tripID}]
	if !ok {
		return uuid.Nil, fmt.Errorf("repo.memBindingRepo.Remembered: %w", domain.ErrNotFound)
	}
	return id, nil
}

func (r *memBindingRepo) Reset(_ context.Context, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.current, deviceID)
	for k := range r.remembered {
		if k.deviceID == deviceID {
			delete(r.remembered, k)
		}
	}
	return nil
}
