package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pkordes/tripmate/internal/domain"
)

// tieredTripRepo combines a primary store with an optional durable shared
// store. The primary always wins; the durable tier is consulted only when the
// primary does not have the trip.
type tieredTripRepo struct {
	primary TripRepo
	durable TripRepo // nil when no shared backend is configured
	group   singleflight.Group
}

// NewTieredTripRepo wraps primary and durable into one TripRepo.
// durable may be nil, in which case every call goes to primary only.
func NewTieredTripRepo(primary, durable TripRepo) TripRepo {
	return &tieredTripRepo{primary: primary, durable: durable}
}

func (r *tieredTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	t, err := r.primary.GetByID(ctx, id)
	if err == nil || r.durable == nil || !errors.Is(err, domain.ErrNotFound) {
		return t, err
	}

	// Concurrent misses for the same id share one durable lookup, which
	// must outlive any single caller's cancellation.
	shared := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(id.String(), func() (any, error) {
		return r.durable.GetByID(shared, id)
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.tieredTripRepo.GetByID: %w", err)
	}
	return v.(domain.Trip).Clone(), nil
}

func (r *tieredTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	primary, err := r.primary.List(ctx)
	if err != nil {
		return nil, err
	}
	if r.durable == nil {
		return primary, nil
	}

	durable, err := r.durable.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.tieredTripRepo.List: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(primary))
	for _, t := range primary {
		seen[t.ID] = struct{}{}
	}
	merged := primary
	for _, t := range durable {
		if _, ok := seen[t.ID]; !ok {
			merged = append(merged, t)
		}
	}
	sortNewestFirst(merged)
	return merged, nil
}

// Save writes shared trips to the durable tier first, then the primary.
// A durable failure leaves the primary untouched.
func (r *tieredTripRepo) Save(ctx context.Context, trip domain.Trip) error {
	if trip.Shared && r.durable != nil {
		if err := r.durable.Save(ctx, trip); err != nil {
			return fmt.Errorf("repo.tieredTripRepo.Save: durable: %w", err)
		}
	}
	return r.primary.Save(ctx, trip)
}

// Delete removes the trip from every tier, durable first, so a durable
// failure leaves the primary copy in place. It reports ErrNotFound only when
// no tier had the trip.
func (r *tieredTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	found := false

	if r.durable != nil {
		err := r.durable.Delete(ctx, id)
		switch {
		case err == nil:
			found = true
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("repo.tieredTripRepo.Delete: durable: %w", err)
		}
	}

	err := r.primary.Delete(ctx, id)
	switch {
	case err == nil:
		found = true
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	if !found {
		return fmt.Errorf("repo.tieredTripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}
