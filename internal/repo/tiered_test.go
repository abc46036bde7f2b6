package repo_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripmate/internal/domain"
	"github.com/pkordes/tripmate/internal/repo"
)

// stubTripRepo is a hand-written test double for repo.TripRepo.
// Each method is a function field; set only the ones your test needs.
type stubTripRepo struct {
	getByID func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	list    func(ctx context.Context) ([]domain.Trip, error)
	save    func(ctx context.Context, trip domain.Trip) error
	delete  func(ctx context.Context, id uuid.UUID) error
}

func (m *stubTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *stubTripRepo) List(ctx context.Context) ([]domain.Trip, error) { return m.list(ctx) }
func (m *stubTripRepo) Save(ctx context.Context, trip domain.Trip) error {
	return m.save(ctx, trip)
}
func (m *stubTripRepo) Delete(ctx context.Context, id uuid.UUID) error { return m.delete(ctx, id) }

var _ repo.TripRepo = (*stubTripRepo)(nil)

var base = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

func TestTieredTripRepo_Contract(t *testing.T) {
	runTripRepoContract(t, func(*testing.T) repo.TripRepo {
		return repo.NewTieredTripRepo(repo.NewMemoryTripRepo(), repo.NewMemoryTripRepo())
	})
}

func TestTieredTripRepo_NoDurable(t *testing.T) {
	runTripRepoContract(t, func(*testing.T) repo.TripRepo {
		return repo.NewTieredTripRepo(repo.NewMemoryTripRepo(), nil)
	})
}

func TestTieredTripRepo_PrimaryWins(t *testing.T) {
	ctx := context.Background()
	primary, durable := repo.NewMemoryTripRepo(), repo.NewMemoryTripRepo()
	r := repo.NewTieredTripRepo(primary, durable)

	trip := tripFixture(base)
	stale := trip.Clone()
	stale.Name = "stale shared copy"
	require.NoError(t, durable.Save(ctx, stale))
	require.NoError(t, primary.Save(ctx, trip))

	got, err := r.GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", got.Name)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1, "same id in both tiers is listed once")
	assert.Equal(t, "Lisbon", list[0].Name)
}

func TestTieredTripRepo_FallsBackToDurable(t *testing.T) {
	ctx := context.Background()
	primary, durable := repo.NewMemoryTripRepo(), repo.NewMemoryTripRepo()
	r := repo.NewTieredTripRepo(primary, durable)

	shared := tripFixture(base)
	shared.Shared = true
	require.NoError(t, durable.Save(ctx, shared))
	local := tripFixture(base.Add(time.Hour))
	require.NoError(t, primary.Save(ctx, local))

	got, err := r.GetByID(ctx, shared.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.ID, got.ID)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, local.ID, list[0].ID, "merged list stays newest first")
}

func TestTieredTripRepo_PrimaryFailureDoesNotFallBack(t *testing.T) {
	boom := errors.New("primary down")
	durableCalled := false
	r := repo.NewTieredTripRepo(
		&stubTripRepo{getByID: func(context.Context, uuid.UUID) (domain.Trip, error) {
			return domain.Trip{}, boom
		}},
		&stubTripRepo{getByID: func(context.Context, uuid.UUID) (domain.Trip, error) {
			durableCalled = true
			return domain.Trip{}, nil
		}},
	)

	_, err := r.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, boom)
	assert.False(t, durableCalled)
}

func TestTieredTripRepo_CollapsesConcurrentMisses(t *testing.T) {
	trip := tripFixture(base)
	var calls atomic.Int32
	release := make(chan struct{})

	r := repo.NewTieredTripRepo(
		repo.NewMemoryTripRepo(),
		&stubTripRepo{getByID: func(context.Context, uuid.UUID) (domain.Trip, error) {
			calls.Add(1)
			<-release
			return trip, nil
		}},
	)

	const callers = 8
	results := make([]domain.Trip, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.GetByID(context.Background(), trip.ID)
			assert.NoError(t, err)
			results[i] = got
		}()
	}
	// Give every caller time to join the in-flight lookup.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	results[0].Activities[0].Participants[0] = uuid.New()
	assert.Equal(t, trip.Activities[0].Participants[0], results[1].Activities[0].Participants[0],
		"each caller gets its own copy")
}

func TestTieredTripRepo_SaveOrdering(t *testing.T) {
	ctx := context.Background()
	var order []string
	record := func(name string, err error) *stubTripRepo {
		return &stubTripRepo{save: func(context.Context, domain.Trip) error {
			order = append(order, name)
			return err
		}}
	}

	t.Run("private trips stay in the primary", func(t *testing.T) {
		order = nil
		r := repo.NewTieredTripRepo(record("primary", nil), record("durable", nil))
		require.NoError(t, r.Save(ctx, tripFixture(base)))
		assert.Equal(t, []string{"primary"}, order)
	})

	t.Run("shared trips go durable first", func(t *testing.T) {
		order = nil
		r := repo.NewTieredTripRepo(record("primary", nil), record("durable", nil))
		trip := tripFixture(base)
		trip.Shared = true
		require.NoError(t, r.Save(ctx, trip))
		assert.Equal(t, []string{"durable", "primary"}, order)
	})

	t.Run("durable failure skips the primary", func(t *testing.T) {
		order = nil
		boom := errors.New("durable down")
		r := repo.NewTieredTripRepo(record("primary", nil), record("durable", boom))
		trip := tripFixture(base)
		trip.Shared = true
		err := r.Save(ctx, trip)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"durable"}, order)
	})
}

func TestTieredTripRepo_DeleteFromEveryTier(t *testing.T) {
	ctx := context.Background()
	primary, durable := repo.NewMemoryTripRepo(), repo.NewMemoryTripRepo()
	r := repo.NewTieredTripRepo(primary, durable)

	onlyDurable := tripFixture(base)
	require.NoError(t, durable.Save(ctx, onlyDurable))
	require.NoError(t, r.Delete(ctx, onlyDurable.ID), "a trip in any tier counts as found")

	both := tripFixture(base)
	require.NoError(t, primary.Save(ctx, both))
	require.NoError(t, durable.Save(ctx, both))
	require.NoError(t, r.Delete(ctx, both.ID))

	_, err := durable.GetByID(ctx, both.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, both.ID), domain.ErrNotFound)
}

func TestTieredTripRepo_DeleteDurableFailureKeepsPrimary(t *testing.T) {
	ctx := context.Background()
	primary := repo.NewMemoryTripRepo()
	boom := errors.New("durable down")
	r := repo.NewTieredTripRepo(primary, &stubTripRepo{
		delete: func(context.Context, uuid.UUID) error { return boom },
	})

	trip := tripFixture(base)
	require.NoError(t, primary.Save(ctx, trip))

	assert.ErrorIs(t, r.Delete(ctx, trip.ID), boom)
	_, err := primary.GetByID(ctx, trip.ID)
	assert.NoError(t, err, "primary copy survives a failed durable delete")
}

func TestTieredTripRepo_SharedLookupIgnoresCallerCancellation(t *testing.T) {
	trip := tripFixture(base)
	started := make(chan struct{})
	release := make(chan struct{})

	r := repo.NewTieredTripRepo(
		repo.NewMemoryTripRepo(),
		&stubTripRepo{getByID: func(ctx context.Context, _ uuid.UUID) (domain.Trip, error) {
			close(started)
			<-release
			if err := ctx.Err(); err != nil {
				return domain.Trip{}, err
			}
			return trip, nil
		}},
	)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := r.GetByID(first, trip.ID)
		firstErr <- err
	}()
	<-started

	waiter := make(chan error, 1)
	go func() {
		_, err := r.GetByID(context.Background(), trip.ID)
		waiter <- err
	}()
	// Give the second caller time to join the in-flight lookup.
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(release)

	assert.NoError(t, <-firstErr)
	assert.NoError(t, <-waiter, "a cancelled caller does not fail the others")
}
