package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripmate/internal/device"
	"github.com/pkordes/tripmate/internal/domain"
	"github.com/pkordes/tripmate/internal/repo"
	"github.com/pkordes/tripmate/internal/service"
)

// slowBindingRepo delays every SetCurrent so concurrent joins overlap the
// binding write.
type slowBindingRepo struct {
	repo.BindingRepo
	delay time.Duration
}

func (r *slowBindingRepo) SetCurrent(ctx context.Context, b domain.Binding) error {
	time.Sleep(r.delay)
	return r.BindingRepo.SetCurrent(ctx, b)
}

func TestTripService_JoinTrip_NameLength(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, ctx)

	tr, err := f.svc.JoinTrip(ctx, trip.ID, "Al")
	require.NoError(t, err)
	assert.Equal(t, "Al", tr.Name)
	assert.False(t, tr.IsOwner)

	_, err = f.svc.JoinTrip(ctx, trip.ID, "A")
	assertField(t, err, "name")

	_, err = f.svc.JoinTrip(ctx, trip.ID, "  A  ")
	assertField(t, err, "name")

	// Name length counts characters, not bytes.
	_, err = f.svc.JoinTrip(ctx, trip.ID, "李")
	assertField(t, err, "name")

	assert.Len(t, f.stored(t, trip.ID).Travelers, 2)
}

func TestTripService_JoinTrip_UnknownTrip(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.JoinTrip(context.Background(), uuid.New(), "Bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripService_JoinTrip_BindsDevice(t *testing.T) {
	f := newFixture(t)
	trip := f.createTrip(t, context.Background())
	ctx := device.WithID(context.Background(), "phone")

	tr, err := f.svc.JoinTrip(ctx, trip.ID, "Bob")
	require.NoError(t, err)

	b, err := f.bindings.Current(ctx, "phone")
	require.NoError(t, err)
	assert.Equal(t, trip.ID, b.TripID)
	assert.Equal(t, tr.ID, b.TravelerID)
}

func TestTripService_JoinTrip_SameDeviceResumes(t *testing.T) {
	f := newFixture(t)
	trip := f.createTrip(t, context.Background())
	ctx := device.WithID(context.Background(), "phone")

	first, err := f.svc.JoinTrip(ctx, trip.ID, "Bob")
	require.NoError(t, err)
	again, err := f.svc.JoinTrip(ctx, trip.ID, "Bobby")
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Bobby", again.Name, "name is refreshed")
	assert.Len(t, f.stored(t, trip.ID).Travelers, 2, "no duplicate traveler")
}

func TestTripService_JoinTrip_ConcurrentSameDevice(t *testing.T) {
	trips := repo.NewMemoryTripRepo()
	bindings := &slowBindingRepo{BindingRepo: repo.NewMemoryBindingRepo(), delay: 5 * time.Millisecond}
	svc := service.NewTripService(trips, bindings)
	trip, err := svc.CreateTrip(context.Background(), "Lisbon", june1, june3, "Alice")
	require.NoError(t, err)
	ctx := device.WithID(context.Background(), "guest-device")

	const n = 4
	ids := make([]uuid.UUID, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := svc.JoinTrip(ctx, trip.ID, "Al")
			assert.NoError(t, err)
			ids[i] = tr.ID
		}()
	}
	wg.Wait()

	stored, err := trips.GetByID(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Travelers, 2, "one owner and a single guest")
	for _, id := range ids {
		assert.Equal(t, ids[0], id, "every join resumes the same traveler")
	}
	b, err := bindings.Current(context.Background(), "guest-device")
	require.NoError(t, err)
	assert.Equal(t, ids[0], b.TravelerID)
}

// A leave racing a join from the same device must leave the binding in step
// with the trip: bound exactly when the traveler is still on it.
func TestTripService_LeaveRacingJoinKeepsBindingConsistent(t *testing.T) {
	trips := repo.NewMemoryTripRepo()
	bindings := &slowBindingRepo{BindingRepo: repo.NewMemoryBindingRepo(), delay: time.Millisecond}
	svc := service.NewTripService(trips, bindings)
	trip, err := svc.CreateTrip(context.Background(), "Lisbon", june1, june3, "Alice")
	require.NoError(t, err)
	ctx := device.WithID(context.Background(), "phone")
	guest, err := svc.JoinTrip(ctx, trip.ID, "Bob")
	require.NoError(t, err)

	for range 10 {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.LeaveTrip(ctx, trip.ID, guest.ID))
		}()
		go func() {
			defer wg.Done()
			_, err := svc.JoinTrip(ctx, trip.ID, "Bob")
			assert.NoError(t, err)
		}()
		wg.Wait()

		stored, err := trips.GetByID(context.Background(), trip.ID)
		require.NoError(t, err)
		_, onTrip := stored.Traveler(guest.ID)
		b, err := bindings.Current(context.Background(), "phone")
		if onTrip {
			require.NoError(t, err, "traveler on the trip keeps the device bound")
			assert.Equal(t, guest.ID, b.TravelerID)
		} else {
			assert.ErrorIs(t, err, domain.ErrNotFound, "departed traveler leaves the device unbound")
		}
	}
}

func TestTripService_JoinTrip_WithoutDeviceAlwaysNew(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, ctx)

	a, err := f.svc.JoinTrip(ctx, trip.ID, "Bob")
	require.NoError(t, err)
	b, err := f.svc.JoinTrip(ctx, trip.ID, "Bob")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestTripService_LeaveTrip(t *testing.T) {
	f := newFixture(t)
	trip := f.createTrip(t, context.Background())
	ctx := device.WithID(context.Background(), "phone")
	guest, err := f.svc.JoinTrip(ctx, trip.ID, "Bob")
	require.NoError(t, err)

	require.NoError(t, f.svc.LeaveTrip(ctx, trip.ID, guest.ID))

	_, ok := f.stored(t, trip.ID).Traveler(guest.ID)
	assert.False(t, ok)
	_, err = f.bindings.Current(ctx, "phone")
	assert.ErrorIs(t, err, domain.ErrNotFound, "binding to the removed traveler is cleared")

	assert.NoError(t, f.svc.LeaveTrip(ctx, trip.ID, guest.ID), "leaving twice is a no-op")
}

func TestTripService_LeaveTrip_OtherDeviceBindingKept(t *testing.T) {
	f := newFixture(t)
	trip := f.createTrip(t, context.Background())
	phone := device.WithID(context.Background(), "phone")
	laptop := device.WithID(context.Background(), "laptop")
	bob, err := f.svc.JoinTrip(phone, trip.ID, "Bob")
	require.NoError(t, err)
	carol, err := f.svc.JoinTrip(laptop, trip.ID, "Carol")
	require.NoError(t, err)

	// The phone removes Carol; the laptop stays bound to her, the phone to Bob.
	require.NoError(t, f.svc.LeaveTrip(phone, trip.ID, carol.ID))

	b, err := f.bindings.Current(phone, "phone")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, b.TravelerID)
	b, err = f.bindings.Current(laptop, "laptop")
	require.NoError(t, err)
	assert.Equal(t, carol.ID, b.TravelerID)
}

func TestTripService_LeaveTrip_OwnerRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, ctx)
	owner := trip.Travelers[0]

	err := f.svc.LeaveTrip(ctx, trip.ID, owner.ID)

	assertField(t, err, "traveler_id")
	got, ok := f.stored(t, trip.ID).Owner()
	require.True(t, ok, "the owner always remains")
	assert.Equal(t, owner.ID, got.ID)
}

// Leaving and rejoining from the same device keeps the traveler id, every
// activity, and every participant set.
func TestTripService_LeaveAndRejoinRoundTrip(t *testing.T) {
	f := newFixture(t)
	trip := f.createTrip(t, context.Background())
	ctx := device.WithID(context.Background(), "phone")
	owner := trip.Travelers[0]

	guest, err := f.svc.JoinTrip(ctx, trip.ID, "Bob")
	require.NoError(t, err)
	for day := range 3 {
		for _, title := range []string{"Breakfast", "Museum"} {
			a, err := f.svc.AddActivity(ctx, trip.ID, domain.ActivityInput{Title: title, DayIndex: day, Cost: ptr(10.0)})
			require.NoError(t, err)
			_, err = f.svc.JoinActivity(ctx, trip.ID, a.ID, owner.ID)
			require.NoError(t, err)
			if day != 1 {
				_, err = f.svc.JoinActivity(ctx, trip.ID, a.ID, guest.ID)
				require.NoError(t, err)
			}
		}
	}
	before := f.stored(t, trip.ID)

	require.NoError(t, f.svc.LeaveTrip(ctx, trip.ID, guest.ID))
	back, err := f.svc.JoinTrip(ctx, trip.ID, "Bob")
	require.NoError(t, err)

	assert.Equal(t, guest.ID, back.ID)
	after := f.stored(t, trip.ID)
	require.Len(t, after.Activities, len(before.Activities))
	for i := range before.Activities {
		assert.Equal(t, before.Activities[i].ID, after.Activities[i].ID)
		assert.Equal(t, before.Activities[i].Participants, after.Activities[i].Participants)
	}
	_, ok := after.Traveler(guest.ID)
	assert.True(t, ok)
}

func TestTripService_GetTravelerCosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, ctx)
	me := trip.Travelers[0]
	friend, err := f.svc.JoinTrip(ctx, trip.ID, "Bob")
	require.NoError(t, err)

	shared, err := f.svc.AddActivity(ctx, trip.ID, domain.ActivityInput{Title: "Dinner", Cost: ptr(30.0)})
	require.NoError(t, err)
	free, err := f.svc.AddActivity(ctx, trip.ID, domain.ActivityInput{Title: "Walk", Cost: ptr(0.0)})
	require.NoError(t, err)
	_, err = f.svc.AddActivity(ctx, trip.ID, domain.ActivityInput{Title: "Nobody goes", Cost: ptr(99.0)})
	require.NoError(t, err)

	for _, id := range []uuid.UUID{me.ID, friend.ID} {
		_, err = f.svc.JoinActivity(ctx, trip.ID, shared.ID, id)
		require.NoError(t, err)
	}
	_, err = f.svc.JoinActivity(ctx, trip.ID, free.ID, me.ID)
	require.NoError(t, err)

	total, err := f.svc.GetTravelerCosts(ctx, trip.ID, me.ID)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, total, 1e-9)

	_, err = f.svc.GetTravelerCosts(ctx, trip.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripService_GetTravelerCosts_DepartedTraveler(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, ctx)
	guest, err := f.svc.JoinTrip(ctx, trip.ID, "Bob")
	require.NoError(t, err)
	a, err := f.svc.AddActivity(ctx, trip.ID, domain.ActivityInput{Title: "Boat", Cost: ptr(40.0)})
	require.NoError(t, err)
	_, err = f.svc.JoinActivity(ctx, trip.ID, a.ID, guest.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.LeaveTrip(ctx, trip.ID, guest.ID))

	total, err := f.svc.GetTravelerCosts(ctx, trip.ID, guest.ID)

	require.NoError(t, err, "still listed on the activity")
	assert.InDelta(t, 40.0, total, 1e-9)
}
