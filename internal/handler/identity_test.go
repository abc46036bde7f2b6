package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripmate/internal/domain"
	"github.com/pkordes/tripmate/internal/handler"
	"github.com/pkordes/tripmate/internal/identity"
)

func newIdentityHandler(id handler.IdentityResolver, opts ...handler.Option) http.Handler {
	return handler.NewServer(nil, nil, id, nil, opts...).Routes()
}

func TestGetCurrentTraveler(t *testing.T) {
	tripID := uuid.New()
	bound := domain.Traveler{ID: uuid.New(), TripID: tripID, Name: "Ana", IsOwner: true}

	t.Run("bound device", func(t *testing.T) {
		res := &mockIdentityResolver{
			current: func(context.Context, uuid.UUID) (domain.Traveler, bool, error) { return bound, true, nil },
		}
		rec := serve(newIdentityHandler(res), http.MethodGet, "/trips/"+tripID.String()+"/me", nil, "phone-1")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp handler.CurrentTraveler
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.NotNil(t, resp.Traveler)
		assert.Equal(t, bound.ID, resp.Traveler.Id)
	})

	t.Run("unbound device gets null", func(t *testing.T) {
		res := &mockIdentityResolver{
			current: func(context.Context, uuid.UUID) (domain.Traveler, bool, error) { return domain.Traveler{}, false, nil },
		}
		rec := serve(newIdentityHandler(res), http.MethodGet, "/trips/"+tripID.String()+"/me", nil, "phone-1")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"trip_id":"`+tripID.String()+`","traveler":null}`, rec.Body.String())
	})

	t.Run("missing device header", func(t *testing.T) {
		rec := serve(newIdentityHandler(&mockIdentityResolver{}), http.MethodGet, "/trips/"+tripID.String()+"/me", nil, "")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "missing_device", decodeError(t, rec).Code)
	})

	t.Run("unknown trip", func(t *testing.T) {
		res := &mockIdentityResolver{
			current: func(context.Context, uuid.UUID) (domain.Traveler, bool, error) {
				return domain.Traveler{}, false, &domain.NotFoundError{Entity: "trip"}
			},
		}
		rec := serve(newIdentityHandler(res), http.MethodGet, "/trips/"+tripID.String()+"/me", nil, "phone-1")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSetCurrentTraveler_204(t *testing.T) {
	tripID, travelerID := uuid.New(), uuid.New()
	var got *domain.Traveler
	res := &mockIdentityResolver{
		set: func(_ context.Context, tr *domain.Traveler) error {
			got = tr
			return nil
		},
	}

	rec := serve(newIdentityHandler(res), http.MethodPut, "/me",
		jsonBody(t, map[string]any{"trip_id": tripID, "traveler_id": travelerID}), "phone-1")

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, tripID, got.TripID)
	assert.Equal(t, travelerID, got.ID)
}

func TestSetCurrentTraveler_404_UnknownTraveler(t *testing.T) {
	res := &mockIdentityResolver{
		set: func(context.Context, *domain.Traveler) error { return &domain.NotFoundError{Entity: "traveler"} },
	}

	rec := serve(newIdentityHandler(res), http.MethodPut, "/me",
		jsonBody(t, map[string]any{"trip_id": uuid.New(), "traveler_id": uuid.New()}), "phone-1")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "traveler not found", decodeError(t, rec).Message)
}

func TestClearCurrentTraveler(t *testing.T) {
	res := &mockIdentityResolver{
		set: func(ctx context.Context, tr *domain.Traveler) error {
			assert.Nil(t, tr)
			return identity.ErrNoDevice
		},
	}

	rec := serve(newIdentityHandler(res), http.MethodDelete, "/me", nil, "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_device", decodeError(t, rec).Code)
}

func TestResetIdentity_OnlyWithDebugRoutes(t *testing.T) {
	reset := 0
	res := &mockIdentityResolver{
		reset: func(context.Context) error {
			reset++
			return nil
		},
	}

	rec := serve(newIdentityHandler(res), http.MethodDelete, "/me/identity", nil, "phone-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, reset)

	rec = serve(newIdentityHandler(res, handler.WithDebugRoutes(true)), http.MethodDelete, "/me/identity", nil, "phone-1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, reset)
}
