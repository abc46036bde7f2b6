package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripmate/internal/device"
	"github.com/pkordes/tripmate/internal/domain"
	"github.com/pkordes/tripmate/internal/handler"
)

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs; calling an unset one panics.
type mockTripServicer struct {
	createTrip          func(ctx context.Context, name string, start, end time.Time, ownerName string) (domain.Trip, error)
	getTrip             func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	listTrips           func(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int, error)
	updateTrip          func(ctx context.Context, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error)
	deleteTrip          func(ctx context.Context, id uuid.UUID) error
	addActivity         func(ctx context.Context, tripID uuid.UUID, in domain.ActivityInput) (domain.Activity, error)
	updateActivity      func(ctx context.Context, tripID, activityID uuid.UUID, patch domain.ActivityPatch) (domain.Activity, error)
	deleteActivity      func(ctx context.Context, tripID, activityID uuid.UUID) error
	joinActivity        func(ctx context.Context, tripID, activityID, travelerID uuid.UUID) (domain.Activity, error)
	leaveActivity       func(ctx context.Context, tripID, activityID, travelerID uuid.UUID) (domain.Activity, error)
	getActivitiesForDay func(ctx context.Context, tripID uuid.UUID, dayIndex int) ([]domain.Activity, error)
	joinTrip            func(ctx context.Context, tripID uuid.UUID, name string) (domain.Traveler, error)
	leaveTrip           func(ctx context.Context, tripID, travelerID uuid.UUID) error
	getTravelerCosts    func(ctx context.Context, tripID, travelerID uuid.UUID) (float64, error)
	itinerary           func(ctx context.Context, id uuid.UUID) (domain.Itinerary, error)
	summary             func(ctx context.Context, id uuid.UUID) (domain.TripSummary, error)
}

func (m *mockTripServicer) CreateTrip(ctx context.Context, name string, start, end time.Time, ownerName string) (domain.Trip, error) {
	return m.createTrip(ctx, name, start, end, ownerName)
}
func (m *mockTripServicer) GetTrip(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getTrip(ctx, id)
}
func (m *mockTripServicer) ListTrips(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int, error) {
	return m.listTrips(ctx, p)
}
func (m *mockTripServicer) UpdateTrip(ctx context.Context, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error) {
	return m.updateTrip(ctx, id, patch)
}
func (m *mockTripServicer) DeleteTrip(ctx context.Context, id uuid.UUID) error {
	return m.deleteTrip(ctx, id)
}
func (m *mockTripServicer) AddActivity(ctx context.Context, tripID uuid.UUID, in domain.ActivityInput) (domain.Activity, error) {
	return m.addActivity(ctx, tripID, in)
}
func (m *mockTripServicer) UpdateActivity(ctx context.Context, tripID, activityID uuid.UUID, patch domain.ActivityPatch) (domain.Activity, error) {
	return m.updateActivity(ctx, tripID, activityID, patch)
}
func (m *mockTripServicer) DeleteActivity(ctx context.Context, tripID, activityID uuid.UUID) error {
	return m.deleteActivity(ctx, tripID, activityID)
}
func (m *mockTripServicer) JoinActivity(ctx context.Context, tripID, activityID, travelerID uuid.UUID) (domain.Activity, error) {
	return m.joinActivity(ctx, tripID, activityID, travelerID)
}
func (m *mockTripServicer) LeaveActivity(ctx context.Context, tripID, activityID, travelerID uuid.UUID) (domain.Activity, error) {
	return m.leaveActivity(ctx, tripID, activityID, travelerID)
}
func (m *mockTripServicer) GetActivitiesForDay(ctx context.Context, tripID uuid.UUID, dayIndex int) ([]domain.Activity, error) {
	return m.getActivitiesForDay(ctx, tripID, dayIndex)
}
func (m *mockTripServicer) JoinTrip(ctx context.Context, tripID uuid.UUID, name string) (domain.Traveler, error) {
	return m.joinTrip(ctx, tripID, name)
}
func (m *mockTripServicer) LeaveTrip(ctx context.Context, tripID, travelerID uuid.UUID) error {
	return m.leaveTrip(ctx, tripID, travelerID)
}
func (m *mockTripServicer) GetTravelerCosts(ctx context.Context, tripID, travelerID uuid.UUID) (float64, error) {
	return m.getTravelerCosts(ctx, tripID, travelerID)
}
func (m *mockTripServicer) Itinerary(ctx context.Context, id uuid.UUID) (domain.Itinerary, error) {
	return m.itinerary(ctx, id)
}
func (m *mockTripServicer) Summary(ctx context.Context, id uuid.UUID) (domain.TripSummary, error) {
	return m.summary(ctx, id)
}

// compile-time check: mockTripServicer must satisfy handler.TripServicer.
var _ handler.TripServicer = (*mockTripServicer)(nil)

type mockExportServicer struct {
	export func(ctx context.Context, tripID uuid.UUID) ([]domain.ExportRow, error)
}

func (m *mockExportServicer) Export(ctx context.Context, tripID uuid.UUID) ([]domain.ExportRow, error) {
	return m.export(ctx, tripID)
}

var _ handler.ExportServicer = (*mockExportServicer)(nil)

type mockIdentityResolver struct {
	current func(ctx context.Context, tripID uuid.UUID) (domain.Traveler, bool, error)
	set     func(ctx context.Context, traveler *domain.Traveler) error
	reset   func(ctx context.Context) error
}

func (m *mockIdentityResolver) CurrentTravelerForTrip(ctx context.Context, tripID uuid.UUID) (domain.Traveler, bool, error) {
	return m.current(ctx, tripID)
}
func (m *mockIdentityResolver) SetCurrentTraveler(ctx context.Context, traveler *domain.Traveler) error {
	return m.set(ctx, traveler)
}
func (m *mockIdentityResolver) ResetUserForTesting(ctx context.Context) error {
	return m.reset(ctx)
}

var _ handler.IdentityResolver = (*mockIdentityResolver)(nil)

type mockSharer struct {
	share func(ctx context.Context, tripID uuid.UUID) (domain.Invite, error)
}

func (m *mockSharer) ShareTrip(ctx context.Context, tripID uuid.UUID) (domain.Invite, error) {
	return m.share(ctx, tripID)
}

var _ handler.Sharer = (*mockSharer)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given trip service mock into its router.
func newHTTPHandler(svc handler.TripServicer) http.Handler {
	return handler.NewServer(svc, nil, nil, nil).Routes()
}

func tripFixture() domain.Trip {
	now := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	id := uuid.New()
	return domain.Trip{
		ID:        id,
		Name:      "Lisbon",
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		CreatedAt: now,
		UpdatedAt: now,
		Travelers: []domain.Traveler{{
			ID: uuid.New(), TripID: id, Name: "Ana", IsOwner: true, JoinedAt: now,
		}},
		Activities: []domain.Activity{},
	}
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// serve runs one request through h and returns the recorder.
// A non-empty deviceID is attached the way the device middleware does it.
func serve(h http.Handler, method, target string, body io.Reader, deviceID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if deviceID != "" {
		req = req.WithContext(device.WithID(req.Context(), deviceID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}
