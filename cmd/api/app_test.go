package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripmate/internal/config"
	"github.com/pkordes/tripmate/internal/handler"
)

func testConfig(localDB string) config.Config {
	return config.Config{
		Port:          "0",
		LocalDBPath:   localDB,
		LogLevel:      "error",
		CORSOrigins:   []string{"http://localhost:5173"},
		PublicBaseURL: "https://tripmate.example",
		MaxBodyBytes:  4096,
	}
}

func newTestApp(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	a, err := newApp(t.Context(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a.handler
}

func call(t *testing.T, h http.Handler, method, path, deviceID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if deviceID != "" {
		req.Header.Set("X-Device-ID", deviceID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

// TestApp_GroupTripFlow drives a trip from creation through sharing, a guest
// joining, and cost splitting, against each local store.
func TestApp_GroupTripFlow(t *testing.T) {
	for name, localDB := range map[string]string{"memory": "none", "sqlite": ":memory:"} {
		t.Run(name, func(t *testing.T) {
			h := newTestApp(t, testConfig(localDB))

			rec := call(t, h, http.MethodPost, "/trips", "owner-phone", map[string]any{
				"name": "Lisbon", "start_date": "2025-06-01", "end_date": "2025-06-03", "owner_name": "Ana",
			})
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			trip := decode[handler.Trip](t, rec)
			tripPath := "/trips/" + trip.Id.String()
			owner := trip.Travelers[0]

			rec = call(t, h, http.MethodGet, tripPath+"/me", "owner-phone", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			me := decode[handler.CurrentTraveler](t, rec)
			require.NotNil(t, me.Traveler)
			assert.Equal(t, owner.Id, me.Traveler.Id)

			rec = call(t, h, http.MethodPost, tripPath+"/share", "owner-phone", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			invite := decode[handler.Invite](t, rec)
			assert.Equal(t, "https://tripmate.example/trips/"+trip.Id.String()+"?join=1", invite.Url)

			rec = call(t, h, http.MethodPost, tripPath+"/travelers", "guest-phone", map[string]any{"name": "Bruno"})
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			guest := decode[handler.Traveler](t, rec)

			rec = call(t, h, http.MethodPost, tripPath+"/activities", "owner-phone", map[string]any{
				"title": "Tram 28", "day_index": 1, "cost": 30,
			})
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			activity := decode[handler.Activity](t, rec)
			activityPath := tripPath + "/activities/" + activity.Id.String()

			for _, id := range []string{owner.Id.String(), guest.Id.String()} {
				rec = call(t, h, http.MethodPut, activityPath+"/participants/"+id, "owner-phone", nil)
				require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			}

			rec = call(t, h, http.MethodGet, tripPath+"/travelers/"+guest.Id.String()+"/cost", "guest-phone", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, 15.0, decode[handler.TravelerCost](t, rec).Total)

			rec = call(t, h, http.MethodGet, tripPath+"/days/1/activities", "", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Len(t, decode[[]handler.Activity](t, rec), 1)

			rec = call(t, h, http.MethodGet, tripPath+"/export?format=csv", "", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "Ana|Bruno")

			rec = call(t, h, http.MethodDelete, tripPath+"/travelers/"+owner.Id.String(), "owner-phone", nil)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestApp_RejectsOversizeBody(t *testing.T) {
	h := newTestApp(t, testConfig("none"))

	req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader(strings.Repeat("x", 5000)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestApp_DebugRoutesAreOptIn(t *testing.T) {
	cfg := testConfig("none")
	assert.Equal(t, http.StatusNotFound, call(t, newTestApp(t, cfg), http.MethodDelete, "/me/identity", "phone", nil).Code)

	cfg.EnableDebugRoutes = true
	assert.Equal(t, http.StatusNoContent, call(t, newTestApp(t, cfg), http.MethodDelete, "/me/identity", "phone", nil).Code)
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmd := rootCommand()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "migrate")
}

func TestMigrateCommand_RejectsBothDirections(t *testing.T) {
	cmd := rootCommand()
	cmd.SetArgs([]string{"migrate", "--up", "--down", "--env-file", "does-not-exist.env"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")
}
