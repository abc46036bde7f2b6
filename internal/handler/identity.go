package handler

import (
	"net/http"

	"github.com/pkordes/tripmate/internal/device"
	"github.com/pkordes/tripmate/internal/domain"
	"github.com/pkordes/tripmate/internal/identity"
)

// GetCurrentTraveler handles GET /trips/{tripID}/me.
// A device with no traveler on the trip gets 200 with "traveler": null.
func (s *Server) GetCurrentTraveler(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := requireDevice(r); err != nil {
		s.writeError(w, r, err)
		return
	}

	tr, ok, err := s.identity.CurrentTravelerForTrip(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := CurrentTraveler{TripId: tripID}
	if ok {
		t := travelerToResponse(tr)
		resp.Traveler = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetCurrentTraveler handles PUT /me.
func (s *Server) SetCurrentTraveler(w http.ResponseWriter, r *http.Request) {
	if err := requireDevice(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	var body SetCurrentTravelerRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	traveler := &domain.Traveler{ID: body.TravelerId, TripID: body.TripId}
	if err := s.identity.SetCurrentTraveler(r.Context(), traveler); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearCurrentTraveler handles DELETE /me.
func (s *Server) ClearCurrentTraveler(w http.ResponseWriter, r *http.Request) {
	if err := s.identity.SetCurrentTraveler(r.Context(), nil); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetIdentity handles DELETE /me/identity. It is mounted only when debug
// routes are enabled.
func (s *Server) ResetIdentity(w http.ResponseWriter, r *http.Request) {
	if err := s.identity.ResetUserForTesting(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireDevice rejects requests that carry no device id before any
// parsing or lookup happens.
func requireDevice(r *http.Request) error {
	if _, ok := device.IDFrom(r.Context()); !ok {
		return identity.ErrNoDevice
	}
	return nil
}
