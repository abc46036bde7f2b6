package handler

import (
	"net/http"
)

// JoinTrip handles POST /trips/{tripID}/travelers.
// The calling device is bound to the returned traveler.
func (s *Server) JoinTrip(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body JoinTripRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	tr, err := s.trips.JoinTrip(r.Context(), tripID, body.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, travelerToResponse(tr))
}

// LeaveTrip handles DELETE /trips/{tripID}/travelers/{travelerID}.
func (s *Server) LeaveTrip(w http.ResponseWriter, r *http.Request) {
	ids, err := pathUUIDs(r, "tripID", "travelerID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.trips.LeaveTrip(r.Context(), ids[0], ids[1]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTravelerCosts handles GET /trips/{tripID}/travelers/{travelerID}/cost.
func (s *Server) GetTravelerCosts(w http.ResponseWriter, r *http.Request) {
	ids, err := pathUUIDs(r, "tripID", "travelerID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	total, err := s.trips.GetTravelerCosts(r.Context(), ids[0], ids[1])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TravelerCost{TripId: ids[0], TravelerId: ids[1], Total: total})
}
