package handler

import (
	"net/http"
)

// ShareTrip handles POST /trips/{tripID}/share.
// It makes the trip visible to other devices and returns its invite link.
func (s *Server) ShareTrip(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.sharer.ShareTrip(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Invite{TripId: inv.TripID, Url: inv.URL})
}

// ResolveInvite handles GET /invites/resolve?url=.
// A link that does not name a trip is a 422 on the url field.
func (s *Server) ResolveInvite(w http.ResponseWriter, r *http.Request) {
	raw, err := queryString(r, "url", true)
	if err == nil && raw == "" {
		err = badRequest("url", "query parameter url is required")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	target, ok := s.invites(raw)
	if !ok {
		s.writeError(w, r, unprocessable("url", "link does not point at a trip"))
		return
	}
	writeJSON(w, http.StatusOK, InviteTarget{TripId: target.TripID, Join: target.Join})
}
