package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/pkordes/tripmate/internal/domain"
)

// AddActivity handles POST /trips/{tripID}/activities.
func (s *Server) AddActivity(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body CreateActivityRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.DayIndex == nil {
		s.writeError(w, r, unprocessable("day_index", "day_index is required"))
		return
	}

	a, err := s.trips.AddActivity(r.Context(), tripID, requestToActivityInput(body))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, activityToResponse(a))
}

// UpdateActivity handles PATCH /trips/{tripID}/activities/{activityID}.
// Sending "cost": null removes the cost.
func (s *Server) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	ids, err := pathUUIDs(r, "tripID", "activityID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body UpdateActivityRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	patch, err := requestToActivityPatch(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.trips.UpdateActivity(r.Context(), ids[0], ids[1], patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activityToResponse(a))
}

// DeleteActivity handles DELETE /trips/{tripID}/activities/{activityID}.
func (s *Server) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	ids, err := pathUUIDs(r, "tripID", "activityID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.trips.DeleteActivity(r.Context(), ids[0], ids[1]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// JoinActivity handles PUT /trips/{tripID}/activities/{activityID}/participants/{travelerID}.
func (s *Server) JoinActivity(w http.ResponseWriter, r *http.Request) {
	ids, err := pathUUIDs(r, "tripID", "activityID", "travelerID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.trips.JoinActivity(r.Context(), ids[0], ids[1], ids[2])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activityToResponse(a))
}

// LeaveActivity handles DELETE /trips/{tripID}/activities/{activityID}/participants/{travelerID}.
func (s *Server) LeaveActivity(w http.ResponseWriter, r *http.Request) {
	ids, err := pathUUIDs(r, "tripID", "activityID", "travelerID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.trips.LeaveActivity(r.Context(), ids[0], ids[1], ids[2])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activityToResponse(a))
}

// GetActivitiesForDay handles GET /trips/{tripID}/days/{dayIndex}/activities.
func (s *Server) GetActivitiesForDay(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	day, err := pathInt(r, "dayIndex")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	activities, err := s.trips.GetActivitiesForDay(r.Context(), tripID, day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activitiesToResponse(activities))
}

// --- mapping helpers --------------------------------------------------------

func requestToActivityInput(body CreateActivityRequest) domain.ActivityInput {
	in := domain.ActivityInput{
		Title:    body.Title,
		Cost:     body.Cost,
		DayIndex: *body.DayIndex,
	}
	if body.Description != nil {
		in.Description = *body.Description
	}
	if body.Location != nil {
		in.Location = *body.Location
	}
	if body.Notes != nil {
		in.Notes = *body.Notes
	}
	return in
}

var jsonNull = []byte("null")

func requestToActivityPatch(body UpdateActivityRequest) (domain.ActivityPatch, error) {
	p := domain.ActivityPatch{
		Title:       body.Title,
		Description: body.Description,
		Location:    body.Location,
		Notes:       body.Notes,
		DayIndex:    body.DayIndex,
	}
	switch {
	case len(body.Cost) == 0:
	case bytes.Equal(bytes.TrimSpace(body.Cost), jsonNull):
		p.ClearCost = true
	default:
		var cost float64
		if err := json.Unmarshal(body.Cost, &cost); err != nil {
			return domain.ActivityPatch{}, unprocessable("cost", "cost must be a number or null")
		}
		p.Cost = &cost
	}
	return p, nil
}

// activityToResponse converts a domain.Activity into its wire form.
// Empty optional strings are omitted.
func activityToResponse(a domain.Activity) Activity {
	resp := Activity{
		Id:            a.ID,
		TripId:        a.TripID,
		Title:         a.Title,
		Cost:          a.Cost,
		CostPerPerson: a.CostShare(),
		DayIndex:      a.DayIndex,
		Participants:  append([]uuid.UUID{}, a.Participants...),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if a.Description != "" {
		resp.Description = &a.Description
	}
	if a.Location != "" {
		resp.Location = &a.Location
	}
	if a.Notes != "" {
		resp.Notes = &a.Notes
	}
	return resp
}

// activitiesToResponse always returns a non-nil slice so the JSON body is [].
func activitiesToResponse(in []domain.Activity) []Activity {
	out := make([]Activity, len(in))
	for i, a := range in {
		out[i] = activityToResponse(a)
	}
	return out
}
