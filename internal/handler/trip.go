package handler

import (
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/tripmate/internal/domain"
)

// CreateTrip handles POST /trips.
// The calling device becomes the trip owner.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body CreateTripRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := requireDates(body.StartDate, body.EndDate); err != nil {
		s.writeError(w, r, err)
		return
	}

	trip, err := s.trips.CreateTrip(r.Context(), body.Name, body.StartDate.Time, body.EndDate.Time, body.OwnerName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(trip))
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	params := domain.NewPaginationParams(page, limit)
	trips, total, err := s.trips.ListTrips(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := make([]Trip, len(trips))
	for i, t := range trips {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, TripList{
		Data: data,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	trip, err := s.trips.GetTrip(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// UpdateTrip handles PATCH /trips/{tripID}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body UpdateTripRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	trip, err := s.trips.UpdateTrip(r.Context(), id, requestToTripPatch(body))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// DeleteTrip handles DELETE /trips/{tripID}. Deleting an unknown trip
// still returns 204.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.trips.DeleteTrip(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetItinerary handles GET /trips/{tripID}/days.
func (s *Server) GetItinerary(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	it, err := s.trips.Itinerary(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itineraryToResponse(it))
}

// GetSummary handles GET /trips/{tripID}/summary.
func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sum, err := s.trips.Summary(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryToResponse(sum))
}

// --- mapping helpers --------------------------------------------------------

// requireDates rejects a create request that omitted either date.
func requireDates(start, end openapi_types.Date) error {
	if start.IsZero() {
		return unprocessable("start_date", "start_date is required")
	}
	if end.IsZero() {
		return unprocessable("end_date", "end_date is required")
	}
	return nil
}

func requestToTripPatch(body UpdateTripRequest) domain.TripPatch {
	var p domain.TripPatch
	if body.Name != nil {
		p.Name = body.Name
	}
	if body.StartDate != nil {
		d := body.StartDate.Time
		p.StartDate = &d
	}
	if body.EndDate != nil {
		d := body.EndDate.Time
		p.EndDate = &d
	}
	return p
}

// tripToResponse converts a domain.Trip into its wire form.
func tripToResponse(t domain.Trip) Trip {
	resp := Trip{
		Id:         t.ID,
		Name:       t.Name,
		StartDate:  openapi_types.Date{Time: t.StartDate},
		EndDate:    openapi_types.Date{Time: t.EndDate},
		DayCount:   t.DayCount(),
		Shared:     t.Shared,
		Travelers:  make([]Traveler, len(t.Travelers)),
		Activities: make([]Activity, len(t.Activities)),
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
	for i, tr := range t.Travelers {
		resp.Travelers[i] = travelerToResponse(tr)
	}
	for i, a := range t.Activities {
		resp.Activities[i] = activityToResponse(a)
	}
	return resp
}

func travelerToResponse(t domain.Traveler) Traveler {
	return Traveler{
		Id:       t.ID,
		TripId:   t.TripID,
		Name:     t.Name,
		IsOwner:  t.IsOwner,
		JoinedAt: t.JoinedAt,
	}
}

func itineraryToResponse(it domain.Itinerary) Itinerary {
	resp := Itinerary{
		TripId:      it.TripID,
		Days:        make([]ItineraryDay, len(it.Days)),
		Unscheduled: activitiesToResponse(it.Unscheduled),
	}
	for i, d := range it.Days {
		resp.Days[i] = ItineraryDay{
			Index:      d.Index,
			Date:       openapi_types.Date{Time: d.Date},
			Weekday:    d.Weekday,
			Activities: activitiesToResponse(d.Activities),
		}
	}
	return resp
}

func summaryToResponse(s domain.TripSummary) TripSummary {
	resp := TripSummary{
		TripId:        s.TripID,
		DayCount:      s.DayCount,
		ActivityCount: s.ActivityCount,
		TotalCost:     s.TotalCost,
		Travelers:     make([]TravelerSummary, len(s.Travelers)),
	}
	for i, t := range s.Travelers {
		resp.Travelers[i] = TravelerSummary{
			TravelerId:    t.TravelerID,
			Name:          t.Name,
			IsOwner:       t.IsOwner,
			ActivityCount: t.ActivityCount,
			Cost:          t.Cost,
		}
	}
	return resp
}

