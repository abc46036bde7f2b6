package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/tripmate/internal/domain"
	"github.com/pkordes/tripmate/internal/repo"
)

// ExportService assembles a flat, denormalised export of one trip's itinerary.
type ExportService struct {
	trips repo.TripRepo
}

// NewExportService constructs an ExportService backed by the provided repo.
func NewExportService(trips repo.TripRepo) *ExportService {
	return &ExportService{trips: trips}
}

// Export returns one ExportRow per activity, ordered by day and then by the
// order activities were added. A trip with no activities yields a single row
// with empty activity fields. Activities on days the trip no longer covers
// come last with an empty Date.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *ExportService) Export(ctx context.Context, tripID uuid.UUID) ([]domain.ExportRow, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", notFoundAs(err, "trip"))
	}
	it, err := buildItinerary(trip)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	header := domain.ExportRow{
		TripID:        trip.ID.String(),
		TripName:      trip.Name,
		TripStartDate: trip.StartDate.Format(domain.DateLayout),
		TripEndDate:   trip.EndDate.Format(domain.DateLayout),
	}
	if len(trip.Activities) == 0 {
		return []domain.ExportRow{header}, nil
	}

	names := make(map[uuid.UUID]string, len(trip.Travelers))
	for _, tr := range trip.Travelers {
		names[tr.ID] = tr.Name
	}
	row := func(a domain.Activity, day *domain.ItineraryDay) domain.ExportRow {
		r := header
		r.DayIndex = a.DayIndex
		if day != nil {
			r.Date = day.Date.Format(domain.DateLayout)
			r.Weekday = day.Weekday
		}
		r.Title = a.Title
		r.Location = a.Location
		r.Cost = a.Cost
		r.CostPerPerson = a.CostShare()
		r.Notes = a.Notes
		r.Participants = make([]string, 0, len(a.Participants))
		for _, id := range a.Participants {
			name, ok := names[id]
			if !ok {
				name = id.String()
			}
			r.Participants = append(r.Participants, name)
		}
		return r
	}

	rows := make([]domain.ExportRow, 0, len(trip.Activities))
	for i := range it.Days {
		for _, a := range it.Days[i].Activities {
			rows = append(rows, row(a, &it.Days[i]))
		}
	}
	for _, a := range it.Unscheduled {
		rows = append(rows, row(a, nil))
	}
	return rows, nil
}
