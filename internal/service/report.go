package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/tripmate/internal/domain"
	"github.com/pkordes/tripmate/internal/itinerary"
)

// Itinerary returns the trip day by day. Activities on a day index the trip
// no longer covers are listed under Unscheduled rather than dropped.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *TripService) Itinerary(ctx context.Context, id uuid.UUID) (domain.Itinerary, error) {
	trip, err := s.load(ctx, id)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("service.TripService.Itinerary: %w", err)
	}
	it, err := buildItinerary(trip)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("service.TripService.Itinerary: %w", err)
	}
	return it, nil
}

func buildItinerary(trip domain.Trip) (domain.Itinerary, error) {
	days, err := itinerary.Expand(trip.StartDate, trip.EndDate)
	if err != nil {
		// Stored trips are validated on every write.
		return domain.Itinerary{}, fmt.Errorf("%w: %w", domain.ErrStore, err)
	}

	it := domain.Itinerary{
		TripID:      trip.ID,
		Days:        make([]domain.ItineraryDay, 0, trip.DayCount()),
		Unscheduled: []domain.Activity{},
	}
	for d := range days {
		it.Days = append(it.Days, domain.ItineraryDay{
			Index:      d.Index,
			Date:       d.Date,
			Weekday:    d.WeekdayName(),
			Activities: activitiesOn(trip, d.Index),
		})
	}
	for _, a := range trip.Activities {
		if a.DayIndex < 0 || a.DayIndex >= len(it.Days) {
			it.Unscheduled = append(it.Unscheduled, a)
		}
	}
	return it, nil
}

// Summary reports the trip's total cost and each current traveler's activity
// count and cost share, in traveler join order.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *TripService) Summary(ctx context.Context, id uuid.UUID) (domain.TripSummary, error) {
	trip, err := s.load(ctx, id)
	if err != nil {
		return domain.TripSummary{}, fmt.Errorf("service.TripService.Summary: %w", err)
	}

	sum := domain.TripSummary{
		TripID:        trip.ID,
		DayCount:      trip.DayCount(),
		ActivityCount: len(trip.Activities),
		Travelers:     make([]domain.TravelerSummary, 0, len(trip.Travelers)),
	}
	for _, a := range trip.Activities {
		if a.Cost != nil {
			sum.TotalCost += *a.Cost
		}
	}
	for _, tr := range trip.Travelers {
		ts := domain.TravelerSummary{TravelerID: tr.ID, Name: tr.Name, IsOwner: tr.IsOwner}
		for _, a := range trip.Activities {
			if a.HasParticipant(tr.ID) {
				ts.ActivityCount++
				ts.Cost += a.CostShare()
			}
		}
		sum.Travelers = append(sum.Travelers, ts)
	}
	return sum, nil
}
