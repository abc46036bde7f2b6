package domain

import (
	"time"

	"github.com/google/uuid"
)

// ItineraryDay is one calendar day of a trip with the activities planned on it.
type ItineraryDay struct {
	Index      int
	Date       time.Time
	Weekday    string
	Activities []Activity
}

// Itinerary is the day-by-day view of a trip. Unscheduled holds activities
// whose DayIndex no longer falls inside the trip's dates (for example after
// the end date was moved earlier); they are kept, not repaired.
type Itinerary struct {
	TripID      uuid.UUID
	Days        []ItineraryDay
	Unscheduled []Activity
}

// TravelerSummary is one traveler's participation in a trip.
type TravelerSummary struct {
	TravelerID    uuid.UUID
	Name          string
	IsOwner       bool
	ActivityCount int
	Cost          float64
}

// TripSummary aggregates participation and cost across a trip.
type TripSummary struct {
	TripID        uuid.UUID
	DayCount      int
	ActivityCount int
	TotalCost     float64
	Travelers     []TravelerSummary
}
