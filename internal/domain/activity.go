package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Activity is a planned event on one day of a trip.
// DayIndex is 0-based from the trip's start date. Cost is nil when the
// activity is free or not priced. Participants holds traveler ids with no
// duplicates, in the order they joined.
type Activity struct {
	ID           uuid.UUID   `json:"id"`
	TripID       uuid.UUID   `json:"trip_id"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	Location     string      `json:"location,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	Cost         *float64    `json:"cost,omitempty"`
	DayIndex     int         `json:"day_index"`
	Participants []uuid.UUID `json:"participants"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// HasParticipant reports whether the traveler takes part in the activity.
func (a Activity) HasParticipant(travelerID uuid.UUID) bool {
	return slices.Contains(a.Participants, travelerID)
}

// CostShare returns the amount each current participant owes for this
// activity. Activities without cost or without participants share nothing.
func (a Activity) CostShare() float64 {
	if a.Cost == nil || len(a.Participants) == 0 {
		return 0
	}
	return *a.Cost / float64(len(a.Participants))
}

// Clone returns a copy that shares no memory with a.
func (a Activity) Clone() Activity {
	c := a
	c.Participants = slices.Clone(a.Participants)
	if a.Cost != nil {
		cost := *a.Cost
		c.Cost = &cost
	}
	return c
}

// ActivityInput carries the caller-supplied fields for a new activity.
type ActivityInput struct {
	Title       string
	Description string
	Location    string
	Notes       string
	Cost        *float64
	DayIndex    int
}

// ActivityPatch carries changes to an existing activity. Nil fields are left
// untouched; ClearCost removes a previously set cost.
type ActivityPatch struct {
	Title       *string
	Description *string
	Location    *string
	Notes       *string
	Cost        *float64
	ClearCost   bool
	DayIndex    *int
}
