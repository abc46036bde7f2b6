package domain

import (
	"time"

	"github.com/google/uuid"
)

// MinTravelerNameLength is the shortest display name accepted for a traveler,
// counted in runes after trimming surrounding whitespace.
const MinTravelerNameLength = 2

// Traveler is a participant bound to a trip: the owner, created with the
// trip, or a guest who joined later. Only Name is ever changed after creation.
type Traveler struct {
	ID       uuid.UUID `json:"id"`
	TripID   uuid.UUID `json:"trip_id"`
	Name     string    `json:"name"`
	IsOwner  bool      `json:"is_owner"`
	JoinedAt time.Time `json:"joined_at"`
}
