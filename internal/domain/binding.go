package domain

import (
	"time"

	"github.com/google/uuid"
)

// Binding associates a device with the traveler it is currently acting as.
// A device has at most one current binding at a time, for one trip.
type Binding struct {
	DeviceID   string
	TripID     uuid.UUID
	TravelerID uuid.UUID
	BoundAt    time.Time
}
