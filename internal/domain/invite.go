package domain

import "github.com/google/uuid"

// Invite is the result of sharing a trip: the link a traveler can hand to
// someone on another device.
type Invite struct {
	TripID uuid.UUID `json:"trip_id"`
	URL    string    `json:"url"`
}

// InviteTarget is what an incoming invite link resolves to.
// Join is set when the link asks the receiving device to start the join flow
// immediately rather than just view the trip.
type InviteTarget struct {
	TripID uuid.UUID `json:"trip_id"`
	Join   bool      `json:"join"`
}
