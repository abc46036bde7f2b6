package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Wire types for the JSON API. Field names and shapes follow spec/openapi.yaml.

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorDetail describes a single failure.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// Traveler is a member of a trip.
type Traveler struct {
	Id       uuid.UUID `json:"id"`
	TripId   uuid.UUID `json:"trip_id"`
	Name     string    `json:"name"`
	IsOwner  bool      `json:"is_owner"`
	JoinedAt time.Time `json:"joined_at"`
}

// Activity is a plan item scheduled on one day of a trip. CostPerPerson is
// the cost split evenly among the current participants.
type Activity struct {
	Id            uuid.UUID   `json:"id"`
	TripId        uuid.UUID   `json:"trip_id"`
	Title         string      `json:"title"`
	Description   *string     `json:"description,omitempty"`
	Location      *string     `json:"location,omitempty"`
	Notes         *string     `json:"notes,omitempty"`
	Cost          *float64    `json:"cost,omitempty"`
	CostPerPerson float64     `json:"cost_per_person"`
	DayIndex      int         `json:"day_index"`
	Participants  []uuid.UUID `json:"participants"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Trip is the body of every single-trip response.
type Trip struct {
	Id         uuid.UUID          `json:"id"`
	Name       string             `json:"name"`
	StartDate  openapi_types.Date `json:"start_date"`
	EndDate    openapi_types.Date `json:"end_date"`
	DayCount   int                `json:"day_count"`
	Shared     bool               `json:"shared"`
	Travelers  []Traveler         `json:"travelers"`
	Activities []Activity         `json:"activities"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// TripList is the body of GET /trips.
type TripList struct {
	Data       []Trip     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// CreateTripRequest is the body of POST /trips.
type CreateTripRequest struct {
	Name      string             `json:"name"`
	StartDate openapi_types.Date `json:"start_date"`
	EndDate   openapi_types.Date `json:"end_date"`
	OwnerName string             `json:"owner_name"`
}

// UpdateTripRequest carries a partial update; absent fields are left alone.
type UpdateTripRequest struct {
	Name      *string             `json:"name,omitempty"`
	StartDate *openapi_types.Date `json:"start_date,omitempty"`
	EndDate   *openapi_types.Date `json:"end_date,omitempty"`
}

// CreateActivityRequest is the body of POST /trips/{tripID}/activities.
// DayIndex is required; it is a pointer so a missing value is detectable.
type CreateActivityRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
	Cost        *float64 `json:"cost,omitempty"`
	DayIndex    *int     `json:"day_index"`
}

// UpdateActivityRequest carries a partial update. Cost is kept raw so an
// explicit null (clear the cost) can be told apart from an absent field.
type UpdateActivityRequest struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Location    *string         `json:"location,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	Cost        json.RawMessage `json:"cost,omitempty"`
	DayIndex    *int            `json:"day_index,omitempty"`
}

// JoinTripRequest is the body of POST /trips/{tripID}/travelers.
type JoinTripRequest struct {
	Name string `json:"name"`
}

// SetCurrentTravelerRequest is the body of PUT /me.
type SetCurrentTravelerRequest struct {
	TripId     uuid.UUID `json:"trip_id"`
	TravelerId uuid.UUID `json:"traveler_id"`
}

// CurrentTraveler is the body of GET /trips/{tripID}/me. Traveler is null
// when the device has no traveler on the trip.
type CurrentTraveler struct {
	TripId   uuid.UUID `json:"trip_id"`
	Traveler *Traveler `json:"traveler"`
}

// TravelerCost is the body of GET /trips/{tripID}/travelers/{travelerID}/cost.
type TravelerCost struct {
	TripId     uuid.UUID `json:"trip_id"`
	TravelerId uuid.UUID `json:"traveler_id"`
	Total      float64   `json:"total"`
}

// ItineraryDay is one calendar day of a trip with its activities.
type ItineraryDay struct {
	Index      int                `json:"index"`
	Date       openapi_types.Date `json:"date"`
	Weekday    string             `json:"weekday"`
	Activities []Activity         `json:"activities"`
}

// Itinerary is the body of GET /trips/{tripID}/days.
type Itinerary struct {
	TripId      uuid.UUID      `json:"trip_id"`
	Days        []ItineraryDay `json:"days"`
	Unscheduled []Activity     `json:"unscheduled"`
}

// TravelerSummary is one traveler's line in a TripSummary.
type TravelerSummary struct {
	TravelerId    uuid.UUID `json:"traveler_id"`
	Name          string    `json:"name"`
	IsOwner       bool      `json:"is_owner"`
	ActivityCount int       `json:"activity_count"`
	Cost          float64   `json:"cost"`
}

// TripSummary is the body of GET /trips/{tripID}/summary.
type TripSummary struct {
	TripId        uuid.UUID         `json:"trip_id"`
	DayCount      int               `json:"day_count"`
	ActivityCount int               `json:"activity_count"`
	TotalCost     float64           `json:"total_cost"`
	Travelers     []TravelerSummary `json:"travelers"`
}

// Invite is the body of POST /trips/{tripID}/share.
type Invite struct {
	TripId uuid.UUID `json:"trip_id"`
	Url    string    `json:"url"`
}

// InviteTarget is the body of GET /invites/resolve.
type InviteTarget struct {
	TripId uuid.UUID `json:"trip_id"`
	Join   bool      `json:"join"`
}

// ExportRow is one row of the JSON export. Activity fields are omitted on
// the single row exported for a trip without activities.
type ExportRow struct {
	TripId        uuid.UUID           `json:"trip_id"`
	TripName      string              `json:"trip_name"`
	TripStartDate openapi_types.Date  `json:"trip_start_date"`
	TripEndDate   openapi_types.Date  `json:"trip_end_date"`
	DayIndex      *int                `json:"day_index,omitempty"`
	Date          *openapi_types.Date `json:"date,omitempty"`
	Weekday       *string             `json:"weekday,omitempty"`
	Title         *string             `json:"title,omitempty"`
	Location      *string             `json:"location,omitempty"`
	Cost          *float64            `json:"cost,omitempty"`
	CostPerPerson *float64            `json:"cost_per_person,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	Participants  []string            `json:"participants"`
}
