package domain

// ExportRow is a single row in the itinerary export.
// It is a flat, denormalized view: one row per activity, with trip fields
// repeated on every row. Trips with no activities yield one row with zero
// values for all activity fields.
//
// Participants holds display names in join order. Travelers who have left
// the trip but still appear on an activity are exported by id.
type ExportRow struct {
	// Trip fields, repeated for every activity on the trip.
	TripID        string
	TripName      string
	TripStartDate string // "2006-01-02" formatted date
	TripEndDate   string

	// Activity fields, zero values when the trip has no activities.
	DayIndex      int
	Date          string
	Weekday       string
	Title         string
	Location      string
	Cost          *float64
	CostPerPerson float64
	Notes         string

	Participants []string
}
