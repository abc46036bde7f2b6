// Package domain contains the core data types for the tripmate application.
// It is imported by every other internal package (repo, service, handler)
// and depends on nothing inside this module.
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Trip is the top-level aggregate: a named date range with the travelers
// taking part and the activities planned for each day.
// Travelers and Activities are kept in insertion order.
type Trip struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	Shared     bool       `json:"shared"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Travelers  []Traveler `json:"travelers"`
	Activities []Activity `json:"activities"`
}

// DayCount returns the number of calendar days covered by the trip, start
// and end inclusive. It returns 0 when the dates are inverted.
func (t Trip) DayCount() int {
	days := int(t.EndDate.Sub(t.StartDate).Hours()/24) + 1
	if days < 1 {
		return 0
	}
	return days
}

// Owner returns the traveler marked as owner.
func (t Trip) Owner() (Traveler, bool) {
	for _, tr := range t.Travelers {
		if tr.IsOwner {
			return tr, true
		}
	}
	return Traveler{}, false
}

// Traveler looks up a traveler by id.
func (t Trip) Traveler(id uuid.UUID) (Traveler, bool) {
	i := t.travelerIndex(id)
	if i < 0 {
		return Traveler{}, false
	}
	return t.Travelers[i], true
}

// Activity looks up an activity by id.
func (t Trip) Activity(id uuid.UUID) (Activity, bool) {
	i := t.activityIndex(id)
	if i < 0 {
		return Activity{}, false
	}
	return t.Activities[i], true
}

// ReplaceActivity swaps the stored activity with the same id for a.
// It reports false when no such activity exists.
func (t *Trip) ReplaceActivity(a Activity) bool {
	i := t.activityIndex(a.ID)
	if i < 0 {
		return false
	}
	t.Activities[i] = a
	return true
}

// RemoveActivity drops the activity with the given id, if present.
func (t *Trip) RemoveActivity(id uuid.UUID) bool {
	i := t.activityIndex(id)
	if i < 0 {
		return false
	}
	t.Activities = slices.Delete(t.Activities, i, i+1)
	return true
}

// RemoveTraveler drops the traveler with the given id, if present.
func (t *Trip) RemoveTraveler(id uuid.UUID) bool {
	i := t.travelerIndex(id)
	if i < 0 {
		return false
	}
	t.Travelers = slices.Delete(t.Travelers, i, i+1)
	return true
}

// Clone returns a deep copy. Repositories and the service hand out clones so
// callers can never mutate stored state through shared slices.
func (t Trip) Clone() Trip {
	c := t
	c.Travelers = slices.Clone(t.Travelers)
	c.Activities = make([]Activity, len(t.Activities))
	for i, a := range t.Activities {
		c.Activities[i] = a.Clone()
	}
	return c
}

func (t Trip) travelerIndex(id uuid.UUID) int {
	return slices.IndexFunc(t.Travelers, func(tr Traveler) bool { return tr.ID == id })
}

func (t Trip) activityIndex(id uuid.UUID) int {
	return slices.IndexFunc(t.Activities, func(a Activity) bool { return a.ID == id })
}

// TripPatch carries the fields of a trip that may be changed after creation.
// Nil fields are left untouched.
type TripPatch struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
}

// Date truncates t to its calendar date at midnight UTC. The year, month and
// day are read in t's own location so "2025-06-01T23:00-05:00" stays June 1.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
