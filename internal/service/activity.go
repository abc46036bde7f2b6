package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/tripmate/internal/domain"
)

// AddActivity validates the input against the trip's current dates and
// appends a new activity with no participants.
// Returns domain.ErrValidation for invalid input, domain.ErrNotFound if the
// trip does not exist.
func (s *TripService) AddActivity(ctx context.Context, tripID uuid.UUID, in domain.ActivityInput) (domain.Activity, error) {
	var created domain.Activity
	_, err := s.mutate(ctx, tripID, func(t *domain.Trip) (bool, error) {
		now := s.timestamp()
		created = domain.Activity{
			ID:           s.newID(),
			TripID:       t.ID,
			Title:        strings.TrimSpace(in.Title),
			Description:  in.Description,
			Location:     in.Location,
			Notes:        in.Notes,
			Cost:         in.Cost,
			DayIndex:     in.DayIndex,
			Participants: []uuid.UUID{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := validateActivity(*t, created); err != nil {
			return false, err
		}
		t.Activities = append(t.Activities, created)
		return true, nil
	})
	if err != nil {
		return domain.Activity{}, fmt.Errorf("service.TripService.AddActivity: %w", err)
	}
	s.logger.InfoContext(ctx, "activity added", "trip_id", tripID, "activity_id", created.ID, "day_index", created.DayIndex)
	return created.Clone(), nil
}

// UpdateActivity merges the non-nil fields of patch into the activity and
// validates the merged result the same way AddActivity does.
// Returns domain.ErrValidation for invalid input, domain.ErrNotFound if the
// trip or activity does not exist.
func (s *TripService) UpdateActivity(ctx context.Context, tripID, activityID uuid.UUID, patch domain.ActivityPatch) (domain.Activity, error) {
	var before, after domain.Activity
	_, err := s.mutate(ctx, tripID, func(t *domain.Trip) (bool, error) {
		a, ok := t.Activity(activityID)
		if !ok {
			return false, &domain.NotFoundError{Entity: "activity"}
		}
		before = a.Clone()
		applyActivityPatch(&a, patch)
		if err := validateActivity(*t, a); err != nil {
			return false, err
		}
		if activityFieldsOf(a).equal(activityFieldsOf(before)) {
			after = before
			return false, nil
		}
		a.UpdatedAt = s.timestamp()
		after = a
		t.ReplaceActivity(a)
		return true, nil
	})
	if err != nil {
		return domain.Activity{}, fmt.Errorf("service.TripService.UpdateActivity: %w", err)
	}
	s.logChanges(ctx, "activity updated", tripID, activityFieldsOf(before), activityFieldsOf(after))
	return after.Clone(), nil
}

// DeleteActivity removes an activity. Deleting an activity that is already
// gone is not an error.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *TripService) DeleteActivity(ctx context.Context, tripID, activityID uuid.UUID) error {
	_, err := s.mutate(ctx, tripID, func(t *domain.Trip) (bool, error) {
		return t.RemoveActivity(activityID), nil
	})
	if err != nil {
		return fmt.Errorf("service.TripService.DeleteActivity: %w", err)
	}
	return nil
}

// JoinActivity adds the traveler to the activity's participants. Joining twice
// leaves the participants unchanged.
// Returns domain.ErrNotFound if the trip, activity, or traveler does not exist.
func (s *TripService) JoinActivity(ctx context.Context, tripID, activityID, travelerID uuid.UUID) (domain.Activity, error) {
	var result domain.Activity
	_, err := s.mutate(ctx, tripID, func(t *domain.Trip) (bool, error) {
		a, ok := t.Activity(activityID)
		if !ok {
			return false, &domain.NotFoundError{Entity: "activity"}
		}
		if _, ok := t.Traveler(travelerID); !ok {
			return false, &domain.NotFoundError{Entity: "traveler"}
		}
		result = a
		if a.HasParticipant(travelerID) {
			return false, nil
		}
		a.Participants = append(a.Participants, travelerID)
		result = a
		t.ReplaceActivity(a)
		return true, nil
	})
	if err != nil {
		return domain.Activity{}, fmt.Errorf("service.TripService.JoinActivity: %w", err)
	}
	return result.Clone(), nil
}

// LeaveActivity removes the traveler from the activity's participants.
// Leaving an activity the traveler is not part of is not an error.
// Returns domain.ErrNotFound if the trip or activity does not exist.
func (s *TripService) LeaveActivity(ctx context.Context, tripID, activityID, travelerID uuid.UUID) (domain.Activity, error) {
	var result domain.Activity
	_, err := s.mutate(ctx, tripID, func(t *domain.Trip) (bool, error) {
		a, ok := t.Activity(activityID)
		if !ok {
			return false, &domain.NotFoundError{Entity: "activity"}
		}
		result = a
		i := slices.Index(a.Participants, travelerID)
		if i < 0 {
			return false, nil
		}
		a.Participants = slices.Delete(a.Participants, i, i+1)
		result = a
		t.ReplaceActivity(a)
		return true, nil
	})
	if err != nil {
		return domain.Activity{}, fmt.Errorf("service.TripService.LeaveActivity: %w", err)
	}
	return result.Clone(), nil
}

// GetActivitiesForDay returns the activities planned on dayIndex in the order
// they were added. A day outside the trip simply has no activities.
// Returns domain.ErrValidation for a negative index, domain.ErrNotFound if the
// trip does not exist.
func (s *TripService) GetActivitiesForDay(ctx context.Context, tripID uuid.UUID, dayIndex int) ([]domain.Activity, error) {
	if dayIndex < 0 {
		return nil, fmt.Errorf("service.TripService.GetActivitiesForDay: %w",
			domain.Invalid("day_index", "must not be negative"))
	}
	trip, err := s.load(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.GetActivitiesForDay: %w", err)
	}
	return activitiesOn(trip, dayIndex), nil
}

func activitiesOn(t domain.Trip, dayIndex int) []domain.Activity {
	out := []domain.Activity{}
	for _, a := range t.Activities {
		if a.DayIndex == dayIndex {
			out = append(out, a)
		}
	}
	return out
}

func applyActivityPatch(a *domain.Activity, p domain.ActivityPatch) {
	if p.Title != nil {
		a.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	switch {
	case p.ClearCost:
		a.Cost = nil
	case p.Cost != nil:
		c := *p.Cost
		a.Cost = &c
	}
	if p.DayIndex != nil {
		a.DayIndex = *p.DayIndex
	}
}

// validateActivity checks an activity against the trip it belongs to.
func validateActivity(t domain.Trip, a domain.Activity) error {
	if a.Title == "" {
		return domain.Invalid("title", "is required")
	}
	if err := validateCost(a.Cost); err != nil {
		return err
	}
	if n := t.DayCount(); a.DayIndex < 0 || a.DayIndex >= n {
		return domain.Invalid("day_index", "must be between 0 and %d", n-1)
	}
	return nil
}

// activityFields is the editable part of an activity.
type activityFields struct {
	Title       string   `diff:"title"`
	Description string   `diff:"description"`
	Location    string   `diff:"location"`
	Notes       string   `diff:"notes"`
	Cost        *float64 `diff:"cost"`
	DayIndex    int      `diff:"day_index"`
}

func (f activityFields) equal(o activityFields) bool {
	sameCost := f.Cost == nil && o.Cost == nil ||
		f.Cost != nil && o.Cost != nil && *f.Cost == *o.Cost
	f.Cost, o.Cost = nil, nil
	return sameCost && f == o
}

func activityFieldsOf(a domain.Activity) activityFields {
	return activityFields{
		Title:       a.Title,
		Description: a.Description,
		Location:    a.Location,
		Notes:       a.Notes,
		Cost:        a.Cost,
		DayIndex:    a.DayIndex,
	}
}
