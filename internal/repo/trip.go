package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tripmate/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup. Begin on a pgx.Tx opens a
// savepoint, so Save stays atomic in both cases.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgTripRepo is the Postgres implementation of TripRepo. It is the durable
// shared tier: any device can resolve a trip stored here.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a Postgres TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

// GetByID loads the trip row and its children.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := loadPGTrip(ctx, r.db, id)
	if err != nil {
		return domain.Trip{}, storeErr("repo.TripRepo.GetByID", err)
	}
	return trip, nil
}

// List returns all trips ordered by created_at descending (most recent first).
func (r *pgTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	const q = `SELECT id FROM trips ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, storeErr("repo.TripRepo.List", err)
	}
	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (uuid.UUID, error) {
		var id pgtype.UUID
		err := row.Scan(&id)
		return uuid.UUID(id.Bytes), err
	})
	if err != nil {
		return nil, storeErr("repo.TripRepo.List: scan", err)
	}

	trips := make([]domain.Trip, 0, len(ids))
	for _, id := range ids {
		t, err := loadPGTrip(ctx, r.db, id)
		if errors.Is(err, domain.ErrNotFound) {
			// Deleted between the id scan and the load.
			continue
		}
		if err != nil {
			return nil, storeErr("repo.TripRepo.List", err)
		}
		trips = append(trips, t)
	}
	return trips, nil
}

// Save upserts the trip row and rewrites all of its children inside one
// transaction.
func (r *pgTripRepo) Save(ctx context.Context, trip domain.Trip) error {
	const upsertTrip = `
		INSERT INTO trips (id, name, start_date, end_date, shared, created_at, updated_at)
		VALUES (@id, @name, @start_date, @end_date, @shared, @created_at, @updated_at)
		ON CONFLICT (id) DO UPDATE
		SET name       = EXCLUDED.name,
		    start_date = EXCLUDED.start_date,
		    end_date   = EXCLUDED.end_date,
		    shared     = EXCLUDED.shared,
		    updated_at = EXCLUDED.updated_at`

	const insertTraveler = `
		INSERT INTO travelers (trip_id, id, name, is_owner, joined_at, position)
		VALUES (@trip_id, @id, @name, @is_owner, @joined_at, @position)`

	const insertActivity = `
		INSERT INTO activities (trip_id, id, title, description, location, notes, cost, day_index, position, created_at, updated_at)
		VALUES (@trip_id, @id, @title, @description, @location, @notes, @cost, @day_index, @position, @created_at, @updated_at)`

	const insertParticipant = `
		INSERT INTO activity_participants (trip_id, activity_id, traveler_id, position)
		VALUES (@trip_id, @activity_id, @traveler_id, @position)`

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, upsertTrip, pgx.NamedArgs{
			"id":         trip.ID,
			"name":       trip.Name,
			"start_date": trip.StartDate,
			"end_date":   trip.EndDate,
			"shared":     trip.Shared,
			"created_at": trip.CreatedAt,
			"updated_at": trip.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("upsert trip: %w", err)
		}

		// activity_participants cascades from activities.
		for _, q := range []string{
			`DELETE FROM activities WHERE trip_id = @trip_id`,
			`DELETE FROM travelers WHERE trip_id = @trip_id`,
		} {
			if _, err := tx.Exec(ctx, q, pgx.NamedArgs{"trip_id": trip.ID}); err != nil {
				return fmt.Errorf("clear children: %w", err)
			}
		}

		batch := &pgx.Batch{}
		for i, tr := range trip.Travelers {
			batch.Queue(insertTraveler, pgx.NamedArgs{
				"trip_id":   trip.ID,
				"id":        tr.ID,
				"name":      tr.Name,
				"is_owner":  tr.IsOwner,
				"joined_at": tr.JoinedAt,
				"position":  i,
			})
		}
		for i, a := range trip.Activities {
			batch.Queue(insertActivity, pgx.NamedArgs{
				"trip_id":     trip.ID,
				"id":          a.ID,
				"title":       a.Title,
				"description": a.Description,
				"location":    a.Location,
				"notes":       a.Notes,
				"cost":        a.Cost, // nil becomes NULL
				"day_index":   a.DayIndex,
				"position":    i,
				"created_at":  a.CreatedAt,
				"updated_at":  a.UpdatedAt,
			})
			for j, p := range a.Participants {
				batch.Queue(insertParticipant, pgx.NamedArgs{
					"trip_id":     trip.ID,
					"activity_id": a.ID,
					"traveler_id": p,
					"position":    j,
				})
			}
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert children: %w", err)
		}
		return nil
	})
	if err != nil {
		return storeErr("repo.TripRepo.Save", err)
	}
	return nil
}

// Delete removes a trip by primary key; children cascade.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return storeErr("repo.TripRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// loadPGTrip reads the trip row followed by travelers, activities, and
// participants, each in stored position order.
func loadPGTrip(ctx context.Context, q db, id uuid.UUID) (domain.Trip, error) {
	const tripQ = `
		SELECT id, name, start_date, end_date, shared, created_at, updated_at
		FROM trips
		WHERE id = @id`

	const travelersQ = `
		SELECT id, trip_id, name, is_owner, joined_at
		FROM travelers
		WHERE trip_id = @trip_id
		ORDER BY position`

	const activitiesQ = `
		SELECT id, trip_id, title, description, location, notes, cost, day_index, created_at, updated_at
		FROM activities
		WHERE trip_id = @trip_id
		ORDER BY position`

	const participantsQ = `
		SELECT activity_id, traveler_id
		FROM activity_participants
		WHERE trip_id = @trip_id
		ORDER BY activity_id, position`

	trip, err := scanTrip(q.QueryRow(ctx, tripQ, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, err
	}
	args := pgx.NamedArgs{"trip_id": id}

	rows, err := q.Query(ctx, travelersQ, args)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("query travelers: %w", err)
	}
	trip.Travelers, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Traveler, error) {
		return scanTraveler(row)
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("scan travelers: %w", err)
	}

	rows, err = q.Query(ctx, activitiesQ, args)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("query activities: %w", err)
	}
	trip.Activities, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Activity, error) {
		return scanActivity(row)
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("scan activities: %w", err)
	}

	rows, err = q.Query(ctx, participantsQ, args)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("query participants: %w", err)
	}
	participants := make(map[uuid.UUID][]uuid.UUID)
	var activityID, travelerID pgtype.UUID
	_, err = pgx.ForEachRow(rows, []any{&activityID, &travelerID}, func() error {
		aid := uuid.UUID(activityID.Bytes)
		participants[aid] = append(participants[aid], uuid.UUID(travelerID.Bytes))
		return nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("scan participants: %w", err)
	}
	for i := range trip.Activities {
		trip.Activities[i].Participants = participantsOrEmpty(participants[trip.Activities[i].ID])
	}

	return trip, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single trips row into a domain.Trip without children.
// It handles the UUID and date conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t         domain.Trip
		id        pgtype.UUID
		startDate pgtype.Date
		endDate   pgtype.Date
	)

	err := s.Scan(&id, &t.Name, &startDate, &endDate, &t.Shared, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}
	if !startDate.Valid || !endDate.Valid {
		return domain.Trip{}, fmt.Errorf("trip %s: missing date", uuid.UUID(id.Bytes))
	}

	t.ID = uuid.UUID(id.Bytes)
	t.StartDate = domain.Date(startDate.Time)
	t.EndDate = domain.Date(endDate.Time)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	t.Travelers = []domain.Traveler{}
	t.Activities = []domain.Activity{}
	return t, nil
}

func scanTraveler(s scanner) (domain.Traveler, error) {
	var (
		tr     domain.Traveler
		id     pgtype.UUID
		tripID pgtype.UUID
	)
	if err := s.Scan(&id, &tripID, &tr.Name, &tr.IsOwner, &tr.JoinedAt); err != nil {
		return domain.Traveler{}, err
	}
	tr.ID = uuid.UUID(id.Bytes)
	tr.TripID = uuid.UUID(tripID.Bytes)
	tr.JoinedAt = tr.JoinedAt.UTC()
	return tr, nil
}

func scanActivity(s scanner) (domain.Activity, error) {
	var (
		a      domain.Activity
		id     pgtype.UUID
		tripID pgtype.UUID
		cost   pgtype.Float8
	)
	err := s.Scan(&id, &tripID, &a.Title, &a.Description, &a.Location, &a.Notes,
		&cost, &a.DayIndex, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Activity{}, err
	}
	a.ID = uuid.UUID(id.Bytes)
	a.TripID = uuid.UUID(tripID.Bytes)
	if cost.Valid {
		c := cost.Float64
		a.Cost = &c
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

func participantsOrEmpty(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
