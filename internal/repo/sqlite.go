package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tripmate/internal/domain"
)

// sqlDB is satisfied by *sql.DB and *sql.Tx.
type sqlDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqliteTripRepo is the per-device local TripRepo. The database is expected
// to have a single open connection, so every result set is drained before
// the next query is issued.
type sqliteTripRepo struct {
	db *sql.DB
}

// NewSQLiteTripRepo constructs a TripRepo backed by a migrated SQLite database.
func NewSQLiteTripRepo(db *sql.DB) TripRepo {
	return &sqliteTripRepo{db: db}
}

const sqliteTimeLayout = time.RFC3339Nano

func (r *sqliteTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	t, err := loadSQLiteTrip(ctx, r.db, id)
	if err != nil {
		return domain.Trip{}, storeErr("repo.sqliteTripRepo.GetByID", err)
	}
	return t, nil
}

func (r *sqliteTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM trips`)
	if err != nil {
		return nil, storeErr("repo.sqliteTripRepo.List", err)
	}
	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			rows.Close()
			return nil, storeErr("repo.sqliteTripRepo.List: scan", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			rows.Close()
			return nil, storeErr("repo.sqliteTripRepo.List: parse id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, storeErr("repo.sqliteTripRepo.List", err)
	}
	rows.Close()

	trips := make([]domain.Trip, 0, len(ids))
	for _, id := range ids {
		t, err := loadSQLiteTrip(ctx, r.db, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, storeErr("repo.sqliteTripRepo.List", err)
		}
		trips = append(trips, t)
	}
	// Timestamps are text, so order in Go rather than trusting string order
	// across differing fractional-second widths.
	sortNewestFirst(trips)
	return trips, nil
}

func (r *sqliteTripRepo) Save(ctx context.Context, trip domain.Trip) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("repo.sqliteTripRepo.Save: begin", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := saveSQLiteTrip(ctx, tx, trip); err != nil {
		return storeErr("repo.sqliteTripRepo.Save", err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr("repo.sqliteTripRepo.Save: commit", err)
	}
	return nil
}

func (r *sqliteTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("repo.sqliteTripRepo.Delete: begin", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := deleteSQLiteChildren(ctx, tx, id); err != nil {
		return storeErr("repo.sqliteTripRepo.Delete", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, id.String())
	if err != nil {
		return storeErr("repo.sqliteTripRepo.Delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("repo.sqliteTripRepo.Delete: rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("repo.sqliteTripRepo.Delete: %w", domain.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return storeErr("repo.sqliteTripRepo.Delete: commit", err)
	}
	return nil
}

func saveSQLiteTrip(ctx context.Context, tx sqlDB, trip domain.Trip) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO trips (id, name, start_date, end_date, shared, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET name       = excluded.name,
		    start_date = excluded.start_date,
		    end_date   = excluded.end_date,
		    shared     = excluded.shared,
		    updated_at = excluded.updated_at`,
		trip.ID.String(), trip.Name,
		trip.StartDate.Format(domain.DateLayout), trip.EndDate.Format(domain.DateLayout),
		boolInt(trip.Shared), formatTime(trip.CreatedAt), formatTime(trip.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert trip: %w", err)
	}

	if err := deleteSQLiteChildren(ctx, tx, trip.ID); err != nil {
		return err
	}

	for i, tr := range trip.Travelers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO travelers (trip_id, id, name, is_owner, joined_at, position) VALUES (?, ?, ?, ?, ?, ?)`,
			trip.ID.String(), tr.ID.String(), tr.Name, boolInt(tr.IsOwner), formatTime(tr.JoinedAt), i,
		)
		if err != nil {
			return fmt.Errorf("insert traveler: %w", err)
		}
	}

	for i, a := range trip.Activities {
		var cost sql.NullFloat64
		if a.Cost != nil {
			cost = sql.NullFloat64{Float64: *a.Cost, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO activities (trip_id, id, title, description, location, notes, cost, day_index, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			trip.ID.String(), a.ID.String(), a.Title, a.Description, a.Location, a.Notes,
			cost, a.DayIndex, i, formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}
		for j, p := range a.Participants {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO activity_participants (trip_id, activity_id, traveler_id, position) VALUES (?, ?, ?, ?)`,
				trip.ID.String(), a.ID.String(), p.String(), j,
			)
			if err != nil {
				return fmt.Errorf("insert participant: %w", err)
			}
		}
	}
	return nil
}

func deleteSQLiteChildren(ctx context.Context, tx sqlDB, tripID uuid.UUID) error {
	for _, q := range []string{
		`DELETE FROM activity_participants WHERE trip_id = ?`,
		`DELETE FROM activities WHERE trip_id = ?`,
		`DELETE FROM travelers WHERE trip_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, tripID.String()); err != nil {
			return fmt.Errorf("clear children: %w", err)
		}
	}
	return nil
}

func loadSQLiteTrip(ctx context.Context, q sqlDB, id uuid.UUID) (domain.Trip, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, name, start_date, end_date, shared, created_at, updated_at FROM trips WHERE id = ?`,
		id.String(),
	)
	trip, err := scanSQLiteTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Trip{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Trip{}, err
	}

	trip.Travelers, err = querySQLiteTravelers(ctx, q, id)
	if err != nil {
		return domain.Trip{}, err
	}
	trip.Activities, err = querySQLiteActivities(ctx, q, id)
	if err != nil {
		return domain.Trip{}, err
	}
	participants, err := querySQLiteParticipants(ctx, q, id)
	if err != nil {
		return domain.Trip{}, err
	}
	for i := range trip.Activities {
		trip.Activities[i].Participants = participantsOrEmpty(participants[trip.Activities[i].ID])
	}
	return trip, nil
}

func scanSQLiteTrip(s scanner) (domain.Trip, error) {
	var (
		t                    domain.Trip
		id, start, end       string
		shared               int
		createdAt, updatedAt string
	)
	if err := s.Scan(&id, &t.Name, &start, &end, &shared, &createdAt, &updatedAt); err != nil {
		return domain.Trip{}, err
	}

	var err error
	if t.ID, err = uuid.Parse(id); err != nil {
		return domain.Trip{}, fmt.Errorf("trip id %q: %w", id, err)
	}
	if t.StartDate, err = time.Parse(domain.DateLayout, start); err != nil {
		return domain.Trip{}, fmt.Errorf("trip %s start_date: %w", id, err)
	}
	if t.EndDate, err = time.Parse(domain.DateLayout, end); err != nil {
		return domain.Trip{}, fmt.Errorf("trip %s end_date: %w", id, err)
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Trip{}, fmt.Errorf("trip %s created_at: %w", id, err)
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Trip{}, fmt.Errorf("trip %s updated_at: %w", id, err)
	}
	t.Shared = shared != 0
	t.Travelers = []domain.Traveler{}
	t.Activities = []domain.Activity{}
	return t, nil
}

func querySQLiteTravelers(ctx context.Context, q sqlDB, tripID uuid.UUID) ([]domain.Traveler, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, is_owner, joined_at FROM travelers WHERE trip_id = ? ORDER BY position`,
		tripID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query travelers: %w", err)
	}
	defer rows.Close()

	out := []domain.Traveler{}
	for rows.Next() {
		var (
			id, joinedAt string
			isOwner      int
			tr           = domain.Traveler{TripID: tripID}
		)
		if err := rows.Scan(&id, &tr.Name, &isOwner, &joinedAt); err != nil {
			return nil, fmt.Errorf("scan traveler: %w", err)
		}
		if tr.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("traveler id %q: %w", id, err)
		}
		if tr.JoinedAt, err = parseTime(joinedAt); err != nil {
			return nil, fmt.Errorf("traveler %s joined_at: %w", id, err)
		}
		tr.IsOwner = isOwner != 0
		out = append(out, tr)
	}
	return out, rows.Err()
}

func querySQLiteActivities(ctx context.Context, q sqlDB, tripID uuid.UUID) ([]domain.Activity, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, title, description, location, notes, cost, day_index, created_at, updated_at
		FROM activities
		WHERE trip_id = ?
		ORDER BY position`,
		tripID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	out := []domain.Activity{}
	for rows.Next() {
		var (
			id, createdAt, updatedAt string
			cost                     sql.NullFloat64
			a                        = domain.Activity{TripID: tripID}
		)
		err := rows.Scan(&id, &a.Title, &a.Description, &a.Location, &a.Notes,
			&cost, &a.DayIndex, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("activity id %q: %w", id, err)
		}
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("activity %s created_at: %w", id, err)
		}
		if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("activity %s updated_at: %w", id, err)
		}
		if cost.Valid {
			c := cost.Float64
			a.Cost = &c
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func querySQLiteParticipants(ctx context.Context, q sqlDB, tripID uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT activity_id, traveler_id
		FROM activity_participants
		WHERE trip_id = ?
		ORDER BY activity_id, position`,
		tripID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]uuid.UUID)
	for rows.Next() {
		var activityRaw, travelerRaw string
		if err := rows.Scan(&activityRaw, &travelerRaw); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		activityID, err := uuid.Parse(activityRaw)
		if err != nil {
			return nil, fmt.Errorf("participant activity id %q: %w", activityRaw, err)
		}
		travelerID, err := uuid.Parse(travelerRaw)
		if err != nil {
			return nil, fmt.Errorf("participant traveler id %q: %w", travelerRaw, err)
		}
		out[activityID] = append(out[activityID], travelerID)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
