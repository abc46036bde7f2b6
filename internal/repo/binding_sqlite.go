package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/tripmate/internal/domain"
)

// sqliteBindingRepo persists device bindings next to the local trip tier.
type sqliteBindingRepo struct {
	db *sql.DB
}

// NewSQLiteBindingRepo constructs a BindingRepo backed by a migrated SQLite database.
func NewSQLiteBindingRepo(db *sql.DB) BindingRepo {
	return &sqliteBindingRepo{db: db}
}

func (r *sqliteBindingRepo) Current(ctx context.Context, deviceID string) (domain.Binding, error) {
	var tripRaw, travelerRaw, boundAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT trip_id, traveler_id, bound_at FROM device_bindings WHERE device_id = ?`,
		deviceID,
	).Scan(&tripRaw, &travelerRaw, &boundAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Binding{}, fmt.Errorf("repo.sqliteBindingRepo.Current: %w", domain.ErrNotFound)
	}
	if err != nil {
		return domain.Binding{}, storeErr("repo.sqliteBindingRepo.Current", err)
	}

	b := domain.Binding{DeviceID: deviceID}
	if b.TripID, err = uuid.Parse(tripRaw); err != nil {
		return domain.Binding{}, storeErr("repo.sqliteBindingRepo.Current: trip id", err)
	}
	if b.TravelerID, err = uuid.Parse(travelerRaw); err != nil {
		return domain.Binding{}, storeErr("repo.sqliteBindingRepo.Current: traveler id", err)
	}
	if b.BoundAt, err = parseTime(boundAt); err != nil {
		return domain.Binding{}, storeErr("repo.sqliteBindingRepo.Current: bound_at", err)
	}
	return b, nil
}

func (r *sqliteBindingRepo) SetCurrent(ctx context.Context, b domain.Binding) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("repo.sqliteBindingRepo.SetCurrent: begin", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	boundAt := formatTime(b.BoundAt)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO device_bindings (device_id, trip_id, traveler_id, bound_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (device_id) DO UPDATE
		SET trip_id = excluded.trip_id, traveler_id = excluded.traveler_id, bound_at = excluded.bound_at`,
		b.DeviceID, b.TripID.String(), b.TravelerID.String(), boundAt,
	)
	if err != nil {
		return storeErr("repo.sqliteBindingRepo.SetCurrent: binding", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO device_travelers (device_id, trip_id, traveler_id, remembered_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (device_id, trip_id) DO UPDATE
		SET traveler_id = excluded.traveler_id, remembered_at = excluded.remembered_at`,
		b.DeviceID, b.TripID.String(), b.TravelerID.String(), boundAt,
	)
	if err != nil {
		return storeErr("repo.sqliteBindingRepo.SetCurrent: remember", err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr("repo.sqliteBindingRepo.SetCurrent: commit", err)
	}
	return nil
}

func (r *sqliteBindingRepo) ClearCurrent(ctx context.Context, deviceID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM device_bindings WHERE device_id = ?`, deviceID); err != nil {
		return storeErr("repo.sqliteBindingRepo.ClearCurrent", err)
	}
	return nil
}

func (r *sqliteBindingRepo) Remembered(ctx context.Context, deviceID string, tripID uuid.UUID) (uuid.UUID, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT traveler_id FROM device_travelers WHERE device_id = ? AND trip_id = ?`,
		deviceID, tripID.String(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("repo.sqliteBindingRepo.Remembered: %w", domain.ErrNotFound)
	}
	if err != nil {
		return uuid.Nil, storeErr("repo.sqliteBindingRepo.Remembered", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, storeErr("repo.sqliteBindingRepo.Remembered: traveler id", err)
	}
	return id, nil
}

func (r *sqliteBindingRepo) Reset(ctx context.Context, deviceID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("repo.sqliteBindingRepo.Reset: begin", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, q := range []string{
		`DELETE FROM device_bindings WHERE device_id = ?`,
		`DELETE FROM device_travelers WHERE device_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, deviceID); err != nil {
			return storeErr("repo.sqliteBindingRepo.Reset", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr("repo.sqliteBindingRepo.Reset: commit", err)
	}
	return nil
}
