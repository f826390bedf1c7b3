package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rotafacil/internal/domain/access"
)

// ScheduleRepository is a Postgres implementation of access.Repository.
// Weekly windows are stored as JSONB.
type ScheduleRepository struct {
	db *sql.DB
}

func NewScheduleRepository(db *sql.DB) *ScheduleRepository { return &ScheduleRepository{db: db} }

func scanSchedule(row scanner) (*access.Schedule, error) {
	var s access.Schedule
	var raw []byte
	if err := row.Scan(&s.ID, &s.Name, &s.OwnerID, &raw, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.Windows); err != nil {
		return nil, fmt.Errorf("decode schedule %s: %w", s.ID, err)
	}
	return &s, nil
}

func (r *ScheduleRepository) ListSchedules(ctx context.Context, ownerID string) ([]*access.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id,name,owner_id,schedules,created_at,updated_at FROM access_schedules WHERE ($1 = '' OR owner_id=$1) ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()
	out := make([]*access.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScheduleRepository) GetSchedule(ctx context.Context, scheduleID string) (*access.Schedule, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id,name,owner_id,schedules,created_at,updated_at FROM access_schedules WHERE id=$1`, scheduleID)
	s, err := scanSchedule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, access.ErrScheduleNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule *access.Schedule) error {
	raw, err := json.Marshal(schedule.Windows)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	now := time.Now()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	_, err = r.db.ExecContext(ctx, `INSERT INTO access_schedules (id,name,owner_id,schedules,created_at,updated_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		schedule.ID, schedule.Name, schedule.OwnerID, raw, schedule.CreatedAt, schedule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) UpdateSchedule(ctx context.Context, schedule *access.Schedule) error {
	raw, err := json.Marshal(schedule.Windows)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	schedule.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `UPDATE access_schedules SET name=$2,schedules=$3,updated_at=$4 WHERE id=$1`,
		schedule.ID, schedule.Name, raw, schedule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return access.ErrScheduleNotFound
	}
	return nil
}

func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, scheduleID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM access_schedules WHERE id=$1`, scheduleID)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return access.ErrScheduleNotFound
	}
	return nil
}
