package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rotafacil/internal/domain/auth"

	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE raised for duplicate keys
const uniqueViolation = "23505"

// UserRepository is a Postgres implementation of auth.Repository
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository constructs a UserRepository
func NewUserRepository(db *sql.DB) *UserRepository { return &UserRepository{db: db} }

const userColumns = `id,email,name,password_hash,role,access_schedule_id,is_active,password_changed_at,created_at,updated_at,last_login_at`

// scanner is implemented by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanUser scans a user row into an auth.User
func scanUser(rows scanner) (*auth.User, error) {
	var u auth.User
	var scheduleID sql.NullString
	var pwChanged, lastLogin sql.NullTime
	err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &scheduleID, &u.IsActive,
		&pwChanged, &u.CreatedAt, &u.UpdatedAt, &lastLogin)
	if err != nil {
		return nil, err
	}
	if scheduleID.Valid {
		u.AccessScheduleID = &scheduleID.String
	}
	if pwChanged.Valid {
		t := pwChanged.Time
		u.PasswordChangedAt = &t
	}
	if lastLogin.Valid {
		u.LastLoginAt = lastLogin.Time
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// nullTimePtr returns interface{} nil if zero time
func nullTimePtr(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*auth.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetUser(ctx context.Context, userID string) (*auth.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1)`, email)
}

func (r *UserRepository) CreateUser(ctx context.Context, user *auth.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.Role, user.AccessScheduleID, user.IsActive,
		user.PasswordChangedAt, user.CreatedAt, user.UpdatedAt, nullTimePtr(user.LastLoginAt))
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, user *auth.User) error {
	user.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `UPDATE users SET email=$2,name=$3,password_hash=$4,role=$5,access_schedule_id=$6,is_active=$7,password_changed_at=$8,updated_at=$9,last_login_at=$10 WHERE id=$1`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.Role, user.AccessScheduleID, user.IsActive,
		user.PasswordChangedAt, user.UpdatedAt, nullTimePtr(user.LastLoginAt))
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrUserExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) listWhere(ctx context.Context, where string, args ...interface{}) ([]*auth.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users `+where+` ORDER BY email ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := make([]*auth.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]*auth.User, error) {
	return r.listWhere(ctx, "")
}

func (r *UserRepository) ListUsersBySchedule(ctx context.Context, scheduleID string) ([]*auth.User, error) {
	return r.listWhere(ctx, "WHERE access_schedule_id=$1", scheduleID)
}

// ClearAccessSchedule detaches every user from the schedule and returns their IDs
func (r *UserRepository) ClearAccessSchedule(ctx context.Context, scheduleID string) ([]string, error) {
	var ids []string
	err := r.db.QueryRowContext(ctx, `WITH cleared AS (
			UPDATE users SET access_schedule_id=NULL, updated_at=now() WHERE access_schedule_id=$1 RETURNING id
		) SELECT COALESCE(array_agg(id), '{}') FROM cleared`, scheduleID).Scan(pq.Array(&ids))
	if err != nil {
		return nil, fmt.Errorf("clear access schedule: %w", err)
	}
	return ids, nil
}

func (r *UserRepository) CreateSession(ctx context.Context, session *auth.Session) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO sessions (id,user_id,created_at,expires_at,last_used_at) VALUES ($1,$2,$3,$4,$5)`,
		session.ID, session.UserID, session.CreatedAt, session.ExpiresAt, session.LastUsedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *UserRepository) GetSession(ctx context.Context, sessionID string) (*auth.Session, error) {
	var s auth.Session
	err := r.db.QueryRowContext(ctx, `SELECT id,user_id,created_at,expires_at,last_used_at FROM sessions WHERE id=$1`, sessionID).
		Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt, &s.LastUsedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

func (r *UserRepository) TouchSession(ctx context.Context, sessionID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET last_used_at=now() WHERE id=$1`, sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

func (r *UserRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=$1`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *UserRepository) DeleteUserSessions(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (r *UserRepository) CleanupExpiredSessions(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < now()`); err != nil {
		return fmt.Errorf("cleanup sessions: %w", err)
	}
	return nil
}
