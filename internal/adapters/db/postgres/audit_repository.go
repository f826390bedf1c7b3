package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"rotafacil/internal/domain/audit"
)

// AuditRepository stores audit entries in the audit_logs table
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository { return &AuditRepository{db: db} }

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *AuditRepository) Record(ctx context.Context, e *audit.Entry) error {
	var details []byte
	if len(e.Details) > 0 {
		var err error
		if details, err = json.Marshal(e.Details); err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO audit_logs (id,user_id,action,resource,details,ip_address,user_agent,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, nullString(e.UserID), string(e.Action), nullString(e.Resource), details, nullString(e.IPAddress), nullString(e.UserAgent), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, limit int) ([]*audit.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id,user_id,action,resource,details,ip_address,user_agent,created_at FROM audit_logs ORDER BY created_at DESC LIMIT $1`, audit.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	out := make([]*audit.Entry, 0)
	for rows.Next() {
		var e audit.Entry
		var userID, resource, ip, ua sql.NullString
		var action string
		var details []byte
		if err := rows.Scan(&e.ID, &userID, &action, &resource, &details, &ip, &ua, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID, e.Resource, e.IPAddress, e.UserAgent = userID.String, resource.String, ip.String, ua.String
		e.Action = audit.Action(action)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
