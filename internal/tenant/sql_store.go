package tenant

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vigilrun/vigil/internal/db"
	"github.com/vigilrun/vigil/internal/enum"
)

// SQLStore is a Store backed by database/sql, speaking either Postgres or
// SQLite depending on which driver the connection was opened with.
type SQLStore struct {
	conn   *sql.DB
	driver string
}

func NewSQLStore(conn *sql.DB, driver string) *SQLStore {
	return &SQLStore{conn: conn, driver: driver}
}

// Schema is the DDL applied by the migrate subcommand.
const Schema = `
CREATE TABLE IF NOT EXISTS tenants (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	last_poll TIMESTAMP NULL,
	status    TEXT NOT NULL DEFAULT 'unknown',
	message   TEXT NOT NULL DEFAULT ''
);
`

func (s *SQLStore) List(ctx context.Context) ([]Tenant, error) {
	query := db.Rebind(s.driver, `
		SELECT id, name, last_poll, status, message
		FROM tenants
		WHERE id != ?
		ORDER BY name
	`)

	rows, err := s.conn.QueryContext(ctx, query, ReservedID)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		var t Tenant
		var lastPoll sql.NullTime
		var status string
		if err := rows.Scan(&t.ID, &t.Name, &lastPoll, &status, &t.Message); err != nil {
			return nil, fmt.Errorf("scan tenant row: %w", err)
		}
		if lastPoll.Valid {
			v := lastPoll.Time
			t.LastPoll = &v
		}
		t.Status = enum.TenantStatus(status)
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *SQLStore) UpdateStatus(ctx context.Context, tenantID string, status enum.TenantStatus, message string, lastPoll *time.Time) error {
	if lastPoll != nil {
		query := db.Rebind(s.driver, `UPDATE tenants SET status = ?, message = ?, last_poll = ? WHERE id = ?`)
		_, err := s.conn.ExecContext(ctx, query, string(status), message, *lastPoll, tenantID)
		if err != nil {
			return fmt.Errorf("update tenant %s status: %w", tenantID, err)
		}
		return nil
	}

	query := db.Rebind(s.driver, `UPDATE tenants SET status = ?, message = ? WHERE id = ?`)
	_, err := s.conn.ExecContext(ctx, query, string(status), message, tenantID)
	if err != nil {
		return fmt.Errorf("update tenant %s status: %w", tenantID, err)
	}
	return nil
}
