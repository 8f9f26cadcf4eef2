// Package postgres persists audit events to the audit_events table. Driven
// through database/sql so the audit trail can share a connection with other
// relational consumers.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "idproof/pkg/domain"
	audit "idproof/pkg/platform/audit"
)

// Store implements audit.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append writes one audit event.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	query := `
		INSERT INTO audit_events (id, user_id, result_id, action, stage, vendor, issuer, decision, reason, trace_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	var userID, resultID any
	if !event.UserID.IsNil() {
		userID = event.UserID.String()
	}
	if !event.ResultID.IsNil() {
		resultID = event.ResultID.String()
	}
	_, err := s.db.ExecContext(ctx, query,
		uuid.New().String(),
		userID,
		resultID,
		event.Action,
		event.Stage,
		event.Vendor,
		event.Issuer,
		event.Decision,
		event.Reason,
		event.TraceID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByUser returns a user's events oldest first.
func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	query := `
		SELECT user_id, result_id, action, stage, vendor, issuer, decision, reason, trace_id, created_at
		FROM audit_events
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event              audit.Event
			rawUser, rawResult sql.NullString
		)
		err := rows.Scan(&rawUser, &rawResult, &event.Action, &event.Stage, &event.Vendor, &event.Issuer, &event.Decision, &event.Reason, &event.TraceID, &event.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if rawUser.Valid {
			parsed, err := id.ParseUserID(rawUser.String)
			if err != nil {
				return nil, err
			}
			event.UserID = parsed
		}
		if rawResult.Valid {
			parsed, err := id.ParseResultID(rawResult.String)
			if err != nil {
				return nil, err
			}
			event.ResultID = parsed
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
