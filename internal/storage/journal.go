package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"chatdesk/internal/models"
)

const maxErrorDetail = 1024

// Journal stores turn metadata. It never sees transcript content.
type Journal struct {
	db *sql.DB
}

func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Record inserts one finished turn.
func (j *Journal) Record(ctx context.Context, event models.TurnEvent) error {
	if event.SessionID == "" {
		return errors.New("session id required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	detail := truncateDetail(event.ErrorDetail)
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO turn_events (session_id, state, file_kind, error_kind, error_detail, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.SessionID, string(event.State), event.FileKind, event.ErrorKind, detail, event.DurationMS, event.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert turn event: %w", err)
	}
	return nil
}

// truncateDetail cuts at maxErrorDetail bytes without splitting a rune.
func truncateDetail(detail string) string {
	if len(detail) <= maxErrorDetail {
		return detail
	}
	cut := maxErrorDetail
	for cut > 0 && !utf8.RuneStart(detail[cut]) {
		cut--
	}
	return detail[:cut]
}

// Recent returns the newest events of a session, newest first.
func (j *Journal) Recent(ctx context.Context, sessionID string, limit int) ([]*models.TurnEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, session_id, state, file_kind, error_kind, error_detail, duration_ms, created_at
		 FROM turn_events WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query turn events: %w", err)
	}
	defer rows.Close()

	var events []*models.TurnEvent
	for rows.Next() {
		var (
			ev    models.TurnEvent
			state string
		)
		if err := rows.Scan(&ev.ID, &ev.SessionID, &state, &ev.FileKind, &ev.ErrorKind, &ev.ErrorDetail, &ev.DurationMS, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn event: %w", err)
		}
		ev.State = models.TurnState(state)
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn events: %w", err)
	}
	return events, nil
}
