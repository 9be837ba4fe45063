package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fieldclock/agent-go/internal/domain/attendance"
)

type eventLedger struct {
	db *DB
}

const eventColumns = `id, employee_id, date, kind, captured_at_millis, device_id,
	capture_mode, raw_payload, latitude, longitude, note, computed_marks,
	sync_state, sync_error, server_confirmed_at_millis, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (attendance.Event, error) {
	var ev attendance.Event
	var marks sql.NullString
	err := row.Scan(
		&ev.ID, &ev.EmployeeID, &ev.Date, &ev.Kind, &ev.CapturedAtMillis, &ev.DeviceID,
		&ev.CaptureMode, &ev.RawPayload, &ev.Latitude, &ev.Longitude, &ev.Note, &marks,
		&ev.SyncState, &ev.SyncError, &ev.ServerConfirmedAtMillis, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return attendance.Event{}, err
	}
	if marks.Valid && marks.String != "" {
		var m attendance.Marks
		if err := json.Unmarshal([]byte(marks.String), &m); err != nil {
			return attendance.Event{}, fmt.Errorf("failed to decode computed marks: %w", err)
		}
		ev.Marks = &m
	}
	return ev, nil
}

// Create implements attendance.EventLedger.
func (l *eventLedger) Create(ctx context.Context, event attendance.Event) (attendance.Event, error) {
	var marks *string
	if event.Marks != nil {
		encoded, err := json.Marshal(event.Marks)
		if err != nil {
			return attendance.Event{}, fmt.Errorf("failed to encode computed marks: %w", err)
		}
		s := string(encoded)
		marks = &s
	}

	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.SyncState == "" {
		event.SyncState = attendance.SyncPending
	}

	query := `
		INSERT INTO attendance_events (
			id, employee_id, date, kind, captured_at_millis, device_id,
			capture_mode, raw_payload, latitude, longitude, note, computed_marks,
			sync_state, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := l.db.ExecContext(ctx, query,
		event.ID,
		event.EmployeeID,
		event.Date,
		event.Kind,
		event.CapturedAtMillis,
		event.DeviceID,
		event.CaptureMode,
		event.RawPayload,
		event.Latitude,
		event.Longitude,
		event.Note,
		marks,
		event.SyncState,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return attendance.Event{}, attendance.ErrDuplicateEvent
		}
		return attendance.Event{}, fmt.Errorf("failed to create attendance event: %w", err)
	}

	return event, nil
}

// GetByID implements attendance.EventLedger.
func (l *eventLedger) GetByID(ctx context.Context, id string) (attendance.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM attendance_events WHERE id = ?`

	ev, err := scanEvent(l.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return attendance.Event{}, attendance.ErrEventNotFound
		}
		return attendance.Event{}, fmt.Errorf("failed to get attendance event by id: %w", err)
	}
	return ev, nil
}

// ListByEmployeeAndDate implements attendance.EventLedger.
func (l *eventLedger) ListByEmployeeAndDate(ctx context.Context, employeeID string, date string) ([]attendance.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM attendance_events
		WHERE employee_id = ? AND date = ?
		ORDER BY captured_at_millis ASC
	`

	rows, err := l.db.QueryContext(ctx, query, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query employee-day events: %w", err)
	}
	defer rows.Close()

	var events []attendance.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// GetLastByEmployeeAndKind implements attendance.EventLedger.
func (l *eventLedger) GetLastByEmployeeAndKind(ctx context.Context, employeeID string, kind attendance.EventKind) (*attendance.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM attendance_events
		WHERE employee_id = ? AND kind = ?
		ORDER BY captured_at_millis DESC
		LIMIT 1
	`

	ev, err := scanEvent(l.db.QueryRowContext(ctx, query, employeeID, kind))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last event by kind: %w", err)
	}
	return &ev, nil
}

// ExistsByEmployeeDateKind implements attendance.EventLedger.
func (l *eventLedger) ExistsByEmployeeDateKind(ctx context.Context, employeeID string, date string, kind attendance.EventKind) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM attendance_events
			WHERE employee_id = ? AND date = ? AND kind = ?
		)
	`

	var exists bool
	if err := l.db.QueryRowContext(ctx, query, employeeID, date, kind).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check event existence: %w", err)
	}
	return exists, nil
}

// List implements attendance.EventLedger.
func (l *eventLedger) List(ctx context.Context, filter attendance.EventFilter) ([]attendance.Event, int64, error) {
	baseWhere := "1 = 1"
	args := []any{}

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += " AND employee_id = ?"
		args = append(args, *filter.EmployeeID)
	}
	if filter.Date != nil && *filter.Date != "" {
		baseWhere += " AND date = ?"
		args = append(args, *filter.Date)
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += " AND date >= ?"
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += " AND date <= ?"
		args = append(args, *filter.EndDate)
	}
	if filter.SyncState != nil && *filter.SyncState != "" {
		baseWhere += " AND sync_state = ?"
		args = append(args, *filter.SyncState)
	}

	countQuery := "SELECT COUNT(*) FROM attendance_events WHERE " + baseWhere
	var total int64
	if err := l.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance events: %w", err)
	}

	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page == 0 {
		page = 1
	}
	offset := (page - 1) * limit

	selectQuery := fmt.Sprintf(`
		SELECT `+eventColumns+`
		FROM attendance_events
		WHERE %s
		ORDER BY captured_at_millis %s
		LIMIT ? OFFSET ?
	`, baseWhere, sortOrder)
	args = append(args, limit, offset)

	rows, err := l.db.QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendance events: %w", err)
	}
	defer rows.Close()

	var events []attendance.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance event: %w", err)
		}
		events = append(events, ev)
	}
	return events, total, rows.Err()
}

// ListUnsynced implements attendance.EventLedger.
func (l *eventLedger) ListUnsynced(ctx context.Context) ([]attendance.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM attendance_events
		WHERE sync_state IN (?, ?)
		ORDER BY captured_at_millis ASC
	`

	rows, err := l.db.QueryContext(ctx, query, attendance.SyncPending, attendance.SyncError)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced events: %w", err)
	}
	defer rows.Close()

	var events []attendance.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CountUnsynced implements attendance.EventLedger.
func (l *eventLedger) CountUnsynced(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM attendance_events WHERE sync_state IN (?, ?)`

	var count int
	if err := l.db.QueryRowContext(ctx, query, attendance.SyncPending, attendance.SyncError).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unsynced events: %w", err)
	}
	return count, nil
}

// MarkSynced implements attendance.EventLedger.
func (l *eventLedger) MarkSynced(ctx context.Context, ids []string, serverConfirmedAtMillis int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		UPDATE attendance_events
		SET sync_state = ?, sync_error = NULL, server_confirmed_at_millis = ?, updated_at = ?
		WHERE id IN (%s)
	`, placeholders)

	args := []any{attendance.SyncSynced, serverConfirmedAtMillis, time.Now().UTC()}
	for _, id := range ids {
		args = append(args, id)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark events synced: %w", err)
	}
	return nil
}

// MarkError implements attendance.EventLedger.
func (l *eventLedger) MarkError(ctx context.Context, id string, cause string) error {
	query := `
		UPDATE attendance_events
		SET sync_state = ?, sync_error = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := l.db.ExecContext(ctx, query, attendance.SyncError, cause, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark event errored: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return attendance.ErrEventNotFound
	}
	return nil
}

func NewEventLedger(db *DB) attendance.EventLedger {
	return &eventLedger{db: db}
}
