package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fieldclock/agent-go/internal/domain/schedule"
)

type shiftRepository struct {
	db *DB
}

// GetForEmployee implements schedule.ShiftRepository. Weekday-specific rows
// win over the AnyWeekday fallback.
func (r *shiftRepository) GetForEmployee(ctx context.Context, employeeID string, weekday int) (schedule.ShiftEntry, error) {
	query := `
		SELECT id, employee_id, weekday, start_time, end_time, break_start, break_end, grace_minutes
		FROM shift_entries
		WHERE employee_id = ? AND weekday IN (?, ?)
		ORDER BY weekday DESC
		LIMIT 1
	`

	var entry schedule.ShiftEntry
	err := r.db.QueryRowContext(ctx, query, employeeID, weekday, schedule.AnyWeekday).Scan(
		&entry.ID, &entry.EmployeeID, &entry.Weekday,
		&entry.StartTime, &entry.EndTime, &entry.BreakStart, &entry.BreakEnd,
		&entry.GraceMinutes,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return schedule.ShiftEntry{}, schedule.ErrShiftNotFound
		}
		return schedule.ShiftEntry{}, fmt.Errorf("failed to get shift entry: %w", err)
	}
	return entry, nil
}

// ReplaceForEmployee implements schedule.ShiftRepository.
func (r *shiftRepository) ReplaceForEmployee(ctx context.Context, employeeID string, entries []schedule.ShiftEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM shift_entries WHERE employee_id = ?`, employeeID); err != nil {
		return fmt.Errorf("failed to clear shift entries: %w", err)
	}

	insert := `
		INSERT INTO shift_entries (employee_id, weekday, start_time, end_time, break_start, break_end, grace_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, insert,
			employeeID, entry.Weekday, entry.StartTime, entry.EndTime,
			entry.BreakStart, entry.BreakEnd, entry.GraceMinutes,
		); err != nil {
			return fmt.Errorf("failed to insert shift entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit shift entries: %w", err)
	}
	return nil
}

func NewShiftRepository(db *DB) schedule.ShiftRepository {
	return &shiftRepository{db: db}
}
