package schedule

import "context"

// ShiftRepository reads and replaces shift entries. The rules engine only
// reads; writes happen exclusively during directory application.
type ShiftRepository interface {
	// GetForEmployee resolves the entry for a weekday, falling back to the
	// employee's AnyWeekday row. Returns ErrShiftNotFound when neither exists.
	GetForEmployee(ctx context.Context, employeeID string, weekday int) (ShiftEntry, error)

	// ReplaceForEmployee swaps the employee's full shift table.
	ReplaceForEmployee(ctx context.Context, employeeID string, entries []ShiftEntry) error
}
