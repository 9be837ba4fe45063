package attendance

import (
	"context"
)

// AttendanceService orchestrates punch submission: badge decoding, rules
// validation, ledger persistence, and the async sync nudge.
type AttendanceService interface {
	// SubmitEvent validates and persists one punch. Validation failures are
	// terminal and leave no trace in the ledger.
	SubmitEvent(ctx context.Context, req SubmitEventRequest) (EventResponse, error)

	// ListEvents retrieves ledger entries for the UI shell.
	ListEvents(ctx context.Context, filter EventFilter) (ListEventsResponse, error)

	// PendingSyncCount returns how many events still await server confirmation.
	PendingSyncCount(ctx context.Context) (int, error)

	// NextExpectedKind returns the next punch the employee is expected to
	// make today, or nil when the day is complete.
	NextExpectedKind(ctx context.Context, employeeID string) (*EventKind, error)
}
