package attendance

import (
	"context"
)

// EventLedger is the durable on-device log of attendance events and the
// single source of truth for duplicate and ordering checks. Creation happens
// only after rules-engine acceptance; sync-state transitions are the only
// permitted mutation of an existing row.
type EventLedger interface {
	// Create appends an accepted event in PENDING state.
	Create(ctx context.Context, event Event) (Event, error)

	// GetByID retrieves a single event.
	GetByID(ctx context.Context, id string) (Event, error)

	// ListByEmployeeAndDate returns the employee-day events in capture order.
	// Duplicate/ordering validation reads through this, not a cache, so the
	// invariants hold across process restarts.
	ListByEmployeeAndDate(ctx context.Context, employeeID string, date string) ([]Event, error)

	// GetLastByEmployeeAndKind returns the most recent event of the given
	// kind for the employee regardless of date, or nil when none exists.
	// Used by the re-scan duplicate guard across day boundaries.
	GetLastByEmployeeAndKind(ctx context.Context, employeeID string, kind EventKind) (*Event, error)

	// ExistsByEmployeeDateKind reports whether an (employee, date, kind)
	// event is already recorded.
	ExistsByEmployeeDateKind(ctx context.Context, employeeID string, date string, kind EventKind) (bool, error)

	// List returns events matching the filter with a total count.
	List(ctx context.Context, filter EventFilter) ([]Event, int64, error)

	// ListUnsynced returns all PENDING or ERROR events in capture order;
	// this is the sync coordinator's batch source.
	ListUnsynced(ctx context.Context) ([]Event, error)

	// CountUnsynced counts PENDING or ERROR events for UI indicators.
	CountUnsynced(ctx context.Context) (int, error)

	// MarkSynced transitions the given events to SYNCED and records the
	// server-assigned confirmation time. Clears any previous sync error.
	MarkSynced(ctx context.Context, ids []string, serverConfirmedAtMillis int64) error

	// MarkError transitions one event to ERROR retaining the cause.
	MarkError(ctx context.Context, id string, cause string) error
}
