package syncer

import "context"

// State of the coordinator's per-device state machine.
type State string

const (
	StateIdle    State = "IDLE"
	StateSyncing State = "SYNCING"
	StateBackoff State = "BACKOFF"
)

// Trigger reasons, for logging and coalescing diagnostics.
const (
	TriggerImmediate = "immediate"
	TriggerPeriodic  = "periodic"
	TriggerRetry     = "retry"
)

// Status is a point-in-time snapshot of the coordinator for the UI shell.
type Status struct {
	State               State  `json:"state"`
	PendingCount        int    `json:"pending_count"`
	LastSyncAtMillis    int64  `json:"last_sync_at_millis,omitempty"`
	LastError           string `json:"last_error,omitempty"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	Degraded            bool   `json:"degraded"`
	ClockSkewMillis     int64  `json:"clock_skew_millis"`
}

// Notifier is the narrow surface event producers use to nudge the
// coordinator without blocking on network I/O.
type Notifier interface {
	// TriggerSync requests a sync run. Non-blocking; triggers arriving while
	// a batch is in flight coalesce into a single follow-up run.
	TriggerSync(reason string)
}

// Coordinator pushes unsynced ledger entries to the server and reconciles
// the response.
type Coordinator interface {
	Notifier
	// Run processes triggers until ctx is cancelled. Call in a goroutine.
	Run(ctx context.Context)
	// SyncNow performs one synchronous batch push. Used by Run and by tests;
	// handlers should prefer TriggerSync.
	SyncNow(ctx context.Context) error
	Status(ctx context.Context) Status
}

// Transport is the remote reconciliation protocol.
type Transport interface {
	// PushEvents submits one idempotent batch. Returns ErrConfigMissing when
	// no endpoint/token is configured and ErrTransportFailure (wrapped) for
	// anything that prevented a well-formed response.
	PushEvents(ctx context.Context, req SyncRequest) (SyncResponse, error)
	// FetchDirectory pulls roster entries changed since the watermark.
	FetchDirectory(ctx context.Context, updatedSinceMillis int64) ([]DirectoryEmployee, error)
}
