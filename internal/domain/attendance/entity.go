package attendance

import (
	"time"
)

// EventKind is one of the four punches an employee can record in a day.
type EventKind string

const (
	KindEnterShift  EventKind = "ENTER_SHIFT"
	KindLeaveBreak  EventKind = "LEAVE_BREAK"
	KindReturnBreak EventKind = "RETURN_BREAK"
	KindLeaveShift  EventKind = "LEAVE_SHIFT"
)

// KindOrder is the canonical sequence of punches within a day. It drives the
// next-expected hint; out-of-sequence punches are accepted but flagged.
var KindOrder = []EventKind{KindEnterShift, KindLeaveBreak, KindReturnBreak, KindLeaveShift}

// IsValidKind reports whether k is one of the four known punch kinds.
func IsValidKind(k EventKind) bool {
	for _, known := range KindOrder {
		if k == known {
			return true
		}
	}
	return false
}

// SyncState tracks where an event stands against the server.
type SyncState string

const (
	SyncPending SyncState = "PENDING"
	SyncSynced  SyncState = "SYNCED"
	SyncError   SyncState = "ERROR"
)

// Capture modes: how the employee identifier was read on the device.
const (
	CaptureModeQR      = "QR"
	CaptureModeIDCard  = "ID_CARD"
	CaptureModeBarcode = "BARCODE"
	CaptureModeManual  = "MANUAL"
)

// Marks holds the derived figures the rules engine computes against the
// shift schedule. The ledger stores it as an opaque JSON blob.
type Marks struct {
	LatenessMinutes   *int `json:"lateness_minutes,omitempty"`
	EarlyLeaveMinutes *int `json:"early_leave_minutes,omitempty"`
	BreakMinutes      *int `json:"break_minutes,omitempty"`
	WorkedMinutes     int  `json:"worked_minutes"`
}

// Event is one attendance punch as stored in the on-device ledger. Events are
// never updated or deleted after creation; the sync state columns are the
// single exception and only the sync coordinator touches them.
type Event struct {
	ID               string
	EmployeeID       string
	Date             string // device-local calendar day, "2006-01-02"
	Kind             EventKind
	CapturedAtMillis int64 // device clock, milliseconds since epoch
	DeviceID         string
	CaptureMode      string
	RawPayload       string
	Latitude         *float64
	Longitude        *float64
	Note             *string
	Marks            *Marks

	SyncState               SyncState
	SyncError               *string
	ServerConfirmedAtMillis *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}
