package attendance

import (
	"github.com/fieldclock/agent-go/internal/pkg/validator"
)

// SubmitEventRequest is a raw punch as captured by the scanner UI. Either
// EmployeeID (manual entry) or RawPayload (scanned badge) must be present.
type SubmitEventRequest struct {
	EmployeeID  string    `json:"employee_id,omitempty"`
	RawPayload  string    `json:"raw_payload,omitempty"`
	Kind        EventKind `json:"kind"`
	CaptureMode string    `json:"capture_mode"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Note        *string   `json:"note,omitempty"`
}

func (r SubmitEventRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) && validator.IsEmpty(r.RawPayload) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "either employee_id or raw_payload is required",
		})
	}
	if !IsValidKind(r.Kind) {
		errs = append(errs, validator.ValidationError{
			Field:   "kind",
			Message: "must be one of ENTER_SHIFT, LEAVE_BREAK, RETURN_BREAK, LEAVE_SHIFT",
		})
	}
	if !validator.IsEmpty(r.CaptureMode) {
		modes := []string{CaptureModeQR, CaptureModeIDCard, CaptureModeBarcode, CaptureModeManual}
		if !validator.IsInSlice(r.CaptureMode, modes) {
			errs = append(errs, validator.ValidationError{
				Field:   "capture_mode",
				Message: "must be one of QR, ID_CARD, BARCODE, MANUAL",
			})
		}
	}
	if r.Latitude != nil && !validator.IsValidLatitude(*r.Latitude) {
		errs = append(errs, validator.ValidationError{Field: "latitude", Message: "out of range"})
	}
	if r.Longitude != nil && !validator.IsValidLongitude(*r.Longitude) {
		errs = append(errs, validator.ValidationError{Field: "longitude", Message: "out of range"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidationResult is the rules engine's verdict on a candidate punch.
type ValidationResult struct {
	Valid        bool
	Message      string
	Marks        *Marks
	NextExpected *EventKind
}

// EventFilter narrows ledger listings for the UI shell.
type EventFilter struct {
	EmployeeID *string
	Date       *string
	StartDate  *string
	EndDate    *string
	SyncState  *string
	Page       int
	Limit      int
	SortOrder  string
}

func (f EventFilter) Validate() error {
	var errs validator.ValidationErrors

	for field, v := range map[string]*string{"date": f.Date, "start_date": f.StartDate, "end_date": f.EndDate} {
		if v != nil && *v != "" {
			if _, ok := validator.IsValidDate(*v); !ok {
				errs = append(errs, validator.ValidationError{Field: field, Message: "must be YYYY-MM-DD"})
			}
		}
	}
	if f.SyncState != nil && *f.SyncState != "" {
		if !validator.IsInSlice(*f.SyncState, []string{string(SyncPending), string(SyncSynced), string(SyncError)}) {
			errs = append(errs, validator.ValidationError{Field: "sync_state", Message: "must be PENDING, SYNCED or ERROR"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// EventResponse is the collaborator-facing view of a ledger entry.
// SkewCorrectedMillis is informational only: capture time plus the device's
// last-known skew, for reconciliation against server records.
type EventResponse struct {
	ID                  string     `json:"id"`
	EmployeeID          string     `json:"employee_id"`
	EmployeeName        string     `json:"employee_name,omitempty"`
	Date                string     `json:"date"`
	Kind                EventKind  `json:"kind"`
	CapturedAtMillis    int64      `json:"captured_at_millis"`
	SkewCorrectedMillis int64      `json:"skew_corrected_millis"`
	CaptureMode         string     `json:"capture_mode"`
	Latitude            *float64   `json:"latitude,omitempty"`
	Longitude           *float64   `json:"longitude,omitempty"`
	Note                *string    `json:"note,omitempty"`
	Marks               *Marks     `json:"marks,omitempty"`
	SyncState           SyncState  `json:"sync_state"`
	SyncError           *string    `json:"sync_error,omitempty"`
	NextExpected        *EventKind `json:"next_expected,omitempty"`
	SequenceNote        string     `json:"sequence_note,omitempty"`
}

// ListEventsResponse wraps a filtered ledger listing.
type ListEventsResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	Events     []EventResponse `json:"events"`
}
