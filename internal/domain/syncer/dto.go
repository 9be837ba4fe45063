package syncer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fieldclock/agent-go/internal/pkg/validator"
)

// SyncRecord is one attendance event on the wire, device → server.
type SyncRecord struct {
	ID                    string          `json:"id"`
	EmployeeID            string          `json:"employeeId"`
	Date                  string          `json:"date"`
	EventKind             string          `json:"eventKind"`
	DeviceTimestampMillis int64           `json:"deviceTimestampMillis"`
	DeviceID              string          `json:"deviceId"`
	CaptureMode           string          `json:"captureMode"`
	RawPayload            string          `json:"rawPayload"`
	GpsLat                *float64        `json:"gpsLat,omitempty"`
	GpsLon                *float64        `json:"gpsLon,omitempty"`
	Note                  *string         `json:"note,omitempty"`
	ComputedMarks         json.RawMessage `json:"computedMarks,omitempty"`
}

// SyncRequest is one idempotent batch push. Resubmitting the same batch with
// the same idempotency key after a lost response is safe server-side.
type SyncRequest struct {
	Records        []SyncRecord `json:"records"`
	DeviceID       string       `json:"deviceId"`
	IdempotencyKey string       `json:"idempotencyKey"`
}

// RecordError is a per-record rejection in a sync response.
type RecordError struct {
	RecordID string `json:"recordId"`
	Error    string `json:"error"`
}

// SyncResponse is the server's partial-success-tolerant answer: records
// neither processed nor errored stay pending for the next batch.
type SyncResponse struct {
	Success            bool          `json:"success"`
	ServerTimeMillis   int64         `json:"serverTimeMillis"`
	ProcessedRecordIDs []string      `json:"processedRecordIds"`
	Errors             []RecordError `json:"errors"`
}

// DirectoryShift is a shift-table row in a directory pull.
type DirectoryShift struct {
	Weekday      int    `json:"weekday"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	BreakStart   string `json:"breakStart,omitempty"`
	BreakEnd     string `json:"breakEnd,omitempty"`
	GraceMinutes int    `json:"graceMinutes"`
}

// Validate rejects shift rows the rules engine could not evaluate. Weekday -1
// marks a row that applies to every day of the week.
func (s DirectoryShift) Validate() error {
	var errs validator.ValidationErrors

	if s.Weekday < -1 || s.Weekday > int(time.Saturday) {
		errs = append(errs, validator.ValidationError{Field: "weekday", Message: "must be -1 or 0-6"})
	}
	if !validator.IsValidClockTime(s.StartTime) {
		errs = append(errs, validator.ValidationError{Field: "startTime", Message: "must be HH:MM"})
	}
	if !validator.IsValidClockTime(s.EndTime) {
		errs = append(errs, validator.ValidationError{Field: "endTime", Message: "must be HH:MM"})
	}
	if s.BreakStart != "" && !validator.IsValidClockTime(s.BreakStart) {
		errs = append(errs, validator.ValidationError{Field: "breakStart", Message: "must be HH:MM"})
	}
	if s.BreakEnd != "" && !validator.IsValidClockTime(s.BreakEnd) {
		errs = append(errs, validator.ValidationError{Field: "breakEnd", Message: "must be HH:MM"})
	}
	if s.GraceMinutes < 0 {
		errs = append(errs, validator.ValidationError{Field: "graceMinutes", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DirectoryEmployee is one roster entry in a directory pull.
type DirectoryEmployee struct {
	ID              string           `json:"id"`
	NationalID      string           `json:"nationalId"`
	FullName        string           `json:"fullName"`
	Active          bool             `json:"active"`
	UpdatedAtMillis int64            `json:"updatedAtMillis"`
	Shifts          []DirectoryShift `json:"shifts"`
}

func (d DirectoryEmployee) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(d.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	if !validator.IsValidNationalID(d.NationalID) {
		errs = append(errs, validator.ValidationError{Field: "nationalId", Message: "must be 5-20 digits"})
	}
	if validator.IsEmpty(d.FullName) {
		errs = append(errs, validator.ValidationError{Field: "fullName", Message: "is required"})
	}
	for i, sh := range d.Shifts {
		if err := sh.Validate(); err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("shifts[%d]", i),
				Message: err.Error(),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
