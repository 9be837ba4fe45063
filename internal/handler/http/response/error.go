package response

import (
	"errors"
	"net/http"

	"github.com/fieldclock/agent-go/internal/domain/attendance"
	"github.com/fieldclock/agent-go/internal/domain/device"
	"github.com/fieldclock/agent-go/internal/domain/employee"
	"github.com/fieldclock/agent-go/internal/domain/schedule"
	"github.com/fieldclock/agent-go/internal/domain/syncer"
	"github.com/fieldclock/agent-go/internal/pkg/badge"
	"github.com/fieldclock/agent-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Attendance domain errors
	switch {
	case errors.Is(err, attendance.ErrDuplicateEvent):
		Conflict(w, "Event of this kind already recorded for the employee today")
	case errors.Is(err, attendance.ErrOutOfOrderTimestamp):
		Conflict(w, "Event capture time precedes the employee's latest event today")
	case errors.Is(err, attendance.ErrScheduleMissing):
		UnprocessableEntity(w, "Employee has no shift schedule for this day")
	case errors.Is(err, attendance.ErrUnknownKind):
		BadRequest(w, "Unknown event kind", nil)
	case errors.Is(err, attendance.ErrEventNotFound):
		NotFound(w, "Attendance event not found")
	case errors.Is(err, badge.ErrUnreadablePayload):
		BadRequest(w, "Badge payload could not be decoded", nil)

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		UnprocessableEntity(w, "Employee is deactivated")
	case errors.Is(err, employee.ErrNationalIDExists):
		Conflict(w, "National ID already registered")

	// Schedule domain errors
	case errors.Is(err, schedule.ErrShiftNotFound):
		NotFound(w, "Shift schedule not found")

	// Device domain errors
	case errors.Is(err, device.ErrDeviceNotFound):
		NotFound(w, "Device is not provisioned")

	// Sync domain errors
	case errors.Is(err, syncer.ErrConfigMissing):
		UnprocessableEntity(w, "Sync endpoint is not configured")
	case errors.Is(err, syncer.ErrTransportFailure):
		ServiceUnavailable(w, "Attendance server is unreachable")
	case errors.Is(err, syncer.ErrServerRejected):
		ServiceUnavailable(w, "Attendance server rejected the request")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
