package attendance

import "errors"

// Attendance domain errors
var (
	// Submission errors; all terminal and side-effect free
	ErrDuplicateEvent      = errors.New("an event of this kind already exists for this employee today")
	ErrOutOfOrderTimestamp = errors.New("event timestamp is not after the latest recorded event for this employee today")
	ErrScheduleMissing     = errors.New("no shift schedule configured for this employee")
	ErrUnknownKind         = errors.New("unknown event kind")

	// General errors
	ErrEventNotFound = errors.New("attendance event not found")
)
