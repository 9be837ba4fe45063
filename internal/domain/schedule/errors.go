package schedule

import "errors"

var (
	ErrShiftNotFound = errors.New("no shift entry found for this employee and weekday")
)
