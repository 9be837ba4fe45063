package schedule

// AnyWeekday marks a shift entry that applies to every day of the week; a
// fixed schedule is a single AnyWeekday row, a flexible one a row per weekday.
// Weekday-specific rows win over the AnyWeekday row.
const AnyWeekday = -1

// ShiftEntry is one employee's expected times for a weekday. Times are
// device-local "HH:MM". Break times are optional; a shift with no break has
// both empty.
type ShiftEntry struct {
	ID           int64
	EmployeeID   string
	Weekday      int // time.Weekday numbering (0 = Sunday), or AnyWeekday
	StartTime    string
	EndTime      string
	BreakStart   string
	BreakEnd     string
	GraceMinutes int
}

// HasBreak reports whether the entry defines a break window.
func (s ShiftEntry) HasBreak() bool {
	return s.BreakStart != "" && s.BreakEnd != ""
}
