package attendance

import (
	"testing"
	"time"

	"github.com/fieldclock/agent-go/internal/domain/attendance"
	"github.com/fieldclock/agent-go/internal/domain/employee"
	"github.com/fieldclock/agent-go/internal/domain/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// millisAt puts a clock time on a fixed workday in the device's zone.
func millisAt(hour, minute int) int64 {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.Local).UnixMilli()
}

func activeEmployee() employee.Employee {
	return employee.Employee{ID: "emp-1", NationalID: "1000200030", FullName: "Test Employee", Active: true}
}

func standardShift() schedule.ShiftEntry {
	return schedule.ShiftEntry{
		EmployeeID:   "emp-1",
		Weekday:      schedule.AnyWeekday,
		StartTime:    "09:00",
		EndTime:      "18:00",
		BreakStart:   "13:00",
		BreakEnd:     "14:00",
		GraceMinutes: 10,
	}
}

func event(kind attendance.EventKind, hour, minute int) attendance.Event {
	return attendance.Event{
		EmployeeID:       "emp-1",
		Date:             "2026-03-02",
		Kind:             kind,
		CapturedAtMillis: millisAt(hour, minute),
	}
}

func TestValidateSequence_DuplicateKind(t *testing.T) {
	existing := []attendance.Event{event(attendance.KindEnterShift, 9, 0)}

	_, _, err := ValidateSequence(existing, attendance.KindEnterShift, millisAt(9, 30))

	assert.ErrorIs(t, err, attendance.ErrDuplicateEvent)
}

func TestValidateSequence_OutOfOrderTimestamp(t *testing.T) {
	existing := []attendance.Event{event(attendance.KindEnterShift, 9, 0)}

	_, _, err := ValidateSequence(existing, attendance.KindLeaveBreak, millisAt(8, 45))

	assert.ErrorIs(t, err, attendance.ErrOutOfOrderTimestamp)
}

func TestValidateSequence_EqualTimestampRejected(t *testing.T) {
	existing := []attendance.Event{event(attendance.KindEnterShift, 9, 0)}

	_, _, err := ValidateSequence(existing, attendance.KindLeaveBreak, millisAt(9, 0))

	assert.ErrorIs(t, err, attendance.ErrOutOfOrderTimestamp)
}

func TestValidateSequence_OutOfCanonicalOrderIsAdvisory(t *testing.T) {
	// First punch of the day is LEAVE_BREAK: accepted, but flagged.
	note, next, err := ValidateSequence(nil, attendance.KindLeaveBreak, millisAt(13, 0))

	require.NoError(t, err)
	assert.Equal(t, "unexpected sequence: expected ENTER_SHIFT, got LEAVE_BREAK", note)
	require.NotNil(t, next)
	assert.Equal(t, attendance.KindEnterShift, *next)
}

func TestValidateSequence_NextExpectedProgression(t *testing.T) {
	note, next, err := ValidateSequence(nil, attendance.KindEnterShift, millisAt(9, 0))
	require.NoError(t, err)
	assert.Empty(t, note)
	require.NotNil(t, next)
	assert.Equal(t, attendance.KindLeaveBreak, *next)

	existing := []attendance.Event{
		event(attendance.KindEnterShift, 9, 0),
		event(attendance.KindLeaveBreak, 13, 0),
		event(attendance.KindReturnBreak, 14, 0),
	}
	note, next, err = ValidateSequence(existing, attendance.KindLeaveShift, millisAt(18, 0))
	require.NoError(t, err)
	assert.Empty(t, note)
	assert.Nil(t, next, "a complete day has no next punch")
}

func TestEvaluateRules_InactiveEmployee(t *testing.T) {
	emp := activeEmployee()
	emp.Deactivate()

	_, err := EvaluateRules(emp, standardShift(), attendance.KindEnterShift, millisAt(9, 0), nil)

	assert.ErrorIs(t, err, employee.ErrEmployeeInactive)
}

func TestEvaluateRules_LatenessWithinGrace(t *testing.T) {
	result, err := EvaluateRules(activeEmployee(), standardShift(), attendance.KindEnterShift, millisAt(9, 5), nil)

	require.NoError(t, err)
	require.NotNil(t, result.Marks)
	require.NotNil(t, result.Marks.LatenessMinutes)
	assert.Equal(t, 0, *result.Marks.LatenessMinutes)
}

func TestEvaluateRules_LatenessBeyondGrace(t *testing.T) {
	result, err := EvaluateRules(activeEmployee(), standardShift(), attendance.KindEnterShift, millisAt(9, 15), nil)

	require.NoError(t, err)
	require.NotNil(t, result.Marks.LatenessMinutes)
	assert.Equal(t, 15, *result.Marks.LatenessMinutes)
}

func TestEvaluateRules_EarlyArrivalIsNotLate(t *testing.T) {
	result, err := EvaluateRules(activeEmployee(), standardShift(), attendance.KindEnterShift, millisAt(8, 50), nil)

	require.NoError(t, err)
	require.NotNil(t, result.Marks.LatenessMinutes)
	assert.Equal(t, 0, *result.Marks.LatenessMinutes)
}

func TestEvaluateRules_EarlyLeave(t *testing.T) {
	existing := []attendance.Event{
		event(attendance.KindEnterShift, 9, 0),
		event(attendance.KindLeaveBreak, 13, 0),
		event(attendance.KindReturnBreak, 14, 0),
	}

	result, err := EvaluateRules(activeEmployee(), standardShift(), attendance.KindLeaveShift, millisAt(17, 40), existing)

	require.NoError(t, err)
	require.NotNil(t, result.Marks.EarlyLeaveMinutes)
	assert.Equal(t, 20, *result.Marks.EarlyLeaveMinutes)
}

func TestEvaluateRules_BreakMinutes(t *testing.T) {
	existing := []attendance.Event{
		event(attendance.KindEnterShift, 9, 0),
		event(attendance.KindLeaveBreak, 13, 0),
	}

	result, err := EvaluateRules(activeEmployee(), standardShift(), attendance.KindReturnBreak, millisAt(14, 5), existing)

	require.NoError(t, err)
	require.NotNil(t, result.Marks.BreakMinutes)
	assert.Equal(t, 65, *result.Marks.BreakMinutes)
}

func TestEvaluateRules_WorkedMinutesFullDay(t *testing.T) {
	existing := []attendance.Event{
		event(attendance.KindEnterShift, 9, 0),
		event(attendance.KindLeaveBreak, 13, 0),
		event(attendance.KindReturnBreak, 14, 0),
	}

	result, err := EvaluateRules(activeEmployee(), standardShift(), attendance.KindLeaveShift, millisAt(18, 0), existing)

	require.NoError(t, err)
	assert.Equal(t, 480, result.Marks.WorkedMinutes, "(13:00-09:00) + (18:00-14:00)")
}

func TestEvaluateRules_WorkedMinutesNoBreak(t *testing.T) {
	existing := []attendance.Event{event(attendance.KindEnterShift, 9, 0)}

	result, err := EvaluateRules(activeEmployee(), standardShift(), attendance.KindLeaveShift, millisAt(17, 30), existing)

	require.NoError(t, err)
	assert.Equal(t, 510, result.Marks.WorkedMinutes)
}

func TestEvaluateRules_WorkedMinutesCountsCompletedSegmentsOnly(t *testing.T) {
	// Mid-break: the morning segment is complete, the afternoon has not
	// started, and nothing is guessed from the wall clock.
	existing := []attendance.Event{
		event(attendance.KindEnterShift, 9, 0),
		event(attendance.KindLeaveBreak, 13, 0),
	}

	result, err := EvaluateRules(activeEmployee(), standardShift(), attendance.KindReturnBreak, millisAt(14, 0), existing)

	require.NoError(t, err)
	assert.Equal(t, 240, result.Marks.WorkedMinutes)
}

func TestEvaluateRules_ReversedBracketNeverGoesNegative(t *testing.T) {
	// LEAVE_BREAK landed before ENTER_SHIFT on an advisory out-of-order day.
	// The morning bracket is not sensible and counts as zero work.
	existing := []attendance.Event{event(attendance.KindLeaveBreak, 9, 0)}

	result, err := EvaluateRules(activeEmployee(), standardShift(), attendance.KindEnterShift, millisAt(10, 0), existing)

	require.NoError(t, err)
	require.NotNil(t, result.Marks)
	assert.Equal(t, 0, result.Marks.WorkedMinutes)
}

func TestEvaluateRules_ReversedNoBreakDayNeverGoesNegative(t *testing.T) {
	existing := []attendance.Event{event(attendance.KindLeaveShift, 9, 0)}

	result, err := EvaluateRules(activeEmployee(), standardShift(), attendance.KindEnterShift, millisAt(11, 0), existing)

	require.NoError(t, err)
	require.NotNil(t, result.Marks)
	assert.Equal(t, 0, result.Marks.WorkedMinutes)
}

func TestNextExpectedKind_EmptyDay(t *testing.T) {
	next := NextExpectedKind(nil)

	require.NotNil(t, next)
	assert.Equal(t, attendance.KindEnterShift, *next)
}

func TestNextExpectedKind_SkipsRecordedKinds(t *testing.T) {
	existing := []attendance.Event{
		event(attendance.KindEnterShift, 9, 0),
		event(attendance.KindLeaveBreak, 13, 0),
	}

	next := NextExpectedKind(existing)

	require.NotNil(t, next)
	assert.Equal(t, attendance.KindReturnBreak, *next)
}
