package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fieldclock/agent-go/internal/domain/attendance"
	"github.com/fieldclock/agent-go/internal/domain/employee"
	"github.com/fieldclock/agent-go/internal/domain/schedule"
)

// NextExpectedKind returns the first kind in the canonical punch order that
// is absent from the day's events, or nil when the day is complete.
func NextExpectedKind(existing []attendance.Event) *attendance.EventKind {
	for _, kind := range attendance.KindOrder {
		found := false
		for _, ev := range existing {
			if ev.Kind == kind {
				found = true
				break
			}
		}
		if !found {
			k := kind
			return &k
		}
	}
	return nil
}

// ValidateSequence applies the duplicate and ordering rules to a candidate
// punch against the employee-day's recorded events. Sequence deviations are
// advisory: a non-duplicate punch out of canonical order is accepted and the
// returned note reports the deviation. The returned next-expected kind is
// the hint after the candidate is accepted.
func ValidateSequence(existing []attendance.Event, kind attendance.EventKind, capturedAtMillis int64) (sequenceNote string, next *attendance.EventKind, err error) {
	var latest int64
	for _, ev := range existing {
		if ev.Kind == kind {
			return "", nil, attendance.ErrDuplicateEvent
		}
		if ev.CapturedAtMillis > latest {
			latest = ev.CapturedAtMillis
		}
	}

	// Events must arrive chronologically per employee-day; out-of-order
	// capture is rejected, never reordered.
	if len(existing) > 0 && capturedAtMillis <= latest {
		return "", nil, attendance.ErrOutOfOrderTimestamp
	}

	expected := NextExpectedKind(existing)
	if expected != nil && *expected != kind {
		sequenceNote = fmt.Sprintf("unexpected sequence: expected %s, got %s", *expected, kind)
	}

	accepted := append(append([]attendance.Event{}, existing...), attendance.Event{Kind: kind, CapturedAtMillis: capturedAtMillis})
	return sequenceNote, NextExpectedKind(accepted), nil
}

// EvaluateRules validates a candidate punch and, on acceptance, computes the
// derived marks against the employee's shift entry for that day.
func EvaluateRules(emp employee.Employee, shift schedule.ShiftEntry, kind attendance.EventKind, capturedAtMillis int64, existing []attendance.Event) (attendance.ValidationResult, error) {
	if !emp.Active {
		return attendance.ValidationResult{}, employee.ErrEmployeeInactive
	}

	sequenceNote, next, err := ValidateSequence(existing, kind, capturedAtMillis)
	if err != nil {
		return attendance.ValidationResult{}, err
	}

	marks := computeMarks(shift, kind, capturedAtMillis, existing)

	return attendance.ValidationResult{
		Valid:        true,
		Message:      sequenceNote,
		Marks:        marks,
		NextExpected: next,
	}, nil
}

func computeMarks(shift schedule.ShiftEntry, kind attendance.EventKind, capturedAtMillis int64, existing []attendance.Event) *attendance.Marks {
	marks := &attendance.Marks{}

	switch kind {
	case attendance.KindEnterShift:
		scheduledStart := scheduledMillis(capturedAtMillis, shift.StartTime)
		grace := int64(shift.GraceMinutes) * 60_000
		lateness := 0
		if diff := capturedAtMillis - scheduledStart; diff > grace {
			lateness = int(diff / 60_000)
		}
		marks.LatenessMinutes = &lateness

	case attendance.KindLeaveShift:
		scheduledEnd := scheduledMillis(capturedAtMillis, shift.EndTime)
		early := 0
		if diff := scheduledEnd - capturedAtMillis; diff > 0 {
			early = int(diff / 60_000)
		}
		marks.EarlyLeaveMinutes = &early

	case attendance.KindReturnBreak:
		if leaveBreak := findKind(existing, attendance.KindLeaveBreak); leaveBreak != nil {
			breakMins := int((capturedAtMillis - leaveBreak.CapturedAtMillis) / 60_000)
			marks.BreakMinutes = &breakMins
		}
	}

	marks.WorkedMinutes = workedMinutes(append(append([]attendance.Event{}, existing...), attendance.Event{Kind: kind, CapturedAtMillis: capturedAtMillis}))
	return marks
}

// workedMinutes sums completed work segments only: incomplete brackets
// contribute zero rather than an error or an elapsed-to-now guess. Reversed
// brackets, possible on advisory-accepted out-of-canonical-order days, also
// contribute zero.
func workedMinutes(events []attendance.Event) int {
	byKind := make(map[attendance.EventKind]int64, len(events))
	for _, ev := range events {
		byKind[ev.Kind] = ev.CapturedAtMillis
	}

	enter, hasEnter := byKind[attendance.KindEnterShift]
	leaveBreak, hasLeaveBreak := byKind[attendance.KindLeaveBreak]
	returnBreak, hasReturnBreak := byKind[attendance.KindReturnBreak]
	leave, hasLeave := byKind[attendance.KindLeaveShift]

	// A day with no break punches is a single bracket.
	if hasEnter && hasLeave && !hasLeaveBreak && !hasReturnBreak {
		return int(max(leave-enter, 0) / 60_000)
	}

	var total int64
	if hasEnter && hasLeaveBreak {
		total += max(leaveBreak-enter, 0)
	}
	if hasReturnBreak && hasLeave {
		total += max(leave-returnBreak, 0)
	}
	return int(total / 60_000)
}

func findKind(events []attendance.Event, kind attendance.EventKind) *attendance.Event {
	for i := range events {
		if events[i].Kind == kind {
			return &events[i]
		}
	}
	return nil
}

// scheduledMillis resolves an "HH:MM" schedule time on the capture day, in
// device-local time.
func scheduledMillis(capturedAtMillis int64, hhmm string) int64 {
	captured := time.UnixMilli(capturedAtMillis)
	hourStr, minuteStr, _ := strings.Cut(hhmm, ":")
	hour, _ := strconv.Atoi(hourStr)
	minute, _ := strconv.Atoi(minuteStr)
	scheduled := time.Date(captured.Year(), captured.Month(), captured.Day(), hour, minute, 0, 0, captured.Location())
	return scheduled.UnixMilli()
}
