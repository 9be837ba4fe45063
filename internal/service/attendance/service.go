package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fieldclock/agent-go/internal/domain/attendance"
	"github.com/fieldclock/agent-go/internal/domain/device"
	"github.com/fieldclock/agent-go/internal/domain/employee"
	"github.com/fieldclock/agent-go/internal/domain/schedule"
	"github.com/fieldclock/agent-go/internal/domain/syncer"
	"github.com/fieldclock/agent-go/internal/pkg/badge"
	"github.com/fieldclock/agent-go/internal/pkg/clock"
	"github.com/fieldclock/agent-go/internal/pkg/lock"
	"github.com/google/uuid"
)

type AttendanceServiceImpl struct {
	ledger    attendance.EventLedger
	employees employee.EmployeeRepository
	shifts    schedule.ShiftRepository
	devices   device.DeviceRepository
	decoder   badge.Decoder
	clock     clock.Clock
	notifier  syncer.Notifier
	locks     *lock.KeyedMutex

	deviceID        string
	duplicateWindow time.Duration

	// lastScans absorbs scanner double taps: it remembers recent
	// (employee, kind) submissions whether or not they persisted.
	scanMu    sync.Mutex
	lastScans map[string]int64
}

func NewAttendanceService(
	ledger attendance.EventLedger,
	employeeRepo employee.EmployeeRepository,
	shiftRepo schedule.ShiftRepository,
	deviceRepo device.DeviceRepository,
	decoder badge.Decoder,
	clk clock.Clock,
	notifier syncer.Notifier,
	deviceID string,
	duplicateWindow time.Duration,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		ledger:          ledger,
		employees:       employeeRepo,
		shifts:          shiftRepo,
		devices:         deviceRepo,
		decoder:         decoder,
		clock:           clk,
		notifier:        notifier,
		locks:           lock.NewKeyedMutex(),
		deviceID:        deviceID,
		duplicateWindow: duplicateWindow,
		lastScans:       make(map[string]int64),
	}
}

// SubmitEvent implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) SubmitEvent(ctx context.Context, req attendance.SubmitEventRequest) (attendance.EventResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.EventResponse{}, err
	}

	emp, err := s.resolveEmployee(ctx, req)
	if err != nil {
		return attendance.EventResponse{}, err
	}
	if !emp.Active {
		return attendance.EventResponse{}, employee.ErrEmployeeInactive
	}

	now := s.clock.Now()
	capturedAt := now.UnixMilli()
	date := now.Format("2006-01-02")

	if err := s.checkRescan(ctx, emp.ID, req.Kind, capturedAt); err != nil {
		return attendance.EventResponse{}, err
	}

	// Serialize per employee-day so the duplicate/ordering checks and the
	// insert behave as one atomic step.
	key := emp.ID + "|" + date
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	eventsToday, err := s.ledger.ListByEmployeeAndDate(ctx, emp.ID, date)
	if err != nil {
		return attendance.EventResponse{}, fmt.Errorf("failed to load employee-day events: %w", err)
	}

	shift, err := s.shifts.GetForEmployee(ctx, emp.ID, int(now.Weekday()))
	if err != nil {
		if errors.Is(err, schedule.ErrShiftNotFound) {
			return attendance.EventResponse{}, attendance.ErrScheduleMissing
		}
		return attendance.EventResponse{}, fmt.Errorf("failed to load shift entry: %w", err)
	}

	result, err := EvaluateRules(emp, shift, req.Kind, capturedAt, eventsToday)
	if err != nil {
		return attendance.EventResponse{}, err
	}

	captureMode := req.CaptureMode
	if captureMode == "" {
		captureMode = attendance.CaptureModeManual
	}

	event := attendance.Event{
		ID:               uuid.NewString(),
		EmployeeID:       emp.ID,
		Date:             date,
		Kind:             req.Kind,
		CapturedAtMillis: capturedAt,
		DeviceID:         s.deviceID,
		CaptureMode:      captureMode,
		RawPayload:       req.RawPayload,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		Note:             req.Note,
		Marks:            result.Marks,
		SyncState:        attendance.SyncPending,
	}

	created, err := s.ledger.Create(ctx, event)
	if err != nil {
		return attendance.EventResponse{}, fmt.Errorf("failed to persist attendance event: %w", err)
	}

	// Nudge the coordinator; never block the caller on network I/O.
	s.notifier.TriggerSync(syncer.TriggerImmediate)

	resp := s.mapEventToResponse(ctx, created, emp.FullName)
	resp.NextExpected = result.NextExpected
	resp.SequenceNote = result.Message
	return resp, nil
}

// resolveEmployee finds the roster row either directly by id or by decoding
// the scanned badge payload into a national id.
func (s *AttendanceServiceImpl) resolveEmployee(ctx context.Context, req attendance.SubmitEventRequest) (employee.Employee, error) {
	if req.EmployeeID != "" {
		emp, err := s.employees.GetByID(ctx, req.EmployeeID)
		if err != nil {
			return employee.Employee{}, err
		}
		return emp, nil
	}

	nationalID, err := s.decoder.Decode(req.RawPayload)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to decode badge payload: %w", err)
	}
	emp, err := s.employees.GetByNationalID(ctx, nationalID)
	if err != nil {
		return employee.Employee{}, err
	}
	return emp, nil
}

// checkRescan rejects a same-kind submission arriving within the duplicate
// window of a prior one, persisted or not. The in-memory guard catches
// double taps in this process; the ledger lookup covers restarts and day
// boundaries.
func (s *AttendanceServiceImpl) checkRescan(ctx context.Context, employeeID string, kind attendance.EventKind, capturedAt int64) error {
	window := s.duplicateWindow.Milliseconds()
	if window <= 0 {
		return nil
	}

	key := employeeID + "|" + string(kind)

	s.scanMu.Lock()
	last, seen := s.lastScans[key]
	s.lastScans[key] = capturedAt
	s.scanMu.Unlock()

	if seen && capturedAt-last < window {
		return attendance.ErrDuplicateEvent
	}

	lastEvent, err := s.ledger.GetLastByEmployeeAndKind(ctx, employeeID, kind)
	if err != nil {
		return fmt.Errorf("failed to check re-scan window: %w", err)
	}
	if lastEvent != nil && capturedAt-lastEvent.CapturedAtMillis < window {
		return attendance.ErrDuplicateEvent
	}
	return nil
}

// ListEvents implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListEvents(ctx context.Context, filter attendance.EventFilter) (attendance.ListEventsResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListEventsResponse{}, err
	}

	events, total, err := s.ledger.List(ctx, filter)
	if err != nil {
		return attendance.ListEventsResponse{}, fmt.Errorf("failed to list attendance events: %w", err)
	}

	names := make(map[string]string)
	responses := make([]attendance.EventResponse, 0, len(events))
	for _, ev := range events {
		name, ok := names[ev.EmployeeID]
		if !ok {
			if emp, err := s.employees.GetByID(ctx, ev.EmployeeID); err == nil {
				name = emp.FullName
			}
			names[ev.EmployeeID] = name
		}
		responses = append(responses, s.mapEventToResponse(ctx, ev, name))
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page == 0 {
		page = 1
	}

	return attendance.ListEventsResponse{
		TotalCount: total,
		Page:       page,
		Limit:      limit,
		Events:     responses,
	}, nil
}

// PendingSyncCount implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) PendingSyncCount(ctx context.Context) (int, error) {
	count, err := s.ledger.CountUnsynced(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending events: %w", err)
	}
	return count, nil
}

// NextExpectedKind implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) NextExpectedKind(ctx context.Context, employeeID string) (*attendance.EventKind, error) {
	if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	date := s.clock.Now().Format("2006-01-02")
	eventsToday, err := s.ledger.ListByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee-day events: %w", err)
	}
	return NextExpectedKind(eventsToday), nil
}

// mapEventToResponse converts a ledger entry to its collaborator-facing view.
// Skew correction is display-only; the stored timestamp never changes.
func (s *AttendanceServiceImpl) mapEventToResponse(ctx context.Context, ev attendance.Event, employeeName string) attendance.EventResponse {
	var skew int64
	if dev, err := s.devices.Get(ctx, s.deviceID); err == nil {
		skew = dev.ClockSkewMillis
	}

	return attendance.EventResponse{
		ID:                  ev.ID,
		EmployeeID:          ev.EmployeeID,
		EmployeeName:        employeeName,
		Date:                ev.Date,
		Kind:                ev.Kind,
		CapturedAtMillis:    ev.CapturedAtMillis,
		SkewCorrectedMillis: ev.CapturedAtMillis + skew,
		CaptureMode:         ev.CaptureMode,
		Latitude:            ev.Latitude,
		Longitude:           ev.Longitude,
		Note:                ev.Note,
		Marks:               ev.Marks,
		SyncState:           ev.SyncState,
		SyncError:           ev.SyncError,
	}
}
