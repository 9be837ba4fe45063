package attendance

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fieldclock/agent-go/internal/domain/attendance"
	"github.com/fieldclock/agent-go/internal/domain/employee"
	"github.com/fieldclock/agent-go/internal/domain/schedule"
	"github.com/fieldclock/agent-go/internal/pkg/badge"
	"github.com/fieldclock/agent-go/internal/repository/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) NowMillis() int64 {
	return c.Now().UnixMilli()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type noopNotifier struct{}

func (noopNotifier) TriggerSync(reason string) {}

type serviceFixture struct {
	service   attendance.AttendanceService
	ledger    attendance.EventLedger
	employees employee.EmployeeRepository
	clock     *fakeClock
	db        *sqlite.DB
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.NewSQLiteDB(filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ledger := sqlite.NewEventLedger(db)
	employeeRepo := sqlite.NewEmployeeRepository(db)
	shiftRepo := sqlite.NewShiftRepository(db)
	deviceRepo := sqlite.NewDeviceRepository(db)

	require.NoError(t, employeeRepo.Upsert(ctx, employee.Employee{
		ID:         "emp-1",
		NationalID: "1000200030",
		FullName:   "Test Employee",
		Active:     true,
	}))
	require.NoError(t, shiftRepo.ReplaceForEmployee(ctx, "emp-1", []schedule.ShiftEntry{{
		EmployeeID:   "emp-1",
		Weekday:      schedule.AnyWeekday,
		StartTime:    "09:00",
		EndTime:      "18:00",
		BreakStart:   "13:00",
		BreakEnd:     "14:00",
		GraceMinutes: 10,
	}}))

	clk := &fakeClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)}
	svc := NewAttendanceService(
		ledger,
		employeeRepo,
		shiftRepo,
		deviceRepo,
		badge.NewDecoder(),
		clk,
		noopNotifier{},
		"device-1",
		10*time.Second,
	)

	return &serviceFixture{
		service:   svc,
		ledger:    ledger,
		employees: employeeRepo,
		clock:     clk,
		db:        db,
	}
}

func TestAttendanceService_SubmitEvent_Success(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	resp, err := f.service.SubmitEvent(ctx, attendance.SubmitEventRequest{
		EmployeeID:  "emp-1",
		Kind:        attendance.KindEnterShift,
		CaptureMode: attendance.CaptureModeManual,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "emp-1", resp.EmployeeID)
	assert.Equal(t, "2026-03-02", resp.Date)
	assert.Equal(t, attendance.SyncPending, resp.SyncState)
	require.NotNil(t, resp.NextExpected)
	assert.Equal(t, attendance.KindLeaveBreak, *resp.NextExpected)
	require.NotNil(t, resp.Marks)
	require.NotNil(t, resp.Marks.LatenessMinutes)
	assert.Equal(t, 0, *resp.Marks.LatenessMinutes)
}

func TestAttendanceService_SubmitEvent_BadgePayload(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	resp, err := f.service.SubmitEvent(ctx, attendance.SubmitEventRequest{
		RawPayload:  `{"nid":"1000200030"}`,
		Kind:        attendance.KindEnterShift,
		CaptureMode: attendance.CaptureModeQR,
	})

	require.NoError(t, err)
	assert.Equal(t, "emp-1", resp.EmployeeID)
	assert.Equal(t, "Test Employee", resp.EmployeeName)
}

func TestAttendanceService_SubmitEvent_UnknownEmployee(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.service.SubmitEvent(ctx, attendance.SubmitEventRequest{
		EmployeeID: "nobody",
		Kind:       attendance.KindEnterShift,
	})

	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestAttendanceService_SubmitEvent_DuplicateLeavesSingleRecord(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.service.SubmitEvent(ctx, attendance.SubmitEventRequest{
		EmployeeID: "emp-1",
		Kind:       attendance.KindEnterShift,
	})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.service.SubmitEvent(ctx, attendance.SubmitEventRequest{
		EmployeeID: "emp-1",
		Kind:       attendance.KindEnterShift,
	})
	assert.ErrorIs(t, err, attendance.ErrDuplicateEvent)

	events, err := f.ledger.ListByEmployeeAndDate(ctx, "emp-1", "2026-03-02")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestAttendanceService_SubmitEvent_RescanWindow(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.service.SubmitEvent(ctx, attendance.SubmitEventRequest{
		EmployeeID: "emp-1",
		Kind:       attendance.KindEnterShift,
	})
	require.NoError(t, err)

	// A second tap of any kind inside the window is treated as the same
	// physical scan.
	f.clock.Advance(3 * time.Second)
	_, err = f.service.SubmitEvent(ctx, attendance.SubmitEventRequest{
		EmployeeID: "emp-1",
		Kind:       attendance.KindEnterShift,
	})
	assert.ErrorIs(t, err, attendance.ErrDuplicateEvent)
}

func TestAttendanceService_SubmitEvent_RescanWindowSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.service.SubmitEvent(ctx, attendance.SubmitEventRequest{
		EmployeeID: "emp-1",
		Kind:       attendance.KindEnterShift,
	})
	require.NoError(t, err)

	// A fresh service over the same ledger simulates a process restart:
	// the persisted event still backs the window check.
	restarted := NewAttendanceService(
		f.ledger,
		f.employees,
		sqlite.NewShiftRepository(f.db),
		sqlite.NewDeviceRepository(f.db),
		badge.NewDecoder(),
		f.clock,
		noopNotifier{},
		"device-1",
		10*time.Second,
	)

	f.clock.Advance(3 * time.Second)
	_, err = restarted.SubmitEvent(ctx, attendance.SubmitEventRequest{
		EmployeeID: "emp-1",
		Kind:       attendance.KindEnterShift,
	})
	assert.ErrorIs(t, err, attendance.ErrDuplicateEvent)
}

func TestAttendanceService_SubmitEvent_DeactivatedMidDay(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.service.SubmitEvent(ctx, attendance.SubmitEventRequest{
		EmployeeID: "emp-1",
		Kind:       attendance.KindEnterShift,
	})
	require.NoError(t, err)

	require.NoError(t, f.employees.SetActive(ctx, "emp-1", false))

	f.clock.Advance(4 * time.Hour)
	_, err = f.service.SubmitEvent(ctx, attendance.SubmitEventRequest{
		EmployeeID: "emp-1",
		Kind:       attendance.KindLeaveBreak,
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeInactive)

	// Historical events are untouched by deactivation.
	events, err := f.ledger.ListByEmployeeAndDate(ctx, "emp-1", "2026-03-02")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestAttendanceService_SubmitEvent_NoSchedule(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	require.NoError(t, f.employees.Upsert(ctx, employee.Employee{
		ID:         "emp-2",
		NationalID: "2000300040",
		FullName:   "No Schedule",
		Active:     true,
	}))

	_, err := f.service.SubmitEvent(ctx, attendance.SubmitEventRequest{
		EmployeeID: "emp-2",
		Kind:       attendance.KindEnterShift,
	})

	assert.ErrorIs(t, err, attendance.ErrScheduleMissing)
}

func TestAttendanceService_PendingSyncCount(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	count, err := f.service.PendingSyncCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = f.service.SubmitEvent(ctx, attendance.SubmitEventRequest{
		EmployeeID: "emp-1",
		Kind:       attendance.KindEnterShift,
	})
	require.NoError(t, err)

	f.clock.Advance(4 * time.Hour)
	_, err = f.service.SubmitEvent(ctx, attendance.SubmitEventRequest{
		EmployeeID: "emp-1",
		Kind:       attendance.KindLeaveBreak,
	})
	require.NoError(t, err)

	count, err = f.service.PendingSyncCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAttendanceService_NextExpectedKind(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	next, err := f.service.NextExpectedKind(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, attendance.KindEnterShift, *next)

	_, err = f.service.SubmitEvent(ctx, attendance.SubmitEventRequest{
		EmployeeID: "emp-1",
		Kind:       attendance.KindEnterShift,
	})
	require.NoError(t, err)

	next, err = f.service.NextExpectedKind(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, attendance.KindLeaveBreak, *next)
}

func TestAttendanceService_ListEvents_FilterBySyncState(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	resp, err := f.service.SubmitEvent(ctx, attendance.SubmitEventRequest{
		EmployeeID: "emp-1",
		Kind:       attendance.KindEnterShift,
	})
	require.NoError(t, err)

	require.NoError(t, f.ledger.MarkSynced(ctx, []string{resp.ID}, f.clock.NowMillis()))

	pending := string(attendance.SyncPending)
	result, err := f.service.ListEvents(ctx, attendance.EventFilter{SyncState: &pending, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, result.Events)

	synced := string(attendance.SyncSynced)
	result, err = f.service.ListEvents(ctx, attendance.EventFilter{SyncState: &synced, Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	assert.Equal(t, resp.ID, result.Events[0].ID)
	assert.Equal(t, "Test Employee", result.Events[0].EmployeeName)
}
