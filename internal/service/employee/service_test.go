package employee

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldclock/agent-go/internal/domain/employee"
	"github.com/fieldclock/agent-go/internal/domain/schedule"
	"github.com/fieldclock/agent-go/internal/domain/syncer"
	"github.com/fieldclock/agent-go/internal/pkg/clock"
	"github.com/fieldclock/agent-go/internal/repository/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTransport struct {
	gotSince int64
	entries  []syncer.DirectoryEmployee
	err      error
}

func (s *stubTransport) PushEvents(ctx context.Context, req syncer.SyncRequest) (syncer.SyncResponse, error) {
	return syncer.SyncResponse{}, nil
}

func (s *stubTransport) FetchDirectory(ctx context.Context, updatedSinceMillis int64) ([]syncer.DirectoryEmployee, error) {
	s.gotSince = updatedSinceMillis
	return s.entries, s.err
}

func newEmployeeFixture(t *testing.T, transport syncer.Transport) (employee.EmployeeService, employee.EmployeeRepository, schedule.ShiftRepository) {
	t.Helper()

	db, err := sqlite.NewSQLiteDB(filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	employeeRepo := sqlite.NewEmployeeRepository(db)
	shiftRepo := sqlite.NewShiftRepository(db)
	svc := NewEmployeeService(employeeRepo, shiftRepo, transport, clock.NewSystemClock())
	return svc, employeeRepo, shiftRepo
}

func TestEmployeeService_RefreshDirectory_AppliesEntries(t *testing.T) {
	ctx := context.Background()
	transport := &stubTransport{
		entries: []syncer.DirectoryEmployee{{
			ID:              "emp-1",
			NationalID:      "1000200030",
			FullName:        "Test Employee",
			Active:          true,
			UpdatedAtMillis: 1772000000000,
			Shifts: []syncer.DirectoryShift{{
				Weekday:      schedule.AnyWeekday,
				StartTime:    "09:00",
				EndTime:      "18:00",
				BreakStart:   "13:00",
				BreakEnd:     "14:00",
				GraceMinutes: 10,
			}},
		}},
	}
	svc, employeeRepo, shiftRepo := newEmployeeFixture(t, transport)

	result, err := svc.RefreshDirectory(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, int64(0), result.UpdatedSince, "first pull starts from an empty watermark")

	emp, err := employeeRepo.GetByID(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Test Employee", emp.FullName)
	assert.True(t, emp.Active)

	entry, err := shiftRepo.GetForEmployee(ctx, "emp-1", int(time.Monday))
	require.NoError(t, err)
	assert.Equal(t, "09:00", entry.StartTime)
	assert.Equal(t, 10, entry.GraceMinutes)
	assert.True(t, entry.HasBreak())
}

func TestEmployeeService_RefreshDirectory_SkipsMalformedEntries(t *testing.T) {
	ctx := context.Background()
	transport := &stubTransport{
		entries: []syncer.DirectoryEmployee{
			{
				// Badge national ids are digits; this one cannot be scanned.
				ID:         "emp-bad-nid",
				NationalID: "ABC-123",
				FullName:   "Broken Entry",
				Active:     true,
			},
			{
				ID:         "emp-bad-shift",
				NationalID: "1000200040",
				FullName:   "Broken Shift",
				Active:     true,
				Shifts: []syncer.DirectoryShift{{
					Weekday:   int(time.Monday),
					StartTime: "9am",
					EndTime:   "18:00",
				}},
			},
			{
				ID:              "emp-ok",
				NationalID:      "1000200050",
				FullName:        "Good Entry",
				Active:          true,
				UpdatedAtMillis: 1772000000000,
			},
		},
	}
	svc, employeeRepo, _ := newEmployeeFixture(t, transport)

	result, err := svc.RefreshDirectory(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 2, result.Skipped)

	_, err = employeeRepo.GetByID(ctx, "emp-bad-nid")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	_, err = employeeRepo.GetByID(ctx, "emp-bad-shift")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	emp, err := employeeRepo.GetByID(ctx, "emp-ok")
	require.NoError(t, err)
	assert.Equal(t, "Good Entry", emp.FullName)
}

func TestEmployeeService_RefreshDirectory_UsesWatermark(t *testing.T) {
	ctx := context.Background()
	transport := &stubTransport{}
	svc, employeeRepo, _ := newEmployeeFixture(t, transport)

	require.NoError(t, employeeRepo.Upsert(ctx, employee.Employee{
		ID:              "emp-1",
		NationalID:      "1000200030",
		FullName:        "Test Employee",
		Active:          true,
		UpdatedAtMillis: 1772000000000,
	}))

	_, err := svc.RefreshDirectory(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(1772000000000), transport.gotSince)
}

func TestEmployeeService_RefreshDirectory_DeactivationPropagates(t *testing.T) {
	ctx := context.Background()
	transport := &stubTransport{
		entries: []syncer.DirectoryEmployee{{
			ID:              "emp-1",
			NationalID:      "1000200030",
			FullName:        "Test Employee",
			Active:          false,
			UpdatedAtMillis: 1772000100000,
		}},
	}
	svc, employeeRepo, _ := newEmployeeFixture(t, transport)

	require.NoError(t, employeeRepo.Upsert(ctx, employee.Employee{
		ID:         "emp-1",
		NationalID: "1000200030",
		FullName:   "Test Employee",
		Active:     true,
	}))

	_, err := svc.RefreshDirectory(ctx)

	require.NoError(t, err)
	emp, err := employeeRepo.GetByID(ctx, "emp-1")
	require.NoError(t, err)
	assert.False(t, emp.Active)
}

func TestEmployeeService_SetActive_UnknownEmployee(t *testing.T) {
	svc, _, _ := newEmployeeFixture(t, &stubTransport{})

	err := svc.SetActive(context.Background(), "nobody", false)

	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestEmployeeService_List_ActiveOnly(t *testing.T) {
	ctx := context.Background()
	svc, employeeRepo, _ := newEmployeeFixture(t, &stubTransport{})

	require.NoError(t, employeeRepo.Upsert(ctx, employee.Employee{ID: "emp-1", NationalID: "1", FullName: "Active One", Active: true}))
	require.NoError(t, employeeRepo.Upsert(ctx, employee.Employee{ID: "emp-2", NationalID: "2", FullName: "Gone One", Active: false}))

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "emp-1", active[0].ID)
}
