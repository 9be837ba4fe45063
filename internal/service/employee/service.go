package employee

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fieldclock/agent-go/internal/domain/employee"
	"github.com/fieldclock/agent-go/internal/domain/schedule"
	"github.com/fieldclock/agent-go/internal/domain/syncer"
	"github.com/fieldclock/agent-go/internal/pkg/clock"
)

type EmployeeServiceImpl struct {
	employees employee.EmployeeRepository
	shifts    schedule.ShiftRepository
	transport syncer.Transport
	clock     clock.Clock
}

func NewEmployeeService(
	employeeRepo employee.EmployeeRepository,
	shiftRepo schedule.ShiftRepository,
	transport syncer.Transport,
	clk clock.Clock,
) employee.EmployeeService {
	return &EmployeeServiceImpl{
		employees: employeeRepo,
		shifts:    shiftRepo,
		transport: transport,
		clock:     clk,
	}
}

// List implements employee.EmployeeService.
func (s *EmployeeServiceImpl) List(ctx context.Context, activeOnly bool) ([]employee.EmployeeResponse, error) {
	employees, err := s.employees.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	responses := make([]employee.EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		responses = append(responses, employee.EmployeeResponse{
			ID:         emp.ID,
			NationalID: emp.NationalID,
			FullName:   emp.FullName,
			Active:     emp.Active,
		})
	}
	return responses, nil
}

// GetByNationalID implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetByNationalID(ctx context.Context, nationalID string) (employee.Employee, error) {
	return s.employees.GetByNationalID(ctx, nationalID)
}

// SetActive implements employee.EmployeeService. Deactivation is a soft
// flag; the employee's ledger history stays untouched.
func (s *EmployeeServiceImpl) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.employees.SetActive(ctx, id, active); err != nil {
		return err
	}
	slog.Info("Employee active flag changed", "employee_id", id, "active", active)
	return nil
}

// RefreshDirectory implements employee.EmployeeService.
func (s *EmployeeServiceImpl) RefreshDirectory(ctx context.Context) (employee.RefreshResult, error) {
	since, err := s.employees.LatestUpdateMillis(ctx)
	if err != nil {
		return employee.RefreshResult{}, fmt.Errorf("failed to read directory watermark: %w", err)
	}

	entries, err := s.transport.FetchDirectory(ctx, since)
	if err != nil {
		return employee.RefreshResult{}, err
	}

	applied := 0
	skipped := 0
	for _, entry := range entries {
		// A malformed entry is skipped, never applied half-way; the rest of
		// the pull still lands.
		if err := entry.Validate(); err != nil {
			skipped++
			slog.Warn("Directory entry rejected", "employee_id", entry.ID, "error", err)
			continue
		}

		emp := employee.Employee{
			ID:              entry.ID,
			NationalID:      entry.NationalID,
			FullName:        entry.FullName,
			Active:          entry.Active,
			UpdatedAtMillis: entry.UpdatedAtMillis,
		}
		if err := s.employees.Upsert(ctx, emp); err != nil {
			return employee.RefreshResult{}, fmt.Errorf("failed to apply directory entry %s: %w", entry.ID, err)
		}

		shifts := make([]schedule.ShiftEntry, 0, len(entry.Shifts))
		for _, sh := range entry.Shifts {
			shifts = append(shifts, schedule.ShiftEntry{
				EmployeeID:   entry.ID,
				Weekday:      sh.Weekday,
				StartTime:    sh.StartTime,
				EndTime:      sh.EndTime,
				BreakStart:   sh.BreakStart,
				BreakEnd:     sh.BreakEnd,
				GraceMinutes: sh.GraceMinutes,
			})
		}
		if len(shifts) > 0 {
			if err := s.shifts.ReplaceForEmployee(ctx, entry.ID, shifts); err != nil {
				return employee.RefreshResult{}, fmt.Errorf("failed to apply shift table for %s: %w", entry.ID, err)
			}
		}
		applied++
	}

	slog.Info("Directory refresh applied", "entries", applied, "skipped", skipped, "updated_since", since)
	return employee.RefreshResult{
		Applied:         applied,
		Skipped:         skipped,
		UpdatedSince:    since,
		ServerTimestamp: s.clock.NowMillis(),
	}, nil
}
