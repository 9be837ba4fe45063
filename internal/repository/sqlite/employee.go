package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fieldclock/agent-go/internal/domain/employee"
)

type employeeRepository struct {
	db *DB
}

const employeeColumns = `id, national_id, full_name, active, updated_at_millis, created_at, updated_at`

func scanEmployee(row interface{ Scan(...any) error }) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.NationalID, &emp.FullName, &emp.Active,
		&emp.UpdatedAtMillis, &emp.CreatedAt, &emp.UpdatedAt,
	)
	return emp, err
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = ?`

	emp, err := scanEmployee(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by id: %w", err)
	}
	return emp, nil
}

// GetByNationalID implements employee.EmployeeRepository. Active rows win
// over deactivated ones so a re-hired national id resolves to the live row.
func (r *employeeRepository) GetByNationalID(ctx context.Context, nationalID string) (employee.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE national_id = ?
		ORDER BY active DESC, updated_at DESC
		LIMIT 1
	`

	emp, err := scanEmployee(r.db.QueryRowContext(ctx, query, nationalID))
	if err != nil {
		if err == sql.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by national id: %w", err)
	}
	return emp, nil
}

// List implements employee.EmployeeRepository.
func (r *employeeRepository) List(ctx context.Context, activeOnly bool) ([]employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY full_name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// Upsert implements employee.EmployeeRepository.
func (r *employeeRepository) Upsert(ctx context.Context, emp employee.Employee) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO employees (id, national_id, full_name, active, updated_at_millis, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			national_id = excluded.national_id,
			full_name = excluded.full_name,
			active = excluded.active,
			updated_at_millis = excluded.updated_at_millis,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		emp.ID, emp.NationalID, emp.FullName, emp.Active, emp.UpdatedAtMillis, now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "idx_employees_national_id_active") {
			return employee.ErrNationalIDExists
		}
		return fmt.Errorf("failed to upsert employee: %w", err)
	}
	return nil
}

// SetActive implements employee.EmployeeRepository.
func (r *employeeRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE employees SET active = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, active, time.Now().UTC(), id)
	if err != nil {
		if strings.Contains(err.Error(), "idx_employees_national_id_active") {
			return employee.ErrNationalIDExists
		}
		return fmt.Errorf("failed to update employee active flag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// LatestUpdateMillis implements employee.EmployeeRepository.
func (r *employeeRepository) LatestUpdateMillis(ctx context.Context) (int64, error) {
	query := `SELECT COALESCE(MAX(updated_at_millis), 0) FROM employees`

	var watermark int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&watermark); err != nil {
		return 0, fmt.Errorf("failed to read directory watermark: %w", err)
	}
	return watermark, nil
}

func NewEmployeeRepository(db *DB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}
