package employee

import "context"

// EmployeeService maintains the device-local roster mirror.
type EmployeeService interface {
	List(ctx context.Context, activeOnly bool) ([]EmployeeResponse, error)
	GetByNationalID(ctx context.Context, nationalID string) (Employee, error)
	SetActive(ctx context.Context, id string, active bool) error
	// RefreshDirectory pulls employees changed since the local watermark and
	// applies them, shift schedules included.
	RefreshDirectory(ctx context.Context) (RefreshResult, error)
}
