package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByNationalID(ctx context.Context, nationalID string) (Employee, error)
	List(ctx context.Context, activeOnly bool) ([]Employee, error)
	// Upsert inserts or replaces a roster row keyed by id; used only by
	// directory application.
	Upsert(ctx context.Context, emp Employee) error
	SetActive(ctx context.Context, id string, active bool) error
	// LatestUpdateMillis returns the newest server-side modification time in
	// the local mirror, the watermark for the next incremental pull.
	LatestUpdateMillis(ctx context.Context) (int64, error)
}
