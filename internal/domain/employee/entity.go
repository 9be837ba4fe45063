package employee

import (
	"time"
)

// Employee is a row of the device-local roster mirror. The directory pull
// owns its contents; the agent only ever flips Active.
type Employee struct {
	ID         string
	NationalID string
	FullName   string
	Active     bool
	// UpdatedAtMillis is the server-side modification time used as the
	// "updated since" watermark for incremental directory pulls.
	UpdatedAtMillis int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Deactivate is the only state transition the agent performs on an employee.
// It is a soft flag: historical ledger events stay untouched.
func (e *Employee) Deactivate() {
	e.Active = false
}
