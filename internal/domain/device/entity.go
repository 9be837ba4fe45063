package device

import "time"

// Device is the single local row describing this installation. Created
// lazily on first run from configuration; the sync coordinator owns the skew
// column, configuration changes own the rest.
type Device struct {
	ID string
	// ClockSkewMillis is serverTime - deviceTime as of the last successful
	// sync. Informational: validation always uses the device clock.
	ClockSkewMillis int64
	CaptureMode     string
	Endpoint        string
	AuthToken       string
	GPSEnabled      bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
