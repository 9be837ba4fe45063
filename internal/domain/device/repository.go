package device

import "context"

type DeviceRepository interface {
	Get(ctx context.Context, id string) (Device, error)
	// Upsert creates the row on first use or applies configuration changes.
	// It never touches ClockSkewMillis on an existing row.
	Upsert(ctx context.Context, dev Device) error
	// UpdateSkew records serverTime - localSendTime after a successful sync.
	UpdateSkew(ctx context.Context, id string, skewMillis int64) error
}
