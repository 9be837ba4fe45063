package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fieldclock/agent-go/internal/domain/device"
)

type deviceRepository struct {
	db *DB
}

// Get implements device.DeviceRepository.
func (r *deviceRepository) Get(ctx context.Context, id string) (device.Device, error) {
	query := `
		SELECT id, clock_skew_millis, capture_mode, endpoint, auth_token, gps_enabled, created_at, updated_at
		FROM devices
		WHERE id = ?
	`

	var dev device.Device
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&dev.ID, &dev.ClockSkewMillis, &dev.CaptureMode, &dev.Endpoint,
		&dev.AuthToken, &dev.GPSEnabled, &dev.CreatedAt, &dev.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return device.Device{}, device.ErrDeviceNotFound
		}
		return device.Device{}, fmt.Errorf("failed to get device: %w", err)
	}
	return dev, nil
}

// Upsert implements device.DeviceRepository. Skew is deliberately excluded
// from the update set; only UpdateSkew touches it.
func (r *deviceRepository) Upsert(ctx context.Context, dev device.Device) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO devices (id, clock_skew_millis, capture_mode, endpoint, auth_token, gps_enabled, created_at, updated_at)
		VALUES (?, 0, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			capture_mode = excluded.capture_mode,
			endpoint = excluded.endpoint,
			auth_token = excluded.auth_token,
			gps_enabled = excluded.gps_enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		dev.ID, dev.CaptureMode, dev.Endpoint, dev.AuthToken, dev.GPSEnabled, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}
	return nil
}

// UpdateSkew implements device.DeviceRepository.
func (r *deviceRepository) UpdateSkew(ctx context.Context, id string, skewMillis int64) error {
	query := `UPDATE devices SET clock_skew_millis = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, skewMillis, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update device skew: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return device.ErrDeviceNotFound
	}
	return nil
}

func NewDeviceRepository(db *DB) device.DeviceRepository {
	return &deviceRepository{db: db}
}
