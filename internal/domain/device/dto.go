package device

import (
	"github.com/fieldclock/agent-go/internal/pkg/validator"
)

// DeviceResponse exposes the installation row to the UI shell. The auth
// token is never echoed back, only whether one is set.
type DeviceResponse struct {
	ID              string `json:"id"`
	ClockSkewMillis int64  `json:"clock_skew_millis"`
	CaptureMode     string `json:"capture_mode"`
	Endpoint        string `json:"endpoint,omitempty"`
	TokenConfigured bool   `json:"token_configured"`
	GPSEnabled      bool   `json:"gps_enabled"`
}

// UpdateDeviceRequest carries configuration changes from the UI shell.
// Nil fields are left as they are.
type UpdateDeviceRequest struct {
	CaptureMode *string `json:"capture_mode,omitempty"`
	Endpoint    *string `json:"endpoint,omitempty"`
	AuthToken   *string `json:"auth_token,omitempty"`
	GPSEnabled  *bool   `json:"gps_enabled,omitempty"`
}

func (r UpdateDeviceRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.CaptureMode != nil && !validator.IsInSlice(*r.CaptureMode, []string{"QR", "ID_CARD", "BARCODE", "MANUAL"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "capture_mode",
			Message: "must be one of QR, ID_CARD, BARCODE, MANUAL",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
