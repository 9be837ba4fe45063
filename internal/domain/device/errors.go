package device

import "errors"

var (
	ErrDeviceNotFound = errors.New("device row not found")
)
