package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fieldclock/agent-go/internal/domain/device"
	"github.com/fieldclock/agent-go/internal/handler/http/response"
)

type DeviceHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
}

type deviceHandlerImpl struct {
	devices  device.DeviceRepository
	deviceID string
}

func NewDeviceHandler(devices device.DeviceRepository, deviceID string) DeviceHandler {
	return &deviceHandlerImpl{
		devices:  devices,
		deviceID: deviceID,
	}
}

// Get implements DeviceHandler.
func (h *deviceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	dev, err := h.devices.Get(r.Context(), h.deviceID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, toDeviceResponse(dev))
}

// Update implements DeviceHandler.
func (h *deviceHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req device.UpdateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode device update request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	dev, err := h.devices.Get(r.Context(), h.deviceID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if req.CaptureMode != nil {
		dev.CaptureMode = *req.CaptureMode
	}
	if req.Endpoint != nil {
		dev.Endpoint = *req.Endpoint
	}
	if req.AuthToken != nil {
		dev.AuthToken = *req.AuthToken
	}
	if req.GPSEnabled != nil {
		dev.GPSEnabled = *req.GPSEnabled
	}

	if err := h.devices.Upsert(r.Context(), dev); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Device updated", toDeviceResponse(dev))
}

func toDeviceResponse(dev device.Device) device.DeviceResponse {
	return device.DeviceResponse{
		ID:              dev.ID,
		ClockSkewMillis: dev.ClockSkewMillis,
		CaptureMode:     dev.CaptureMode,
		Endpoint:        dev.Endpoint,
		TokenConfigured: dev.AuthToken != "",
		GPSEnabled:      dev.GPSEnabled,
	}
}
