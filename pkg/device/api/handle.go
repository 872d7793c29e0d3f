package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/ukhsc/ukhsc-system-backend/pkg/client"
	"github.com/ukhsc/ukhsc-system-backend/pkg/device"
)

// DeviceHandler handles HTTP requests for device management
type DeviceHandler struct {
	deviceService *device.DeviceService
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(deviceService *device.DeviceService) *DeviceHandler {
	return &DeviceHandler{
		deviceService: deviceService,
	}
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// DeviceView is a device as shown to its owner
type DeviceView struct {
	device.Device
	Current bool `json:"current"`
}

// ListDevicesResponse represents the response body for listing devices
type ListDevicesResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Devices []DeviceView `json:"devices"`
}

// ListDevices lists the caller's active devices, flagging the one the
// access token was issued to.
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	authUser, ok := r.Context().Value(client.AuthUserKey).(*client.AuthUser)
	if !ok || authUser == nil {
		renderErrorResponse(w, r, http.StatusUnauthorized, "Authentication required", "")
		return
	}

	devices, err := h.deviceService.ListDevices(r.Context(), authUser.UserID)
	if err != nil {
		slog.Error("Failed to get devices", "user", authUser.UserID, "error", err)
		renderErrorResponse(w, r, http.StatusInternalServerError, "Failed to get devices", "")
		return
	}

	views := make([]DeviceView, 0, len(devices))
	for _, d := range devices {
		views = append(views, DeviceView{Device: d, Current: d.ID == authUser.DeviceID})
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ListDevicesResponse{
		Status:  "success",
		Message: "Devices retrieved successfully",
		Devices: views,
	})
}

// RevokeDevice revokes one of the caller's devices. Devices owned by someone
// else are reported as not found.
func (h *DeviceHandler) RevokeDevice(w http.ResponseWriter, r *http.Request) {
	authUser, ok := r.Context().Value(client.AuthUserKey).(*client.AuthUser)
	if !ok || authUser == nil {
		renderErrorResponse(w, r, http.StatusUnauthorized, "Authentication required", "")
		return
	}

	deviceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderErrorResponse(w, r, http.StatusBadRequest, "Invalid device ID", err.Error())
		return
	}

	if err := h.deviceService.RevokeDevice(r.Context(), authUser.UserID, deviceID); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			renderErrorResponse(w, r, http.StatusNotFound, "Device not found", "")
			return
		}
		slog.Error("Failed to revoke device", "user", authUser.UserID, "device", deviceID, "error", err)
		renderErrorResponse(w, r, http.StatusInternalServerError, "Failed to revoke device", "")
		return
	}

	slog.Info("Device revoked", "user", authUser.UserID, "device", deviceID)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, SuccessResponse{
		Status:  "success",
		Message: "Device revoked",
	})
}

// Handler returns a http.Handler for the device API
func Handler(h *DeviceHandler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.ListDevices)
	r.Delete("/{id}", h.RevokeDevice)

	return r
}

// renderErrorResponse renders an error response with the given status code and message
func renderErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message, errorDetail string) {
	response := ErrorResponse{
		Status:  "error",
		Message: message,
	}

	if errorDetail != "" {
		response.Error = errorDetail
	}

	render.Status(r, statusCode)
	render.JSON(w, r, response)
}
