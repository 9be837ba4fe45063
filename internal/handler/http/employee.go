package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fieldclock/agent-go/internal/domain/attendance"
	"github.com/fieldclock/agent-go/internal/domain/employee"
	"github.com/fieldclock/agent-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type EmployeeHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	NextEvent(w http.ResponseWriter, r *http.Request)
	SetActive(w http.ResponseWriter, r *http.Request)
	Refresh(w http.ResponseWriter, r *http.Request)
}

type employeeHandlerImpl struct {
	employeeService   employee.EmployeeService
	attendanceService attendance.AttendanceService
}

func NewEmployeeHandler(employeeService employee.EmployeeService, attendanceService attendance.AttendanceService) EmployeeHandler {
	return &employeeHandlerImpl{
		employeeService:   employeeService,
		attendanceService: attendanceService,
	}
}

// List implements EmployeeHandler.
func (h *employeeHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	result, err := h.employeeService.List(r.Context(), activeOnly)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// NextEvent implements EmployeeHandler.
func (h *employeeHandlerImpl) NextEvent(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	next, err := h.attendanceService.NextExpectedKind(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]*attendance.EventKind{"next_expected": next})
}

// SetActive implements EmployeeHandler.
func (h *employeeHandlerImpl) SetActive(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req struct {
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode set-active request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if req.Active == nil {
		response.BadRequest(w, "Field 'active' is required", nil)
		return
	}

	if err := h.employeeService.SetActive(r.Context(), employeeID, *req.Active); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Employee updated", nil)
}

// Refresh implements EmployeeHandler.
func (h *employeeHandlerImpl) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.employeeService.RefreshDirectory(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Directory refreshed", result)
}
