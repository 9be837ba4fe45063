package http

import (
	"net/http"

	"github.com/fieldclock/agent-go/internal/domain/syncer"
	"github.com/fieldclock/agent-go/internal/handler/http/response"
)

type SyncHandler interface {
	SyncNow(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
}

type syncHandlerImpl struct {
	coordinator syncer.Coordinator
}

func NewSyncHandler(coordinator syncer.Coordinator) SyncHandler {
	return &syncHandlerImpl{
		coordinator: coordinator,
	}
}

// SyncNow implements SyncHandler. A manual trigger runs synchronously so the
// operator sees the outcome, unlike the fire-and-forget punch-time nudge.
func (h *syncHandlerImpl) SyncNow(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.SyncNow(r.Context()); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Sync completed", h.coordinator.Status(r.Context()))
}

// Status implements SyncHandler.
func (h *syncHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.coordinator.Status(r.Context()))
}
