package reportshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"timetracker/internal/domain/auth"
	"timetracker/internal/domain/core"
	"timetracker/internal/transport/http/api"
	"timetracker/internal/transport/http/middleware"
	"timetracker/internal/transport/http/shared"
)

type Handler struct {
	Core *core.Store
}

func NewHandler(coreStore *core.Store) *Handler {
	return &Handler{Core: coreStore}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleManager))
		r.Get("/project-hours", h.handleProjectHours)
	})
}

func (h *Handler) handleProjectHours(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	from, err := shared.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "from must be YYYY-MM-DD", requestID)
		return
	}
	to, err := shared.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "to must be YYYY-MM-DD", requestID)
		return
	}

	report, err := h.Core.ApprovedHoursByProject(r.Context(), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build project hours report", requestID)
		return
	}
	api.Success(w, report, requestID)
}
