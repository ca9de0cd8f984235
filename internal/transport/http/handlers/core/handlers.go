package corehandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"timetracker/internal/domain/audit"
	"timetracker/internal/domain/auth"
	"timetracker/internal/domain/core"
	"timetracker/internal/transport/http/api"
	"timetracker/internal/transport/http/middleware"
	"timetracker/internal/transport/http/shared"
)

type Handler struct {
	Store   *core.Store
	Service *core.Service
	Audit   *audit.Service
}

func NewHandler(store *core.Store, service *core.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", h.handleListProjects)
		r.Get("/{projectID}", h.handleGetProject)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Put("/{projectID}", h.handleUpdateProject)
	})
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleManager))
		r.Get("/", h.handleListEmployees)
	})
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "projects_failed", "failed to list projects", requestID)
		return
	}
	api.Success(w, projects, requestID)
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := h.projectID(w, r, requestID)
	if !ok {
		return
	}
	project, err := h.Store.GetProject(r.Context(), id)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, project, requestID)
}

func (h *Handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := h.projectID(w, r, requestID)
	if !ok {
		return
	}

	var payload core.Project
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	payload.ID = id

	before, err := h.Store.GetProject(r.Context(), id)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	updated, err := h.Service.UpdateProject(r.Context(), payload)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "project.update", "project", id, before, updated); err != nil {
		slog.Warn("audit project.update failed", "err", err)
	}
	api.Success(w, updated, requestID)
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employees_failed", "failed to list employees", requestID)
		return
	}
	api.Success(w, employees, requestID)
}

func (h *Handler) projectID(w http.ResponseWriter, r *http.Request, requestID string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil || id <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid project id", requestID)
		return 0, false
	}
	return id, true
}
