package timesheethandler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"timetracker/internal/domain/auth"
	"timetracker/internal/domain/core"
	"timetracker/internal/domain/timesheet"
	"timetracker/internal/requestctx"
	"timetracker/internal/transport/http/api"
	"timetracker/internal/transport/http/middleware"
	"timetracker/internal/transport/http/shared"
)

type Handler struct {
	Service  *timesheet.Service
	Core     *core.Store
	Location *time.Location
}

func NewHandler(service *timesheet.Service, coreStore *core.Store, loc *time.Location) *Handler {
	return &Handler{Service: service, Core: coreStore, Location: loc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/timesheets", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/current", h.handleCurrent)
		r.Get("/", h.handleList)
		r.Get("/{timesheetID}", h.handleGet)
		r.Put("/{timesheetID}/entries", h.handleUpdateEntries)
		r.Post("/{timesheetID}/submit", h.handleSubmit)
		r.With(middleware.RequireRole(auth.RoleManager)).Post("/{timesheetID}/approve", h.handleApprove)
		r.With(middleware.RequireRole(auth.RoleManager)).Post("/{timesheetID}/reject", h.handleReject)
		r.Get("/{timesheetID}/pdf", h.handlePDF)
	})
}

func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	if user.EmployeeID == 0 {
		api.Fail(w, http.StatusForbidden, "forbidden", "no employee record for this account", requestID)
		return
	}

	projectID, err := strconv.ParseInt(r.URL.Query().Get("projectId"), 10, 64)
	if err != nil || projectID <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "projectId query parameter is required", requestID)
		return
	}

	ts, err := h.Service.CurrentForProject(r.Context(), user.EmployeeID, projectID, time.Now().In(h.Location))
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, ts, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	page := shared.ParsePagination(r, 50, 200)
	filter := timesheet.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if raw := r.URL.Query().Get("projectId"); raw != "" {
		if projectID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.ProjectID = projectID
		}
	}

	// Employees only ever see their own timesheets. Managers and
	// admins may filter by employee.
	if user.Role == auth.RoleEmployee {
		filter.EmployeeID = user.EmployeeID
	} else if raw := r.URL.Query().Get("employeeId"); raw != "" {
		if employeeID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.EmployeeID = employeeID
		}
	}

	items, err := h.Service.List(r.Context(), filter)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, items, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := h.timesheetID(w, r, requestID)
	if !ok {
		return
	}

	ts, err := h.Service.Get(r.Context(), id)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	if !h.canView(r, user, ts) {
		// Indistinguishable from missing, like the owner-scoped reads.
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
		return
	}
	api.Success(w, ts, requestID)
}

func (h *Handler) handleUpdateEntries(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := h.timesheetID(w, r, requestID)
	if !ok {
		return
	}

	var payload struct {
		Entries []timesheet.DailyEntry `json:"entries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	ts, err := h.Service.UpdateEntries(r.Context(), id, user.EmployeeID, payload.Entries)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, ts, requestID)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := h.timesheetID(w, r, requestID)
	if !ok {
		return
	}

	ts, err := h.Service.Submit(r.Context(), id, user.EmployeeID)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, ts, requestID)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := h.timesheetID(w, r, requestID)
	if !ok {
		return
	}
	if !h.managesTimesheet(w, r, user, id, requestID) {
		return
	}

	ts, err := h.Service.Approve(r.Context(), id, user.EmployeeID)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, ts, requestID)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := h.timesheetID(w, r, requestID)
	if !ok {
		return
	}
	if !h.managesTimesheet(w, r, user, id, requestID) {
		return
	}

	var payload struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	ts, err := h.Service.Reject(r.Context(), id, user.EmployeeID, payload.Reason)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, ts, requestID)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := h.timesheetID(w, r, requestID)
	if !ok {
		return
	}

	ts, err := h.Service.Get(r.Context(), id)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	if !h.canView(r, user, ts) {
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
		return
	}

	pdfBytes, err := h.Service.RenderPDF(r.Context(), id)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="timesheet.pdf"`)
	_, _ = w.Write(pdfBytes)
}

func (h *Handler) timesheetID(w http.ResponseWriter, r *http.Request, requestID string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "timesheetID"), 10, 64)
	if err != nil || id <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid timesheet id", requestID)
		return 0, false
	}
	return id, true
}

func (h *Handler) canView(r *http.Request, user requestctx.User, ts *timesheet.Timesheet) bool {
	if user.Role == auth.RoleAdmin || ts.EmployeeID == user.EmployeeID {
		return true
	}
	if user.Role != auth.RoleManager {
		return false
	}
	manages, err := h.Core.IsManagerOf(r.Context(), user.EmployeeID, ts.ProjectID)
	return err == nil && manages
}

// managesTimesheet writes the failure response itself; admin passes
// unconditionally, managers must manage the timesheet's project.
func (h *Handler) managesTimesheet(w http.ResponseWriter, r *http.Request, user requestctx.User, id int64, requestID string) bool {
	if user.Role == auth.RoleAdmin {
		return true
	}
	ts, err := h.Service.Get(r.Context(), id)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return false
	}
	manages, err := h.Core.IsManagerOf(r.Context(), user.EmployeeID, ts.ProjectID)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return false
	}
	if !manages {
		api.Fail(w, http.StatusForbidden, "forbidden", "not a manager of this project", requestID)
		return false
	}
	return true
}
