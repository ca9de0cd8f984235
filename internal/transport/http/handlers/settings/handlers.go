package settingshandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timetracker/internal/domain/audit"
	"timetracker/internal/domain/auth"
	"timetracker/internal/domain/reminder"
	"timetracker/internal/platform/jobs"
	"timetracker/internal/transport/http/api"
	"timetracker/internal/transport/http/middleware"
)

type Handler struct {
	Store *reminder.Store
	Audit *audit.Service
	Jobs  *jobs.Service
}

func NewHandler(store *reminder.Store, auditSvc *audit.Service, jobsSvc *jobs.Service) *Handler {
	return &Handler{Store: store, Audit: auditSvc, Jobs: jobsSvc}
}

// RegisterRoutes mounts the admin-only settings and job trigger routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Get("/expiration-tracker", h.handleGetTracker)
		r.Put("/expiration-tracker", h.handleUpdateTracker)
	})
	r.Route("/admin/jobs", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Post("/submission-reminders/run", h.runJob(jobs.JobSubmissionReminders))
		r.Post("/expiration-reminders/run", h.runJob(jobs.JobExpirationReminders))
	})
}

func (h *Handler) handleGetTracker(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	setting, err := h.Store.TrackerSetting(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load tracker setting", requestID)
		return
	}
	api.Success(w, setting, requestID)
}

func (h *Handler) handleUpdateTracker(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload reminder.TrackerSetting
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if payload.TargetDays <= 0 {
		api.Fail(w, http.StatusBadRequest, "validation_error", "targetDays must be positive", requestID)
		return
	}
	if !reminder.ValidFrequency(payload.Recurring) {
		api.Fail(w, http.StatusBadRequest, "validation_error", "unknown recurring frequency", requestID)
		return
	}

	before, err := h.Store.TrackerSetting(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load tracker setting", requestID)
		return
	}
	if err := h.Store.SaveTrackerSetting(r.Context(), payload); err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to save tracker setting", requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "settings.expiration_tracker.update", "tracker_setting", 1, before, payload); err != nil {
		slog.Warn("audit settings update failed", "err", err)
	}
	api.Success(w, payload, requestID)
}

func (h *Handler) runJob(jobType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())
		details, err := h.Jobs.RunNow(r.Context(), jobType)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "job_failed", "job run failed", requestID)
			return
		}
		api.Success(w, details, requestID)
	}
}
