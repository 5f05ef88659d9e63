package reporthandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"companygrow/internal/domain/auth"
	"companygrow/internal/domain/reports"
	"companygrow/internal/transport/http/api"
	"companygrow/internal/transport/http/middleware"
)

type Handler struct {
	Reports *reports.Service
	Perms   middleware.PermissionStore
}

func NewHandler(svc *reports.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Reports: svc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/summary", h.handleSummary)
	r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/training/{id}/pdf", h.handleTrainingPDF)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Reports.Summary(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build summary report", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTrainingPDF(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	userID := chi.URLParam(r, "id")
	if userID != user.UserID && user.RoleName == auth.RoleEmployee {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	path, err := h.Reports.TrainingReportPDF(r.Context(), userID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to generate training report", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="training-report.pdf"`)
	http.ServeFile(w, r, path)
}
