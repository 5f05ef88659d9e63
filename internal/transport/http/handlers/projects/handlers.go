package projecthandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"companygrow/internal/domain/audit"
	"companygrow/internal/domain/auth"
	"companygrow/internal/domain/notifications"
	"companygrow/internal/domain/performance"
	"companygrow/internal/domain/projects"
	"companygrow/internal/transport/http/api"
	"companygrow/internal/transport/http/middleware"
	"companygrow/internal/transport/http/shared"
)

type Handler struct {
	Projects      *projects.Store
	Notifications *notifications.Service
	Audit         *audit.Service
	Perms         middleware.PermissionStore
}

func NewHandler(store *projects.Store, notif *notifications.Service, auditSvc *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Projects: store, Notifications: notif, Audit: auditSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermProjectsRead, h.Perms)).Get("/getAllProjects", h.handleGetAllProjects)
	r.With(middleware.RequirePermission(auth.PermProjectsManage, h.Perms)).Post("/addProject", h.handleAddProject)
	r.With(middleware.RequirePermission(auth.PermProjectsManage, h.Perms)).Put("/modifyProject/{id}", h.handleModifyProject)
	r.With(middleware.RequirePermission(auth.PermProjectsManage, h.Perms)).Put("/modifyUsers/{id}", h.handleModifyUsers)
	r.With(middleware.RequirePermission(auth.PermProjectsManage, h.Perms)).Delete("/deleteProject/{id}", h.handleDeleteProject)
	r.With(middleware.RequirePermission(auth.PermProjectsComplete, h.Perms)).Post("/completeProject/{id}", h.handleCompleteProject)
}

func (h *Handler) handleGetAllProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.Projects.ListProjects(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "project_list_failed", "failed to list projects", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

type projectPayload struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Priority       string   `json:"priority"`
	Budget         float64  `json:"budget"`
	Deadline       string   `json:"deadline"`
	Status         string   `json:"status"`
	BadgeReward    string   `json:"badgeReward"`
	SkillsRequired []string `json:"skillsRequired"`
	SkillsGained   []string `json:"skillsGained"`
	ManagedBy      string   `json:"managedBy"`
}

func (p projectPayload) validate() *shared.Validator {
	v := shared.NewValidator()
	v.Required("name", p.Name, "project name is required")
	if p.Priority != "" && !projects.ValidPriority(p.Priority) {
		v.Add("priority", "priority must be low, medium or high")
	}
	if p.Status != "" && !projects.ValidStatus(p.Status) {
		v.Add("status", "unknown project status")
	}
	if p.Budget < 0 {
		v.Add("budget", "budget cannot be negative")
	}
	if p.BadgeReward != "" && !performance.ValidBadgeTier(p.BadgeReward) {
		v.Add("badgeReward", "unknown badge tier")
	}
	return v
}

func (p projectPayload) details() (projects.ProjectDetails, error) {
	details := projects.ProjectDetails{
		Name:           p.Name,
		Description:    p.Description,
		Priority:       p.Priority,
		Budget:         p.Budget,
		Status:         p.Status,
		SkillsRequired: p.SkillsRequired,
		SkillsGained:   p.SkillsGained,
		ManagedBy:      p.ManagedBy,
	}
	if tier, ok := performance.CanonicalBadgeTier(p.BadgeReward); ok {
		details.BadgeReward = tier
	}
	if details.Priority == "" {
		details.Priority = projects.PriorityMedium
	}
	if details.Status == "" {
		details.Status = projects.StatusPlanning
	}
	if p.Deadline != "" {
		deadline, err := shared.ParseDate(p.Deadline)
		if err != nil {
			return details, err
		}
		details.Deadline = &deadline
	}
	return details, nil
}

func (h *Handler) handleAddProject(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload projectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.validate().Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	details, err := payload.details()
	if err != nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "deadline", Reason: "deadline must be an RFC3339 or YYYY-MM-DD date"}})
		return
	}
	if details.ManagedBy == "" {
		details.ManagedBy = user.UserID
	}

	id, err := h.Projects.CreateProject(r.Context(), details)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "project_create_failed", "failed to create project", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "projects.project.create", "project", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit projects.project.create failed", "err", err)
	}

	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleModifyProject(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	projectID := chi.URLParam(r, "id")
	existing, err := h.Projects.GetProject(r.Context(), projectID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "project not found", middleware.GetRequestID(r.Context()))
		return
	}

	var payload projectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.validate().Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	details, err := payload.details()
	if err != nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "deadline", Reason: "deadline must be an RFC3339 or YYYY-MM-DD date"}})
		return
	}

	if err := h.Projects.UpdateProject(r.Context(), projectID, details); err != nil {
		api.Fail(w, http.StatusInternalServerError, "project_update_failed", "failed to update project", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "projects.project.update", "project", projectID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), existing, payload); err != nil {
		slog.Warn("audit projects.project.update failed", "err", err)
	}

	api.Success(w, map[string]string{"id": projectID}, middleware.GetRequestID(r.Context()))
}

type modifyUsersPayload struct {
	AssignedUsers []string `json:"assignedUsers"`
}

// The assigned-user set is replaced wholesale with the incoming list.
func (h *Handler) handleModifyUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	projectID := chi.URLParam(r, "id")
	var payload modifyUsersPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	err := h.Projects.ReplaceAssignedUsers(r.Context(), projectID, payload.AssignedUsers)
	if errors.Is(err, projects.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "project not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "project_assign_failed", "failed to update assigned users", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "projects.project.assign", "project", projectID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit projects.project.assign failed", "err", err)
	}

	api.Success(w, map[string]string{"id": projectID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	projectID := chi.URLParam(r, "id")
	existing, err := h.Projects.GetProject(r.Context(), projectID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "project not found", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Projects.DeleteProject(r.Context(), projectID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "project_delete_failed", "failed to delete project", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "projects.project.delete", "project", projectID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), existing, nil); err != nil {
		slog.Warn("audit projects.project.delete failed", "err", err)
	}

	api.Success(w, map[string]string{"id": projectID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCompleteProject(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	projectID := chi.URLParam(r, "id")
	project, err := h.Projects.CompleteProject(r.Context(), projectID)
	switch {
	case errors.Is(err, projects.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "project not found", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, projects.ErrAlreadyCompleted):
		api.Fail(w, http.StatusBadRequest, "already_completed", "project is already completed", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "project_complete_failed", "failed to complete project", middleware.GetRequestID(r.Context()))
		return
	}

	for _, assigned := range project.AssignedUsers {
		if err := h.Notifications.Create(r.Context(), assigned.ID, notifications.TypeProjectCompleted,
			"Project completed: "+project.Name, "The project "+project.Name+" you worked on was marked completed."); err != nil {
			slog.Warn("project completion notification failed", "err", err)
		}
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "projects.project.complete", "project", projectID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, map[string]any{"completedAt": time.Now().UTC()}); err != nil {
		slog.Warn("audit projects.project.complete failed", "err", err)
	}

	api.Success(w, project, middleware.GetRequestID(r.Context()))
}
