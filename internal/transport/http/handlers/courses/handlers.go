package coursehandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"companygrow/internal/domain/audit"
	"companygrow/internal/domain/auth"
	"companygrow/internal/domain/catalog"
	"companygrow/internal/domain/notifications"
	"companygrow/internal/domain/performance"
	"companygrow/internal/transport/http/api"
	"companygrow/internal/transport/http/middleware"
	"companygrow/internal/transport/http/shared"
)

type Handler struct {
	Catalog       *catalog.Service
	Notifications *notifications.Service
	Audit         *audit.Service
	Perms         middleware.PermissionStore
}

func NewHandler(cat *catalog.Service, notif *notifications.Service, auditSvc *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Catalog: cat, Notifications: notif, Audit: auditSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/getAllCourses", h.handleGetAllCourses)
	r.With(middleware.RequirePermission(auth.PermCatalogManage, h.Perms)).Post("/addCourse", h.handleAddCourse)
	r.With(middleware.RequirePermission(auth.PermCatalogManage, h.Perms)).Put("/modifyCourse/{id}", h.handleModifyCourse)
	r.With(middleware.RequirePermission(auth.PermCatalogManage, h.Perms)).Delete("/deleteCourse/{id}", h.handleDeleteCourse)
	r.With(middleware.RequirePermission(auth.PermCatalogEnroll, h.Perms)).Post("/enrollCourse/{userId}/{courseId}", h.handleEnrollCourse)
	r.With(middleware.RequirePermission(auth.PermCatalogEnroll, h.Perms)).Post("/completeModule/{userId}/{courseId}/{contentId}", h.handleCompleteModule)
}

func (h *Handler) handleGetAllCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Catalog.ListCourses(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "course_list_failed", "failed to list courses", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, courses, middleware.GetRequestID(r.Context()))
}

type coursePayload struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Difficulty    string          `json:"difficulty"`
	ETA           string          `json:"eta"`
	BadgeReward   string          `json:"badgeReward"`
	Prerequisites []string        `json:"preRequisites"`
	SkillsGained  []string        `json:"skillsGained"`
	Content       []modulePayload `json:"content"`
}

type modulePayload struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	VideoURL      string   `json:"videoUrl"`
	ResourceLinks []string `json:"resourceLinks"`
}

func (p coursePayload) validate() *shared.Validator {
	v := shared.NewValidator()
	v.Required("name", p.Name, "course name is required")
	if p.BadgeReward != "" {
		v.Enum("badgeReward", p.BadgeReward, performance.BadgeTiers, "unknown badge tier")
	}
	for i, m := range p.Content {
		v.Required(fmt.Sprintf("content[%d].title", i), m.Title, "module title is required")
	}
	return v
}

func (p coursePayload) details() catalog.CourseDetails {
	details := catalog.CourseDetails{
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Difficulty:    p.Difficulty,
		ETA:           p.ETA,
		Prerequisites: p.Prerequisites,
		SkillsGained:  p.SkillsGained,
	}
	if tier, ok := performance.CanonicalBadgeTier(p.BadgeReward); ok {
		details.BadgeReward = tier
	}
	for _, m := range p.Content {
		details.Content = append(details.Content, catalog.ModuleDetails{
			Title:         m.Title,
			Description:   m.Description,
			VideoURL:      m.VideoURL,
			ResourceLinks: m.ResourceLinks,
		})
	}
	return details
}

func (h *Handler) handleAddCourse(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload coursePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.validate().Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Catalog.CreateCourse(r.Context(), payload.details())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "course_create_failed", "failed to create course", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "catalog.course.create", "course", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit catalog.course.create failed", "err", err)
	}

	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleModifyCourse(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	courseID := chi.URLParam(r, "id")
	existing, err := h.Catalog.GetCourse(r.Context(), courseID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "course not found", middleware.GetRequestID(r.Context()))
		return
	}

	var payload coursePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.validate().Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Catalog.UpdateCourse(r.Context(), courseID, payload.details()); err != nil {
		api.Fail(w, http.StatusInternalServerError, "course_update_failed", "failed to update course", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "catalog.course.update", "course", courseID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), existing, payload); err != nil {
		slog.Warn("audit catalog.course.update failed", "err", err)
	}

	api.Success(w, map[string]string{"id": courseID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	courseID := chi.URLParam(r, "id")
	existing, err := h.Catalog.GetCourse(r.Context(), courseID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "course not found", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Catalog.DeleteCourse(r.Context(), courseID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "course_delete_failed", "failed to delete course", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "catalog.course.delete", "course", courseID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), existing, nil); err != nil {
		slog.Warn("audit catalog.course.delete failed", "err", err)
	}

	api.Success(w, map[string]string{"id": courseID}, middleware.GetRequestID(r.Context()))
}

// Employees enroll themselves; admins may enroll anyone.
func (h *Handler) handleEnrollCourse(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	userID := chi.URLParam(r, "userId")
	courseID := chi.URLParam(r, "courseId")
	if userID != user.UserID && user.RoleName != auth.RoleAdmin {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	enrollment, err := h.Catalog.Enroll(r.Context(), userID, courseID)
	if err != nil {
		h.failEnrollment(w, r, err)
		return
	}

	course, courseErr := h.Catalog.GetCourse(r.Context(), courseID)
	if courseErr == nil {
		if err := h.Notifications.Create(r.Context(), userID, notifications.TypeEnrollment,
			"Enrolled in "+course.Name, "You have been enrolled in the course "+course.Name+"."); err != nil {
			slog.Warn("enrollment notification failed", "err", err)
		}
	}

	api.Created(w, enrollment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCompleteModule(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	userID := chi.URLParam(r, "userId")
	courseID := chi.URLParam(r, "courseId")
	moduleID := chi.URLParam(r, "contentId")
	if userID != user.UserID && user.RoleName != auth.RoleAdmin {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	progress, err := h.Catalog.CompleteModule(r.Context(), userID, courseID, moduleID)
	if err != nil {
		h.failEnrollment(w, r, err)
		return
	}

	if progress == 100 {
		course, courseErr := h.Catalog.GetCourse(r.Context(), courseID)
		if courseErr == nil {
			if err := h.Notifications.Create(r.Context(), userID, notifications.TypeCourseCompleted,
				"Completed "+course.Name, "Congratulations, you finished the course "+course.Name+"."); err != nil {
				slog.Warn("completion notification failed", "err", err)
			}
		}
	}

	api.Success(w, map[string]int{"progress": progress}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failEnrollment(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, catalog.ErrCourseNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "course not found", requestID)
	case errors.Is(err, catalog.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
	case errors.Is(err, catalog.ErrModuleNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "module not found", requestID)
	case errors.Is(err, catalog.ErrAlreadyEnrolled):
		api.Fail(w, http.StatusBadRequest, "already_enrolled", "user is already enrolled in this course", requestID)
	case errors.Is(err, catalog.ErrNotEnrolled):
		api.Fail(w, http.StatusBadRequest, "not_enrolled", "user is not enrolled in this course", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "enrollment_failed", "enrollment operation failed", requestID)
	}
}
