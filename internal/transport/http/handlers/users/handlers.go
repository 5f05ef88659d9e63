package userhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"companygrow/internal/domain/audit"
	"companygrow/internal/domain/auth"
	"companygrow/internal/domain/catalog"
	"companygrow/internal/domain/performance"
	"companygrow/internal/domain/projects"
	"companygrow/internal/domain/users"
	"companygrow/internal/transport/http/api"
	"companygrow/internal/transport/http/middleware"
	"companygrow/internal/transport/http/shared"
)

type Handler struct {
	Users       *users.Service
	Catalog     *catalog.Service
	Performance *performance.Store
	Projects    *projects.Store
	Audit       *audit.Service
	Perms       middleware.PermissionStore
}

func NewHandler(usersSvc *users.Service, cat *catalog.Service, perf *performance.Store, proj *projects.Store, auditSvc *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Users: usersSvc, Catalog: cat, Performance: perf, Projects: proj, Audit: auditSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/getAllUsers", h.handleGetAllUsers)
	r.Get("/getProfile/{id}", h.handleGetProfile)
	r.Put("/modifyProfile/{id}", h.handleModifyProfile)
	r.With(middleware.RequirePermission(auth.PermPerformanceRead, h.Perms)).Get("/getUserPerf/{id}", h.handleGetUserPerf)
	r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Post("/addUser", h.handleAddUser)
	r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Delete("/deleteUser/{id}", h.handleDeleteUser)
	r.Get("/getUserCourses/{id}", h.handleGetUserCourses)
	r.Get("/getCourseStatus/{userId}/{courseId}", h.handleGetCourseStatus)
	r.Get("/getUserProjects/{id}", h.handleGetUserProjects)
}

func (h *Handler) handleGetAllUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	list, err := h.Users.ListUsers(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_list_failed", "failed to list users", middleware.GetRequestID(r.Context()))
		return
	}

	filtered := make([]users.User, 0, len(list))
	for _, u := range list {
		if user.RoleName == auth.RoleEmployee && u.ID != user.UserID {
			continue
		}
		users.FilterUserFields(&u, user, u.ID == user.UserID)
		filtered = append(filtered, u)
	}
	api.Success(w, filtered, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	userID := chi.URLParam(r, "id")
	profile, err := h.Users.GetUser(r.Context(), userID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
		return
	}

	users.FilterUserFields(profile, user, profile.ID == user.UserID)
	api.Success(w, profile, middleware.GetRequestID(r.Context()))
}

type profilePayload struct {
	Phone            string                  `json:"phone"`
	Department       string                  `json:"department"`
	Position         string                  `json:"position"`
	Experience       int                     `json:"experience"`
	Skills           []string                `json:"skills"`
	Address          *users.Address          `json:"address"`
	EmergencyContact *users.EmergencyContact `json:"emergencyContact"`
}

func (h *Handler) handleModifyProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	userID := chi.URLParam(r, "id")
	if userID != user.UserID && user.RoleName != auth.RoleAdmin {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	var payload profilePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Experience < 0 {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "experience", Reason: "experience cannot be negative"}})
		return
	}

	err := h.Users.UpdateProfile(r.Context(), userID, users.ProfileUpdate{
		Phone:            payload.Phone,
		Department:       payload.Department,
		Position:         payload.Position,
		Experience:       payload.Experience,
		Skills:           payload.Skills,
		Address:          payload.Address,
		EmergencyContact: payload.EmergencyContact,
	})
	if errors.Is(err, users.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "profile_update_failed", "failed to update profile", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "users.profile.update", "user", userID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit users.profile.update failed", "err", err)
	}

	api.Success(w, map[string]string{"id": userID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetUserPerf(w http.ResponseWriter, r *http.Request) {
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

	periods, err := h.Performance.UserPerformance(r.Context(), userID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "performance_read_failed", "failed to read performance data", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, periods, middleware.GetRequestID(r.Context()))
}

type addUserPayload struct {
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	Role       string   `json:"role"`
	Name       string   `json:"name"`
	Phone      string   `json:"phone"`
	Department string   `json:"department"`
	Position   string   `json:"position"`
	Experience int      `json:"experience"`
	Skills     []string `json:"skills"`
}

func (h *Handler) handleAddUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload addUserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("password", payload.Password, "password is required")
	v.Required("name", payload.Name, "name is required")
	if payload.Role != "" {
		v.Enum("role", payload.Role, []string{auth.RoleEmployee, auth.RoleManager, auth.RoleAdmin}, "unknown role")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Users.CreateUser(r.Context(), users.NewUser{
		Email:      payload.Email,
		Password:   payload.Password,
		Role:       payload.Role,
		Name:       payload.Name,
		Phone:      payload.Phone,
		Department: payload.Department,
		Position:   payload.Position,
		Experience: payload.Experience,
		Skills:     payload.Skills,
	})
	if errors.Is(err, users.ErrEmailExists) {
		api.Fail(w, http.StatusBadRequest, "email_exists", "email already registered", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_create_failed", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "users.user.create", "user", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, map[string]string{"email": payload.Email, "role": payload.Role}); err != nil {
		slog.Warn("audit users.user.create failed", "err", err)
	}

	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	userID := chi.URLParam(r, "id")
	if userID == user.UserID {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "cannot delete your own account", middleware.GetRequestID(r.Context()))
		return
	}

	err := h.Users.DeleteUser(r.Context(), userID)
	if errors.Is(err, users.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_delete_failed", "failed to delete user", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "users.user.delete", "user", userID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit users.user.delete failed", "err", err)
	}

	api.Success(w, map[string]string{"id": userID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetUserCourses(w http.ResponseWriter, r *http.Request) {
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

	courses, err := h.Users.UserCourses(r.Context(), userID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "course_list_failed", "failed to list user courses", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, courses, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetCourseStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	userID := chi.URLParam(r, "userId")
	courseID := chi.URLParam(r, "courseId")
	if userID != user.UserID && user.RoleName == auth.RoleEmployee {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	status, err := h.Catalog.CourseStatus(r.Context(), userID, courseID)
	switch {
	case errors.Is(err, catalog.ErrCourseNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "course not found", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, catalog.ErrNotEnrolled):
		api.Fail(w, http.StatusBadRequest, "not_enrolled", "user is not enrolled in this course", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "course_status_failed", "failed to read course status", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, status, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetUserProjects(w http.ResponseWriter, r *http.Request) {
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

	list, err := h.Projects.ListUserProjects(r.Context(), userID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "project_list_failed", "failed to list user projects", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}
