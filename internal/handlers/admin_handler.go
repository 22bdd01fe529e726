package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"gamedash/internal/models"
	"gamedash/internal/service"
)

// AdminService manages records and accounts
type AdminService interface {
	ListRecords(ctx context.Context, gameType models.GameType) ([]models.PlayRecord, error)
	UpdateRecord(ctx context.Context, id string, patch models.RecordPatch) service.MutationResult
	DeleteRecord(ctx context.Context, id string) service.MutationResult

	CreateStudent(ctx context.Context, in models.StudentInput) (*models.StudentProfile, error)
	GetStudent(ctx context.Context, id string) (*models.StudentProfile, error)
	ListStudents(ctx context.Context) ([]models.StudentProfile, error)
	UpdateStudent(ctx context.Context, id string, in models.StudentInput) service.MutationResult
	DeleteStudent(ctx context.Context, id string) service.MutationResult

	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
	CreateUser(ctx context.Context, in models.UserInput) (*models.User, error)
	UpdateUserRole(ctx context.Context, id string, role models.Role) service.MutationResult
}

// AdminHandler handles record corrections and account management
type AdminHandler struct {
	admin  AdminService
	logger *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// ListRecords lists one game's raw records
func (h *AdminHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.admin.ListRecords(r.Context(), gameTypeParam(r.URL.Query()))
	if err != nil {
		respondWithServiceError(w, h.logger, "list records failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, records)
}

// UpdateRecord corrects one record
func (h *AdminHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	var patch models.RecordPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	respondWithMutation(w, h.admin.UpdateRecord(r.Context(), r.PathValue("id"), patch))
}

// DeleteRecord removes one record
func (h *AdminHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	respondWithMutation(w, h.admin.DeleteRecord(r.Context(), r.PathValue("id")))
}

// ListStudents lists every student
func (h *AdminHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.admin.ListStudents(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "list students failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, students)
}

// CreateStudent registers a student
func (h *AdminHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var in models.StudentInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	profile, err := h.admin.CreateStudent(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, h.logger, "create student failed", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, profile)
}

// GetStudent returns one student
func (h *AdminHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	profile, err := h.admin.GetStudent(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, h.logger, "get student failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// UpdateStudent edits a student's email and display name
func (h *AdminHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var in models.StudentInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	respondWithMutation(w, h.admin.UpdateStudent(r.Context(), r.PathValue("id"), in))
}

// DeleteStudent removes a student account
func (h *AdminHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	respondWithMutation(w, h.admin.DeleteStudent(r.Context(), r.PathValue("id")))
}

// ListUsers lists users, optionally by role
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context(), models.Role(r.URL.Query().Get("role")))
	if err != nil {
		respondWithServiceError(w, h.logger, "list users failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

// CreateUser creates a staff account
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in models.UserInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	user, err := h.admin.CreateUser(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, h.logger, "create user failed", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

type roleRequest struct {
	Role models.Role `json:"role"`
}

// UpdateUserRole changes a user's role. Admins cannot demote themselves.
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	id := r.PathValue("id")
	if user := GetUserFromContext(r.Context()); user != nil && user.ID == id && req.Role != models.RoleAdmin {
		respondWithMutation(w, service.MutationResult{Message: "cannot change your own role"})
		return
	}
	respondWithMutation(w, h.admin.UpdateUserRole(r.Context(), id, req.Role))
}

// respondWithMutation writes a mutation outcome. Failures are reported in
// the body with status 200 so clients read one shape.
func respondWithMutation(w http.ResponseWriter, result service.MutationResult) {
	respondWithJSON(w, http.StatusOK, result)
}
