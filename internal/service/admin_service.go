package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gamedash/internal/games"
	"gamedash/internal/models"
	"gamedash/internal/security"
	"gamedash/internal/validation"
)

// RecordStore is the play record access the admin service needs
type RecordStore interface {
	ListByGame(ctx context.Context, gameType models.GameType) ([]models.PlayRecord, error)
	Update(ctx context.Context, id string, patch models.RecordPatch, modifiedAt time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// UserStore is the user access the admin and auth services need
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateProfile(ctx context.Context, id, email, userName string) (bool, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// AdminService handles record corrections and account management
type AdminService struct {
	records   RecordStore
	users     UserStore
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(records RecordStore, users UserStore, v *validation.Validator, logger *slog.Logger) *AdminService {
	return &AdminService{
		records:   records,
		users:     users,
		validator: v,
		logger:    logger.With("component", "admin"),
		now:       time.Now,
	}
}

// ListRecords returns a game's raw records, newest first
func (s *AdminService) ListRecords(ctx context.Context, gameType models.GameType) ([]models.PlayRecord, error) {
	if _, err := games.Lookup(gameType); err != nil {
		return nil, err
	}
	records, err := s.records.ListByGame(ctx, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

// UpdateRecord corrects a record's level, score or completion flag
func (s *AdminService) UpdateRecord(ctx context.Context, id string, patch models.RecordPatch) MutationResult {
	if patch.Empty() {
		return failed("nothing to update")
	}
	if err := s.validator.Struct(patch); err != nil {
		return failed(err.Error())
	}

	found, err := s.records.Update(ctx, id, patch, s.now())
	if err != nil {
		s.logger.Error("record update failed", "record_id", id, "error", err)
		return failed("failed to update record")
	}
	if !found {
		return failed("record not found")
	}
	s.logger.Info("record updated", "record_id", id)
	return ok("record updated")
}

// DeleteRecord removes a record
func (s *AdminService) DeleteRecord(ctx context.Context, id string) MutationResult {
	found, err := s.records.Delete(ctx, id)
	if err != nil {
		s.logger.Error("record delete failed", "record_id", id, "error", err)
		return failed("failed to delete record")
	}
	if !found {
		return failed("record not found")
	}
	s.logger.Info("record deleted", "record_id", id)
	return ok("record deleted")
}

// CreateStudent registers a student. The display name defaults to the email.
func (s *AdminService) CreateStudent(ctx context.Context, in models.StudentInput) (*models.StudentProfile, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, in.Email, ""); err != nil {
		return nil, err
	}

	name := in.DisplayName
	if name == "" {
		name = in.Email
	}
	user := &models.User{Email: in.Email, UserName: name, Role: models.RoleStudent}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	s.logger.Info("student created", "student_id", user.ID)
	profile := user.StudentProfile()
	return &profile, nil
}

// GetStudent returns one student's profile
func (s *AdminService) GetStudent(ctx context.Context, id string) (*models.StudentProfile, error) {
	user, err := s.student(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := user.StudentProfile()
	return &profile, nil
}

// ListStudents returns every student's profile
func (s *AdminService) ListStudents(ctx context.Context) ([]models.StudentProfile, error) {
	users, err := s.users.ListByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	out := make([]models.StudentProfile, len(users))
	for i := range users {
		out[i] = users[i].StudentProfile()
	}
	return out, nil
}

// UpdateStudent changes a student's email and display name
func (s *AdminService) UpdateStudent(ctx context.Context, id string, in models.StudentInput) MutationResult {
	in.Email = strings.TrimSpace(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := s.validator.Struct(in); err != nil {
		return failed(err.Error())
	}

	if _, err := s.student(ctx, id); err != nil {
		return s.lookupFailure(err, "student", id)
	}
	if err := s.ensureEmailFree(ctx, in.Email, id); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return failed(err.Error())
		}
		return s.lookupFailure(err, "student", id)
	}

	name := in.DisplayName
	if name == "" {
		name = in.Email
	}
	found, err := s.users.UpdateProfile(ctx, id, in.Email, name)
	if err != nil {
		s.logger.Error("student update failed", "student_id", id, "error", err)
		return failed("failed to update student")
	}
	if !found {
		return failed("student not found")
	}
	return ok("student updated")
}

// DeleteStudent removes a student account. Its records are kept.
func (s *AdminService) DeleteStudent(ctx context.Context, id string) MutationResult {
	if _, err := s.student(ctx, id); err != nil {
		return s.lookupFailure(err, "student", id)
	}

	found, err := s.users.Delete(ctx, id)
	if err != nil {
		s.logger.Error("student delete failed", "student_id", id, "error", err)
		return failed("failed to delete student")
	}
	if !found {
		return failed("student not found")
	}
	s.logger.Info("student deleted", "student_id", id)
	return ok("student deleted")
}

// ListUsers returns users with the given role, or all users when role is empty
func (s *AdminService) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	switch role {
	case "", models.RoleStudent, models.RoleTeacher, models.RoleAdmin:
	default:
		return nil, &validation.Error{Fields: map[string]string{"role": "role must be student, teacher or admin"}}
	}
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CreateUser creates a staff account. Without a password the account cannot
// log in until one is set.
func (s *AdminService) CreateUser(ctx context.Context, in models.UserInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.UserName = strings.TrimSpace(in.UserName)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, in.Email, ""); err != nil {
		return nil, err
	}

	user := &models.User{Email: in.Email, UserName: in.UserName, Role: in.Role}
	if in.Password != "" {
		hash, err := security.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash.String, user.PasswordHash.Valid = hash, true
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// UpdateUserRole moves a user to the admin or teacher role
func (s *AdminService) UpdateUserRole(ctx context.Context, id string, role models.Role) MutationResult {
	if err := s.validator.StaffRole(role); err != nil {
		return failed(err.Error())
	}

	found, err := s.users.UpdateRole(ctx, id, role)
	if err != nil {
		s.logger.Error("role update failed", "user_id", id, "error", err)
		return failed("failed to update role")
	}
	if !found {
		return failed("user not found")
	}
	s.logger.Info("user role updated", "user_id", id, "role", role)
	return ok("role updated")
}

// student loads a user and checks it is a student
func (s *AdminService) student(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if user == nil || user.Role != models.RoleStudent {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *AdminService) ensureEmailFree(ctx context.Context, email, ownerID string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil && existing.ID != ownerID {
		return ErrEmailTaken
	}
	return nil
}

func (s *AdminService) lookupFailure(err error, kind, id string) MutationResult {
	if errors.Is(err, ErrNotFound) {
		return failed(kind + " not found")
	}
	s.logger.Error(kind+" lookup failed", "id", id, "error", err)
	return failed("failed to load " + kind)
}
