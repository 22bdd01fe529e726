package models

import (
	"database/sql"
	"time"
)

// Role is a user's role on the platform
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// UnknownUserName is shown for records whose owner no longer exists
const UnknownUserName = "Unknown User"

// User is an account of any role. Students are users with RoleStudent.
type User struct {
	ID           string         `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	UserName     string         `db:"user_name" json:"userName"`
	Role         Role           `db:"role" json:"role"`
	XP           int            `db:"xp" json:"xp"`
	PasswordHash sql.NullString `db:"password_hash" json:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// DisplayName prefers the user name, then the email
func (u *User) DisplayName() string {
	if u == nil {
		return UnknownUserName
	}
	if u.UserName != "" {
		return u.UserName
	}
	if u.Email != "" {
		return u.Email
	}
	return UnknownUserName
}

// IsStaff reports whether the user may use the dashboard
func (u *User) IsStaff() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}

// StudentProfile is the dashboard's view of a student
type StudentProfile struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	DisplayName      string    `json:"displayName"`
	ExperiencePoints int       `json:"experiencePoints"`
	CreatedAt        time.Time `json:"createdAt"`
}

// StudentProfile converts the user into its student view
func (u *User) StudentProfile() StudentProfile {
	return StudentProfile{
		ID:               u.ID,
		Email:            u.Email,
		DisplayName:      u.DisplayName(),
		ExperiencePoints: u.XP,
		CreatedAt:        u.CreatedAt,
	}
}

// StudentInput is the payload for creating or editing a student
type StudentInput struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"displayName" validate:"max=100"`
}

// UserInput is the payload for creating a staff account
type UserInput struct {
	Email    string `json:"email" validate:"required,email"`
	UserName string `json:"userName" validate:"notblank,max=100"`
	Role     Role   `json:"role" validate:"staff_role"`
	Password string `json:"password" validate:"omitempty,min=8"`
}
