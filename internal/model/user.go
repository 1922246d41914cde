package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// ParseRole maps a stored or claimed role string onto the enum.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleSuperAdmin:
		return RoleSuperAdmin, true
	default:
		return "", false
	}
}

// DefaultAvatar is assigned to newly registered users.
const DefaultAvatar = "https://cdn-icons-png.flaticon.com/512/149/149071.png"

// User is a registered account.
type User struct {
	ID                       uuid.UUID  `json:"id"`
	Name                     string     `json:"name"`
	Email                    string     `json:"email"`
	PhoneNumber              string     `json:"phoneNumber"`
	PasswordHash             string     `json:"-"`
	Role                     Role       `json:"role"`
	Avatar                   string     `json:"avatar"`
	IsVerified               bool       `json:"isVerified"`
	VerificationToken        *string    `json:"-"`
	VerificationTokenExpires *time.Time `json:"-"`
	LastLogin                *time.Time `json:"lastLogin,omitempty"`
	CreatedAt                time.Time  `json:"createdAt"`
	UpdatedAt                time.Time  `json:"updatedAt"`
}

// RegisterRequest is the payload for POST /api/users/register.
type RegisterRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest is the payload for POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest is the payload for POST /api/users/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the payload for POST /api/users/reset-password/{token}.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// UserSummary is the public view of a user returned on login.
type UserSummary struct {
	ID    uuid.UUID `json:"_id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

// LoginResponse carries the access token for an authenticated user.
type LoginResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
	Token   string      `json:"token"`
}
