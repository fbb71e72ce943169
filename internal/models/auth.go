package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignUpRequest creates a user and member in one call.
type SignUpRequest struct {
	Username     string `json:"username" validate:"required,max=150"`
	Password     string `json:"password" validate:"required,min=6"`
	Email        string `json:"email" validate:"required,email"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	IsInstructor bool   `json:"is_instructor"`
}

// TokenPair carries the issued bearer credentials.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// SignUpResponse returns the created member and its tokens.
type SignUpResponse struct {
	Token TokenPair  `json:"token"`
	Data  MemberInfo `json:"data"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued tokens.
type LoginResponse struct {
	Message string    `json:"msg"`
	Token   TokenPair `json:"token"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh" validate:"required"`
}

// ChangePasswordRequest payload for updating the password.
type ChangePasswordRequest struct {
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"password2" validate:"required"`
}

// SendResetRequest initiates the reset-by-email flow.
type SendResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ConfirmResetRequest completes the reset flow. The uid and token arrive as
// path parameters on the reset link.
type ConfirmResetRequest struct {
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"password2" validate:"required"`
	UID             string `json:"-"`
	Token           string `json:"-"`
}

// ProfileResponse describes the authenticated caller.
type ProfileResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// JWTClaims are embedded in access tokens.
type JWTClaims struct {
	UserID       string `json:"user_id"`
	MemberID     string `json:"member_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	IsInstructor bool   `json:"is_instructor"`
	jwt.RegisteredClaims
}

// RefreshToken is a persisted opaque refresh credential.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}
