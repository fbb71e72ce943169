package models

import "time"

// User represents an account stored in the users table. The password hash is
// never serialized.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Member links a user to marketplace activity (enrollments, preferences).
type Member struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	IsInstructor bool      `db:"is_instructor" json:"is_instructor"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserInfo is the wire shape for a user nested inside other resources.
type UserInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// MemberInfo is the wire shape for a member with its user.
type MemberInfo struct {
	ID           string   `json:"id"`
	IsInstructor bool     `json:"is_instructor"`
	User         UserInfo `json:"user"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
	TotalCount int `json:"total_count"`
}
