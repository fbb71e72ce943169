package models

import (
	"encoding/json"
	"time"
)

// Instructor extends a member with teaching attributes. Skills is a free-form
// key/value map stored as JSONB.
type Instructor struct {
	ID          string          `db:"id" json:"id"`
	MemberID    string          `db:"member_id" json:"member_id"`
	Skills      json.RawMessage `db:"skills" json:"skills"`
	Bio         string          `db:"bio" json:"bio"`
	Experience  int             `db:"experience" json:"experience"`
	RatePerHour float64         `db:"rate_per_hour" json:"rate_per_hour"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// InstructorDetail is the flat row shape produced by the instructor join.
type InstructorDetail struct {
	ID           string          `db:"id"`
	MemberID     string          `db:"member_id"`
	Skills       json.RawMessage `db:"skills"`
	Bio          string          `db:"bio"`
	Experience   int             `db:"experience"`
	RatePerHour  float64         `db:"rate_per_hour"`
	IsInstructor bool            `db:"is_instructor"`
	UserID       string          `db:"user_id"`
	Username     string          `db:"username"`
	Email        string          `db:"email"`
	FirstName    string          `db:"first_name"`
	LastName     string          `db:"last_name"`
}

// InstructorInfo is the wire shape with the member nested.
type InstructorInfo struct {
	ID          string          `json:"id"`
	Skills      json.RawMessage `json:"skills"`
	Bio         string          `json:"bio"`
	Experience  int             `json:"experience"`
	RatePerHour float64         `json:"rate_per_hour"`
	Member      MemberInfo      `json:"member"`
}

// UpdateInstructorRequest supports partial updates of instructor fields.
type UpdateInstructorRequest struct {
	Skills      json.RawMessage `json:"skills,omitempty"`
	Bio         *string         `json:"bio,omitempty"`
	Experience  *int            `json:"experience,omitempty" validate:"omitempty,gte=0"`
	RatePerHour *float64        `json:"rate_per_hour,omitempty" validate:"omitempty,gte=0"`
}

// ToInstructorInfo maps a joined row to the nested wire shape.
func ToInstructorInfo(d InstructorDetail) InstructorInfo {
	skills := d.Skills
	if len(skills) == 0 {
		skills = json.RawMessage(`{}`)
	}
	return InstructorInfo{
		ID:          d.ID,
		Skills:      skills,
		Bio:         d.Bio,
		Experience:  d.Experience,
		RatePerHour: d.RatePerHour,
		Member: MemberInfo{
			ID:           d.MemberID,
			IsInstructor: d.IsInstructor,
			User: UserInfo{
				ID:        d.UserID,
				Username:  d.Username,
				Email:     d.Email,
				FirstName: d.FirstName,
				LastName:  d.LastName,
			},
		},
	}
}
