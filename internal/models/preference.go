package models

import "time"

// Preference stores the categories a member cares about. At most one
// preference row exists per member.
type Preference struct {
	ID        string    `db:"id" json:"id"`
	MemberID  string    `db:"member_id" json:"member"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PreferenceInfo is the wire shape with its categories resolved.
type PreferenceInfo struct {
	ID         string     `json:"id"`
	MemberID   string     `json:"member"`
	Categories []Category `json:"category"`
}

// CreatePreferenceRequest creates the caller's preference.
type CreatePreferenceRequest struct {
	CategoryIDs []string `json:"category" validate:"required,min=1,dive,required"`
}
