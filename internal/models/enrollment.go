package models

import "time"

// Enrollment ties a member to a course. The course side is unique: a course
// holds at most one enrollment record. That mirrors the upstream schema and is
// almost certainly a modeling defect; it is kept pending product clarification.
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	MemberID   string    `db:"member_id" json:"member_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrollment_date"`
}

// EnrollmentDetail is the flat row shape produced by the enrollment join.
type EnrollmentDetail struct {
	ID         string    `db:"id"`
	MemberID   string    `db:"member_id"`
	CourseID   string    `db:"course_id"`
	EnrolledAt time.Time `db:"enrolled_at"`
	CourseName string    `db:"course_name"`
	Username   string    `db:"username"`
}

// EnrollmentInfo is the wire shape for enrollment listings.
type EnrollmentInfo struct {
	ID             string    `json:"id"`
	MemberID       string    `json:"member_id"`
	MemberUsername string    `json:"member_username"`
	CourseID       string    `json:"course_id"`
	CourseName     string    `json:"course_name"`
	EnrolledAt     time.Time `json:"enrollment_date"`
}

// CreateEnrollmentRequest creates an enrollment.
type CreateEnrollmentRequest struct {
	MemberID string `json:"member" validate:"required"`
	CourseID string `json:"course" validate:"required"`
}

// ToEnrollmentInfo maps a joined row to the wire shape.
func ToEnrollmentInfo(d EnrollmentDetail) EnrollmentInfo {
	return EnrollmentInfo{
		ID:             d.ID,
		MemberID:       d.MemberID,
		MemberUsername: d.Username,
		CourseID:       d.CourseID,
		CourseName:     d.CourseName,
		EnrolledAt:     d.EnrolledAt,
	}
}
