package course

import (
	"time"

	"gorm.io/gorm"
)

const (
	CertificateIssued  = "ISSUED"
	CertificateRevoked = "REVOKED"
)

// Certificate is issued once per (user, course). Names and scores are
// snapshotted at issue time so later edits do not alter issued certificates.
type Certificate struct {
	gorm.Model
	CertificateID  string     `json:"certificate_id" gorm:"uniqueIndex;not null"`
	UserID         uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_certificate_user_course"`
	CourseID       uint       `json:"course_id" gorm:"not null;uniqueIndex:idx_certificate_user_course;index"`
	LearnerName    string     `json:"learner_name"`
	CourseName     string     `json:"course_name"`
	InstructorName string     `json:"instructor_name"`
	FinalScore     int        `json:"final_score"`
	CompletionDate time.Time  `json:"completion_date"`
	IssuedAt       time.Time  `json:"issued_at"`
	Status         string     `json:"status" gorm:"index;default:'ISSUED'"`
	RevokedAt      *time.Time `json:"revoked_at"`
	RevokeReason   string     `json:"revoke_reason"`
}
