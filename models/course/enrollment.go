package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Enrollment is created only by a verified payment
type Enrollment struct {
	gorm.Model
	UserID     uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	CourseID   uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course;index"`
	PaymentID  uint      `json:"payment_id" gorm:"index"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// CourseProgress is the per-student progress record for one course
type CourseProgress struct {
	gorm.Model
	UserID           uint              `json:"user_id" gorm:"not null;uniqueIndex:idx_progress_user_course"`
	CourseID         uint              `json:"course_id" gorm:"not null;uniqueIndex:idx_progress_user_course;index"`
	CurrentLectureID *uint             `json:"current_lecture_id"`
	OverallProgress  int               `json:"overall_progress" gorm:"default:0"`
	CompletedAt      *time.Time        `json:"completed_at"`
	Lectures         []LectureProgress `json:"lectures,omitempty" gorm:"foreignKey:CourseProgressID"`
}

// LectureProgress is the lock and completion state of one lecture for one student
type LectureProgress struct {
	gorm.Model
	CourseProgressID uint       `json:"course_progress_id" gorm:"not null;uniqueIndex:idx_lecture_progress"`
	LectureID        uint       `json:"lecture_id" gorm:"not null;uniqueIndex:idx_lecture_progress;index"`
	IsUnlocked       bool       `json:"is_unlocked" gorm:"default:false"`
	IsCompleted      bool       `json:"is_completed" gorm:"default:false"`
	CompletedAt      *time.Time `json:"completed_at"`
}

// QuizAttempt is an immutable record of one lecture or final quiz submission
type QuizAttempt struct {
	gorm.Model
	UserID            uint                             `json:"user_id" gorm:"index;not null"`
	CourseID          uint                             `json:"course_id" gorm:"index;not null"`
	LectureID         *uint                            `json:"lecture_id" gorm:"index"`
	FinalQuizID       *uint                            `json:"final_quiz_id" gorm:"index"`
	LectureProgressID *uint                            `json:"lecture_progress_id"`
	Responses         datatypes.JSONSlice[MCQResponse] `json:"responses"`
	Score             int                              `json:"score"`
	TotalQuestions    int                              `json:"total_questions"`
	CorrectCount      int                              `json:"correct_count"`
	PassingScore      int                              `json:"passing_score"`
	IsPassed          bool                             `json:"is_passed"`
}
