package course

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StatusDraft     = "DRAFT"
	StatusPending   = "PENDING_REVIEW"
	StatusPublished = "PUBLISHED"
	StatusRejected  = "REJECTED"
)

// Thresholds used when the instructor does not set one. Zero is a valid explicit value.
const (
	DefaultRequiredCompletionPercentage = 80
	DefaultRequiredPassPercentage       = 60
	DefaultFinalPassingPercentage       = 70
)

// Course represents a paid course authored by an instructor
type Course struct {
	gorm.Model
	Title                        string          `json:"title" gorm:"not null"`
	Description                  string          `json:"description" gorm:"type:text"`
	Category                     string          `json:"category" gorm:"index"`
	Level                        string          `json:"level"`
	Price                        decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	InstructorID                 uint            `json:"instructor_id" gorm:"index;not null"`
	Status                       string          `json:"status" gorm:"index;default:'DRAFT'"`
	ReviewerID                   *uint           `json:"reviewer_id" gorm:"index"`
	ReviewNote                   string          `json:"review_note"`
	ThumbnailURL                 string          `json:"thumbnail_url"`
	ThumbnailAssetID             string          `json:"-"`
	PreviewVideoURL              string          `json:"preview_video_url"`
	PreviewVideoAssetID          string          `json:"-"`
	RequiredCompletionPercentage int             `json:"required_completion_percentage" gorm:"not null"`
	TotalStudents                int64           `json:"total_students" gorm:"default:0"`
	TotalRevenue                 decimal.Decimal `json:"total_revenue" gorm:"type:decimal(14,2);default:0;not null"`
	Lectures                     []Lecture       `json:"lectures,omitempty" gorm:"foreignKey:CourseID"`
	FinalQuiz                    *FinalQuiz      `json:"final_quiz,omitempty" gorm:"foreignKey:CourseID"`
}

// Lecture is one ordered unit of a course, gated by its MCQ quiz
type Lecture struct {
	gorm.Model
	CourseID               uint   `json:"course_id" gorm:"index;not null"`
	Title                  string `json:"title" gorm:"not null"`
	Description            string `json:"description" gorm:"type:text"`
	Order                  int    `json:"order" gorm:"column:sort_order;default:0"`
	Duration               int    `json:"duration" gorm:"default:0"` // seconds
	VideoURL               string `json:"video_url"`
	VideoAssetID           string `json:"-"`
	RequiredPassPercentage int    `json:"required_pass_percentage" gorm:"not null"`
	MCQs                   []MCQ  `json:"mcqs,omitempty" gorm:"foreignKey:LectureID"`
}

// FinalQuiz gates certificate issuance for a course
type FinalQuiz struct {
	gorm.Model
	CourseID          uint   `json:"course_id" gorm:"uniqueIndex;not null"`
	Title             string `json:"title"`
	PassingPercentage int    `json:"passing_percentage" gorm:"not null"`
	MCQs              []MCQ  `json:"mcqs,omitempty" gorm:"foreignKey:FinalQuizID"`
}
