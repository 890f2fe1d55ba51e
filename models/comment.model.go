package models

import "gorm.io/gorm"

// Comment belongs to a lecture discussion. Replies point at their parent;
// ParentID is nil for top level comments.
type Comment struct {
	gorm.Model
	CourseID  uint   `json:"course_id" gorm:"index;not null"`
	LectureID uint   `json:"lecture_id" gorm:"index;not null"`
	UserID    uint   `json:"user_id" gorm:"index;not null"`
	ParentID  *uint  `json:"parent_id" gorm:"index"`
	Body      string `json:"body" gorm:"type:text;not null"`
}
