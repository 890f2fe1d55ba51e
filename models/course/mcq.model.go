package course

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MCQ belongs to exactly one of a lecture or a course's final quiz
type MCQ struct {
	gorm.Model
	LectureID     *uint                       `json:"lecture_id" gorm:"index"`
	FinalQuizID   *uint                       `json:"final_quiz_id" gorm:"index"`
	Question      string                      `json:"question" gorm:"type:text;not null"`
	Options       datatypes.JSONSlice[string] `json:"options" gorm:"not null"`
	CorrectOption int                         `json:"-" gorm:"not null"`
	Position      int                         `json:"position" gorm:"default:0"`
}

// MCQResponse records how one question of an attempt was answered
type MCQResponse struct {
	MCQID          uint   `json:"mcq_id"`
	SelectedOption int    `json:"selected_option"`
	SelectedText   string `json:"selected_text"`
	IsCorrect      bool   `json:"is_correct"`
}
