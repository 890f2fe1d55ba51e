package progress

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"studysync/models"
	courseModels "studysync/models/course"
	"studysync/services"
)

type CourseHeader struct {
	ID             uint   `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	ThumbnailURL   string `json:"thumbnail_url"`
	InstructorID   uint   `json:"instructor_id"`
	InstructorName string `json:"instructor_name"`
}

type Summary struct {
	OverallProgress              int        `json:"overall_progress"`
	CurrentLectureID             *uint      `json:"current_lecture_id"`
	CompletedLectures            int        `json:"completed_lectures"`
	TotalLectures                int        `json:"total_lectures"`
	RequiredCompletionPercentage int        `json:"required_completion_percentage"`
	CompletedAt                  *time.Time `json:"completed_at"`
}

// QuestionView is an MCQ as shown to students.
type QuestionView struct {
	ID       uint     `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type AttemptSummary struct {
	Attempts      int        `json:"attempts"`
	BestScore     int        `json:"best_score"`
	LastAttemptAt *time.Time `json:"last_attempt_at"`
}

type UnlockedLecture struct {
	ID                     uint           `json:"id"`
	Title                  string         `json:"title"`
	Description            string         `json:"description"`
	Order                  int            `json:"order"`
	Duration               int            `json:"duration"`
	VideoURL               string         `json:"video_url"`
	IsCompleted            bool           `json:"is_completed"`
	CompletedAt            *time.Time     `json:"completed_at"`
	RequiredPassPercentage int            `json:"required_pass_percentage"`
	Questions              []QuestionView `json:"questions"`
	AttemptSummary         AttemptSummary `json:"attempt_summary"`
}

type LockedLecture struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Order    int    `json:"order"`
	Duration int    `json:"duration"`
}

type FinalQuizSummary struct {
	ID                uint           `json:"id"`
	Title             string         `json:"title"`
	QuestionCount     int            `json:"question_count"`
	PassingPercentage int            `json:"passing_percentage"`
	IsAvailable       bool           `json:"is_available"`
	IsPassed          bool           `json:"is_passed"`
	BestScore         int            `json:"best_score"`
	Questions         []QuestionView `json:"questions,omitempty"`
}

// LearnerView is the student's page for an enrolled course.
type LearnerView struct {
	Course           CourseHeader      `json:"course"`
	Progress         Summary           `json:"progress"`
	UnlockedLectures []UnlockedLecture `json:"unlocked_lectures"`
	LockedLectures   []LockedLecture   `json:"locked_lectures"`
	FinalQuiz        *FinalQuizSummary `json:"final_quiz"`
	CertificateID    string            `json:"certificate_id,omitempty"`
}

func questionViews(mcqs []courseModels.MCQ) []QuestionView {
	out := make([]QuestionView, len(mcqs))
	for i, q := range mcqs {
		out[i] = QuestionView{ID: q.ID, Question: q.Question, Options: []string(q.Options)}
	}
	return out
}

func (t *Tracker) LearnerView(ctx context.Context, userID, courseID uint) (*LearnerView, error) {
	db := t.db.WithContext(ctx)

	var cp courseModels.CourseProgress
	if err := db.Preload("Lectures").Where("user_id = ? AND course_id = ?", userID, courseID).First(&cp).Error; err != nil {
		return nil, services.Lookup(err, "course progress")
	}
	var course courseModels.Course
	if err := db.Preload("Lectures", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc, id asc")
	}).Preload("Lectures.MCQs", orderMCQs).First(&course, courseID).Error; err != nil {
		return nil, services.Lookup(err, "course")
	}
	var instructor models.User
	if err := db.Select("id", "name").First(&instructor, course.InstructorID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "loading instructor")
	}

	var attempts []courseModels.QuizAttempt
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).Find(&attempts).Error; err != nil {
		return nil, errors.Wrap(err, "loading attempts")
	}
	byLecture := map[uint]*AttemptSummary{}
	finalBest, finalPassed := 0, false
	for _, a := range attempts {
		if a.FinalQuizID != nil {
			if a.Score > finalBest {
				finalBest = a.Score
			}
			finalPassed = finalPassed || a.IsPassed
			continue
		}
		if a.LectureID == nil {
			continue
		}
		s, ok := byLecture[*a.LectureID]
		if !ok {
			s = &AttemptSummary{}
			byLecture[*a.LectureID] = s
		}
		s.Attempts++
		if a.Score > s.BestScore {
			s.BestScore = a.Score
		}
		if s.LastAttemptAt == nil || a.CreatedAt.After(*s.LastAttemptAt) {
			at := a.CreatedAt
			s.LastAttemptAt = &at
		}
	}

	entries := make(map[uint]courseModels.LectureProgress, len(cp.Lectures))
	for _, e := range cp.Lectures {
		entries[e.LectureID] = e
	}

	view := &LearnerView{
		Course: CourseHeader{
			ID:             course.ID,
			Title:          course.Title,
			Description:    course.Description,
			ThumbnailURL:   course.ThumbnailURL,
			InstructorID:   course.InstructorID,
			InstructorName: instructor.Name,
		},
		Progress: Summary{
			OverallProgress:              cp.OverallProgress,
			CurrentLectureID:             cp.CurrentLectureID,
			TotalLectures:                len(course.Lectures),
			RequiredCompletionPercentage: course.RequiredCompletionPercentage,
			CompletedAt:                  cp.CompletedAt,
		},
		UnlockedLectures: []UnlockedLecture{},
		LockedLectures:   []LockedLecture{},
	}

	for _, l := range course.Lectures {
		e, ok := entries[l.ID]
		if !ok || !e.IsUnlocked {
			view.LockedLectures = append(view.LockedLectures, LockedLecture{ID: l.ID, Title: l.Title, Order: l.Order, Duration: l.Duration})
			continue
		}
		if e.IsCompleted {
			view.Progress.CompletedLectures++
		}
		ul := UnlockedLecture{
			ID:                     l.ID,
			Title:                  l.Title,
			Description:            l.Description,
			Order:                  l.Order,
			Duration:               l.Duration,
			VideoURL:               l.VideoURL,
			IsCompleted:            e.IsCompleted,
			CompletedAt:            e.CompletedAt,
			RequiredPassPercentage: l.RequiredPassPercentage,
			Questions:              questionViews(l.MCQs),
		}
		if s, ok := byLecture[l.ID]; ok {
			ul.AttemptSummary = *s
		}
		view.UnlockedLectures = append(view.UnlockedLectures, ul)
	}

	var quiz courseModels.FinalQuiz
	err := db.Preload("MCQs", orderMCQs).Where("course_id = ?", courseID).First(&quiz).Error
	switch {
	case err == nil:
		available := cp.OverallProgress >= course.RequiredCompletionPercentage
		view.FinalQuiz = &FinalQuizSummary{
			ID:                quiz.ID,
			Title:             quiz.Title,
			QuestionCount:     len(quiz.MCQs),
			PassingPercentage: quiz.PassingPercentage,
			IsAvailable:       available,
			IsPassed:          finalPassed,
			BestScore:         finalBest,
		}
		if available {
			view.FinalQuiz.Questions = questionViews(quiz.MCQs)
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.Wrap(err, "loading final quiz")
	}

	var cert courseModels.Certificate
	err = db.Select("certificate_id").Where("user_id = ? AND course_id = ?", userID, courseID).First(&cert).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "loading certificate")
	}
	view.CertificateID = cert.CertificateID

	return view, nil
}
