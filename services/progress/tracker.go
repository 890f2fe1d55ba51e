package progress

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	courseModels "studysync/models/course"
	"studysync/services"
)

// Issuer issues a completion certificate once a student is eligible.
type Issuer interface {
	Issue(ctx context.Context, userID, courseID uint) (*courseModels.Certificate, error)
}

// Tracker owns the lecture gating state machine: Locked -> Unlocked -> Completed.
type Tracker struct {
	db     *gorm.DB
	issuer Issuer
	now    func() time.Time
}

func NewTracker(db *gorm.DB, issuer Issuer) *Tracker {
	return &Tracker{db: db, issuer: issuer, now: time.Now}
}

// LectureResult never carries the correct options.
type LectureResult struct {
	AttemptID       uint  `json:"attempt_id"`
	Score           int   `json:"score"`
	TotalQuestions  int   `json:"total_questions"`
	CorrectCount    int   `json:"correct_count"`
	PassingScore    int   `json:"passing_score"`
	IsPassed        bool  `json:"is_passed"`
	OverallProgress int   `json:"overall_progress"`
	NextLectureID   *uint `json:"next_lecture_id"`
	CourseCompleted bool  `json:"course_completed"`
}

type FinalResult struct {
	AttemptID      uint   `json:"attempt_id"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"total_questions"`
	CorrectCount   int    `json:"correct_count"`
	PassingScore   int    `json:"passing_score"`
	IsPassed       bool   `json:"is_passed"`
	CertificateID  string `json:"certificate_id,omitempty"`
}

func orderMCQs(db *gorm.DB) *gorm.DB {
	return db.Order("position asc, id asc")
}

func orderedLectures(tx *gorm.DB, courseID uint) ([]courseModels.Lecture, error) {
	var lectures []courseModels.Lecture
	if err := tx.Where("course_id = ?", courseID).Order("sort_order asc, id asc").Find(&lectures).Error; err != nil {
		return nil, errors.Wrap(err, "loading lectures")
	}
	return lectures, nil
}

// Seed creates the progress record for a new enrollment using the caller's
// transaction. Only the first lecture by order starts unlocked.
func Seed(tx *gorm.DB, userID, courseID uint) (*courseModels.CourseProgress, error) {
	lectures, err := orderedLectures(tx, courseID)
	if err != nil {
		return nil, err
	}

	cp := courseModels.CourseProgress{UserID: userID, CourseID: courseID}
	if len(lectures) > 0 {
		cp.CurrentLectureID = &lectures[0].ID
	}
	if err := tx.Create(&cp).Error; err != nil {
		return nil, errors.Wrap(err, "creating course progress")
	}
	if len(lectures) == 0 {
		return &cp, nil
	}

	entries := make([]courseModels.LectureProgress, len(lectures))
	for i, l := range lectures {
		entries[i] = courseModels.LectureProgress{
			CourseProgressID: cp.ID,
			LectureID:        l.ID,
			IsUnlocked:       i == 0,
		}
	}
	if err := tx.Create(&entries).Error; err != nil {
		return nil, errors.Wrap(err, "creating lecture progress")
	}
	cp.Lectures = entries
	return &cp, nil
}

// SubmitLectureQuiz grades a lecture quiz and, on a pass, completes the lecture
// and unlocks the next one. Failed attempts are recorded too.
func (t *Tracker) SubmitLectureQuiz(ctx context.Context, userID, courseID, lectureID uint, answers []int) (*LectureResult, error) {
	var out LectureResult
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cp courseModels.CourseProgress
		if err := services.ForUpdate(tx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&cp).Error; err != nil {
			return services.Lookup(err, "course progress")
		}

		var lecture courseModels.Lecture
		if err := tx.Preload("MCQs", orderMCQs).Where("id = ? AND course_id = ?", lectureID, courseID).First(&lecture).Error; err != nil {
			return services.Lookup(err, "lecture")
		}
		if cp.CurrentLectureID == nil || *cp.CurrentLectureID != lecture.ID {
			return services.ErrNotCurrentLecture
		}

		entry, err := unlock(tx, cp.ID, lecture.ID)
		if err != nil {
			return err
		}
		if entry.IsCompleted {
			return services.ErrAlreadyCompleted
		}

		if len(lecture.MCQs) == 0 {
			return services.Invalid("lecture has no quiz questions")
		}
		if len(answers) != len(lecture.MCQs) {
			return services.Invalid("expected %d answers, got %d", len(lecture.MCQs), len(answers))
		}

		g := Grade(lecture.MCQs, answers)
		passed := g.Score >= lecture.RequiredPassPercentage
		attempt := courseModels.QuizAttempt{
			UserID:            userID,
			CourseID:          courseID,
			LectureID:         &lecture.ID,
			LectureProgressID: &entry.ID,
			Responses:         g.Responses,
			Score:             g.Score,
			TotalQuestions:    g.Total,
			CorrectCount:      g.Correct,
			PassingScore:      lecture.RequiredPassPercentage,
			IsPassed:          passed,
		}
		if err := tx.Create(&attempt).Error; err != nil {
			return errors.Wrap(err, "recording attempt")
		}

		out = LectureResult{
			AttemptID:      attempt.ID,
			Score:          g.Score,
			TotalQuestions: g.Total,
			CorrectCount:   g.Correct,
			PassingScore:   lecture.RequiredPassPercentage,
			IsPassed:       passed,
		}

		now := t.now()
		if passed {
			res := tx.Model(&courseModels.LectureProgress{}).
				Where("id = ? AND is_completed = ?", entry.ID, false).
				Updates(map[string]interface{}{"is_completed": true, "is_unlocked": true, "completed_at": now})
			if res.Error != nil {
				return errors.Wrap(res.Error, "completing lecture")
			}
			if res.RowsAffected == 0 {
				return services.ErrAlreadyCompleted
			}

			next, err := firstOpenLecture(tx, cp.ID, courseID)
			if err != nil {
				return err
			}
			cp.CurrentLectureID = nil
			if next != nil {
				if _, err := unlock(tx, cp.ID, next.ID); err != nil {
					return err
				}
				cp.CurrentLectureID = &next.ID
			}
			out.NextLectureID = cp.CurrentLectureID
		}

		overall, err := overallProgress(tx, cp.ID, courseID)
		if err != nil {
			return err
		}
		cp.OverallProgress = overall
		if overall >= 100 && cp.CompletedAt == nil {
			cp.CompletedAt = &now
		}
		if err := tx.Model(&cp).Select("current_lecture_id", "overall_progress", "completed_at").Updates(&cp).Error; err != nil {
			return errors.Wrap(err, "updating course progress")
		}

		out.OverallProgress = overall
		out.CourseCompleted = cp.CompletedAt != nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// unlock returns the entry for the lecture, creating it or flipping it to
// unlocked as needed. Entries are never locked again.
func unlock(tx *gorm.DB, courseProgressID, lectureID uint) (*courseModels.LectureProgress, error) {
	var entry courseModels.LectureProgress
	err := tx.Where("course_progress_id = ? AND lecture_id = ?", courseProgressID, lectureID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry = courseModels.LectureProgress{CourseProgressID: courseProgressID, LectureID: lectureID, IsUnlocked: true}
		if err := tx.Create(&entry).Error; err != nil {
			return nil, errors.Wrap(err, "creating lecture progress")
		}
		return &entry, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading lecture progress")
	}
	if !entry.IsUnlocked {
		if err := tx.Model(&entry).Update("is_unlocked", true).Error; err != nil {
			return nil, errors.Wrap(err, "unlocking lecture")
		}
	}
	return &entry, nil
}

// firstOpenLecture returns the lowest-ordered lecture the student has not
// completed, or nil when every lecture is done.
func firstOpenLecture(tx *gorm.DB, courseProgressID, courseID uint) (*courseModels.Lecture, error) {
	var next courseModels.Lecture
	err := tx.Where("course_id = ?", courseID).
		Where("id NOT IN (?)", tx.Model(&courseModels.LectureProgress{}).Select("lecture_id").
			Where("course_progress_id = ? AND is_completed = ?", courseProgressID, true)).
		Order("sort_order asc, id asc").
		First(&next).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading next lecture")
	}
	return &next, nil
}

func overallProgress(tx *gorm.DB, courseProgressID, courseID uint) (int, error) {
	var total int64
	if err := tx.Model(&courseModels.Lecture{}).Where("course_id = ?", courseID).Count(&total).Error; err != nil {
		return 0, errors.Wrap(err, "counting lectures")
	}
	var completed int64
	if err := tx.Model(&courseModels.LectureProgress{}).
		Where("course_progress_id = ? AND is_completed = ?", courseProgressID, true).
		Where("lecture_id IN (?)", tx.Model(&courseModels.Lecture{}).Select("id").Where("course_id = ?", courseID)).
		Count(&completed).Error; err != nil {
		return 0, errors.Wrap(err, "counting completed lectures")
	}
	return Percent(int(completed), int(total)), nil
}

// SubmitFinalQuiz grades the course's final quiz. A pass triggers certificate issuance.
func (t *Tracker) SubmitFinalQuiz(ctx context.Context, userID, courseID uint, answers []int) (*FinalResult, error) {
	var out FinalResult
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cp courseModels.CourseProgress
		if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&cp).Error; err != nil {
			return services.Lookup(err, "course progress")
		}
		var course courseModels.Course
		if err := tx.First(&course, courseID).Error; err != nil {
			return services.Lookup(err, "course")
		}
		var quiz courseModels.FinalQuiz
		if err := tx.Preload("MCQs", orderMCQs).Where("course_id = ?", courseID).First(&quiz).Error; err != nil {
			return services.Lookup(err, "final quiz")
		}
		if cp.OverallProgress < course.RequiredCompletionPercentage {
			return errors.Wrapf(services.ErrNotEligible, "course progress %d%% is below the required %d%%",
				cp.OverallProgress, course.RequiredCompletionPercentage)
		}
		if len(quiz.MCQs) == 0 {
			return services.Invalid("final quiz has no questions")
		}
		if len(answers) != len(quiz.MCQs) {
			return services.Invalid("expected %d answers, got %d", len(quiz.MCQs), len(answers))
		}

		g := Grade(quiz.MCQs, answers)
		attempt := courseModels.QuizAttempt{
			UserID:         userID,
			CourseID:       courseID,
			FinalQuizID:    &quiz.ID,
			Responses:      g.Responses,
			Score:          g.Score,
			TotalQuestions: g.Total,
			CorrectCount:   g.Correct,
			PassingScore:   quiz.PassingPercentage,
			IsPassed:       g.Score >= quiz.PassingPercentage,
		}
		if err := tx.Create(&attempt).Error; err != nil {
			return errors.Wrap(err, "recording attempt")
		}

		out = FinalResult{
			AttemptID:      attempt.ID,
			Score:          g.Score,
			TotalQuestions: g.Total,
			CorrectCount:   g.Correct,
			PassingScore:   quiz.PassingPercentage,
			IsPassed:       attempt.IsPassed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.IsPassed && t.issuer != nil {
		cert, err := t.issuer.Issue(ctx, userID, courseID)
		if err != nil {
			// the attempt stands; issuance can be retried through the certificate endpoint
			log.Printf("[PROGRESS] Certificate issuance failed for user %d course %d: %v", userID, courseID, err)
		} else {
			out.CertificateID = cert.CertificateID
		}
	}
	return &out, nil
}

// AttemptView is one past attempt without the correct options.
type AttemptView struct {
	ID             uint                       `json:"id"`
	Score          int                        `json:"score"`
	TotalQuestions int                        `json:"total_questions"`
	CorrectCount   int                        `json:"correct_count"`
	PassingScore   int                        `json:"passing_score"`
	IsPassed       bool                       `json:"is_passed"`
	Responses      []courseModels.MCQResponse `json:"responses"`
	SubmittedAt    time.Time                  `json:"submitted_at"`
}

// Attempts lists the student's attempts at one lecture quiz, newest first.
func (t *Tracker) Attempts(ctx context.Context, userID, courseID, lectureID uint) ([]AttemptView, error) {
	db := t.db.WithContext(ctx)

	var cp courseModels.CourseProgress
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&cp).Error; err != nil {
		return nil, services.Lookup(err, "course progress")
	}
	var lecture courseModels.Lecture
	if err := db.Where("id = ? AND course_id = ?", lectureID, courseID).First(&lecture).Error; err != nil {
		return nil, services.Lookup(err, "lecture")
	}

	var attempts []courseModels.QuizAttempt
	if err := db.Where("user_id = ? AND lecture_id = ?", userID, lectureID).
		Order("created_at desc, id desc").
		Find(&attempts).Error; err != nil {
		return nil, errors.Wrap(err, "loading attempts")
	}

	views := make([]AttemptView, len(attempts))
	for i, a := range attempts {
		views[i] = AttemptView{
			ID:             a.ID,
			Score:          a.Score,
			TotalQuestions: a.TotalQuestions,
			CorrectCount:   a.CorrectCount,
			PassingScore:   a.PassingScore,
			IsPassed:       a.IsPassed,
			Responses:      a.Responses,
			SubmittedAt:    a.CreatedAt,
		}
	}
	return views, nil
}

// Reconcile repairs every progress record of a course after its lecture list
// or lecture order changed. Each student's current lecture becomes their first
// uncompleted lecture by order, which is unlocked, and overall progress is
// recomputed. Nothing is locked again.
func Reconcile(tx *gorm.DB, courseID uint) error {
	var records []courseModels.CourseProgress
	if err := tx.Where("course_id = ?", courseID).Find(&records).Error; err != nil {
		return errors.Wrap(err, "loading course progress")
	}

	for _, cp := range records {
		next, err := firstOpenLecture(tx, cp.ID, courseID)
		if err != nil {
			return err
		}
		var current *uint
		if next != nil {
			if _, err := unlock(tx, cp.ID, next.ID); err != nil {
				return err
			}
			current = &next.ID
		}

		overall, err := overallProgress(tx, cp.ID, courseID)
		if err != nil {
			return err
		}
		if err := tx.Model(&courseModels.CourseProgress{}).Where("id = ?", cp.ID).Updates(map[string]interface{}{
			"current_lecture_id": current,
			"overall_progress":   overall,
		}).Error; err != nil {
			return errors.Wrap(err, "updating course progress")
		}
	}
	return nil
}
