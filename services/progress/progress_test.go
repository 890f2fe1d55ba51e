package progress_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	courseModels "studysync/models/course"
	"studysync/services"
	"studysync/services/certificate"
	"studysync/services/notification"
	"studysync/services/progress"
	"studysync/testutil"
)

var correct = []int{0, 2, 1}

type fixture struct {
	db       *gorm.DB
	tracker  *progress.Tracker
	userID   uint
	course   *courseModels.Course
	lectures []*courseModels.Lecture
}

func setup(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	student := testutil.Student(t, db)
	instructor := testutil.Instructor(t, db)
	course := testutil.CreateCourse(t, db, instructor.ID)

	f := &fixture{db: db, userID: student.ID, course: course}
	for i := 1; i <= 3; i++ {
		f.lectures = append(f.lectures, testutil.CreateLecture(t, db, course.ID, i, correct...))
	}

	require.NoError(t, db.Create(&courseModels.Enrollment{UserID: student.ID, CourseID: course.ID}).Error)
	_, err := progress.Seed(db, student.ID, course.ID)
	require.NoError(t, err)

	issuer := certificate.NewIssuer(db, notification.NewSyncDispatcher(db, notification.LogNotifier{}), notification.Templates{AppName: "Study Sync"})
	f.tracker = progress.NewTracker(db, issuer)
	return f
}

func (f *fixture) submit(t *testing.T, lecture int, answers []int) (*progress.LectureResult, error) {
	return f.tracker.SubmitLectureQuiz(context.Background(), f.userID, f.course.ID, f.lectures[lecture].ID, answers)
}

func (f *fixture) unlocked(t *testing.T) map[uint]bool {
	t.Helper()
	var entries []courseModels.LectureProgress
	cp := f.progress(t)
	require.NoError(t, f.db.Where("course_progress_id = ?", cp.ID).Find(&entries).Error)
	out := map[uint]bool{}
	for _, e := range entries {
		if e.IsUnlocked {
			out[e.LectureID] = true
		}
	}
	return out
}

func (f *fixture) progress(t *testing.T) courseModels.CourseProgress {
	t.Helper()
	var cp courseModels.CourseProgress
	require.NoError(t, f.db.Where("user_id = ? AND course_id = ?", f.userID, f.course.ID).First(&cp).Error)
	return cp
}

func TestGrade(t *testing.T) {
	mcqs := make([]courseModels.MCQ, len(correct))
	for i, c := range correct {
		mcqs[i] = courseModels.MCQ{Options: datatypes.JSONSlice[string]{"A", "B", "C"}, CorrectOption: c}
	}

	r := progress.Grade(mcqs, []int{0, 2, 1})
	assert.Equal(t, 3, r.Correct)
	assert.Equal(t, 100, r.Score)

	r = progress.Grade(mcqs, []int{0, 0, 0})
	assert.Equal(t, 1, r.Correct)
	assert.Equal(t, 33, r.Score)
	assert.Equal(t, "A", r.Responses[1].SelectedText)
	assert.False(t, r.Responses[1].IsCorrect)

	r = progress.Grade(mcqs, []int{7, 2, 1})
	assert.Equal(t, 67, r.Score)
	assert.False(t, r.Responses[0].IsCorrect)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, progress.Percent(1, 0))
	assert.Equal(t, 33, progress.Percent(1, 3))
	assert.Equal(t, 67, progress.Percent(2, 3))
	assert.Equal(t, 100, progress.Percent(3, 3))
}

func TestPassingUnlocksNextLecture(t *testing.T) {
	f := setup(t)

	res, err := f.submit(t, 0, correct)
	require.NoError(t, err)
	assert.True(t, res.IsPassed)
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, 3, res.TotalQuestions)
	assert.Equal(t, 60, res.PassingScore)
	assert.Equal(t, 33, res.OverallProgress)
	require.NotNil(t, res.NextLectureID)
	assert.Equal(t, f.lectures[1].ID, *res.NextLectureID)

	unlocked := f.unlocked(t)
	assert.True(t, unlocked[f.lectures[0].ID])
	assert.True(t, unlocked[f.lectures[1].ID])
	assert.False(t, unlocked[f.lectures[2].ID])
}

func TestLecturesAreGatedInOrder(t *testing.T) {
	f := setup(t)

	_, err := f.submit(t, 1, correct)
	assert.True(t, errors.Is(err, services.ErrNotCurrentLecture))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &courseModels.QuizAttempt{}))

	_, err = f.submit(t, 0, correct)
	require.NoError(t, err)

	// the completed lecture is no longer current
	_, err = f.submit(t, 0, correct)
	assert.True(t, errors.Is(err, services.ErrNotCurrentLecture))
}

func TestFailedAttemptIsRecorded(t *testing.T) {
	f := setup(t)

	res, err := f.submit(t, 0, []int{0, 0, 0})
	require.NoError(t, err)
	assert.False(t, res.IsPassed)
	assert.Equal(t, 33, res.Score)
	assert.Nil(t, res.NextLectureID)

	assert.Equal(t, int64(1), testutil.Count(t, f.db, &courseModels.QuizAttempt{}))
	cp := f.progress(t)
	require.NotNil(t, cp.CurrentLectureID)
	assert.Equal(t, f.lectures[0].ID, *cp.CurrentLectureID)
	assert.False(t, f.unlocked(t)[f.lectures[1].ID])
}

func TestAnswerCountMustMatch(t *testing.T) {
	f := setup(t)

	_, err := f.submit(t, 0, []int{0, 2})
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestSkippingAheadIsGatedBeforeValidation(t *testing.T) {
	f := setup(t)

	_, err := f.submit(t, 2, []int{0})
	assert.True(t, errors.Is(err, services.ErrNotCurrentLecture))
}

// Another request completes the lecture between this request's read of the
// entry and its conditional update.
func TestConcurrentPassCompletesLectureOnce(t *testing.T) {
	f := setup(t)
	cp := f.progress(t)
	var entry courseModels.LectureProgress
	require.NoError(t, f.db.Where("course_progress_id = ? AND lecture_id = ?", cp.ID, f.lectures[0].ID).First(&entry).Error)

	raced := false
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:concurrent_pass", func(tx *gorm.DB) {
		updates, ok := tx.Statement.Dest.(map[string]interface{})
		if raced || !ok || updates["is_completed"] == nil {
			return
		}
		raced = true
		tx.Session(&gorm.Session{NewDB: true}).Exec("UPDATE lecture_progresses SET is_completed = ? WHERE id = ?", true, entry.ID)
	}))

	_, err := f.submit(t, 0, correct)
	assert.True(t, raced)
	assert.True(t, errors.Is(err, services.ErrAlreadyCompleted))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &courseModels.QuizAttempt{}))
	assert.False(t, f.unlocked(t)[f.lectures[1].ID])
	after := f.progress(t)
	require.NotNil(t, after.CurrentLectureID)
	assert.Equal(t, f.lectures[0].ID, *after.CurrentLectureID)

	// the losing request left nothing behind, so a retry goes through
	res, err := f.submit(t, 0, correct)
	require.NoError(t, err)
	assert.True(t, res.IsPassed)
	assert.True(t, f.unlocked(t)[f.lectures[1].ID])
}

func TestUnknownLectureOrEnrollment(t *testing.T) {
	f := setup(t)

	_, err := f.tracker.SubmitLectureQuiz(context.Background(), f.userID, f.course.ID, 9999, correct)
	assert.True(t, errors.Is(err, services.ErrNotFound))

	_, err = f.tracker.SubmitLectureQuiz(context.Background(), 9999, f.course.ID, f.lectures[0].ID, correct)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestUnlockIsMonotonic(t *testing.T) {
	f := setup(t)

	steps := []struct {
		lecture int
		answers []int
	}{
		{0, []int{0, 0, 0}},
		{0, correct},
		{1, []int{1, 1, 1}},
		{0, correct},
		{1, correct},
		{2, correct},
	}

	prev := f.unlocked(t)
	for _, s := range steps {
		f.submit(t, s.lecture, s.answers)
		now := f.unlocked(t)
		for id := range prev {
			assert.True(t, now[id], "lecture %d was locked again", id)
		}
		prev = now
	}

	cp := f.progress(t)
	assert.Equal(t, 100, cp.OverallProgress)
	assert.Nil(t, cp.CurrentLectureID)
	assert.NotNil(t, cp.CompletedAt)
}

func TestFinalQuizRequiresCompletion(t *testing.T) {
	f := setup(t)
	testutil.CreateFinalQuiz(t, f.db, f.course.ID, 1, 1)

	_, err := f.tracker.SubmitFinalQuiz(context.Background(), f.userID, f.course.ID, []int{1, 1})
	assert.True(t, errors.Is(err, services.ErrNotEligible))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &courseModels.QuizAttempt{}))
}

func TestFinalQuizIssuesCertificate(t *testing.T) {
	f := setup(t)
	testutil.CreateFinalQuiz(t, f.db, f.course.ID, 1, 1)
	for i := range f.lectures {
		_, err := f.submit(t, i, correct)
		require.NoError(t, err)
	}

	res, err := f.tracker.SubmitFinalQuiz(context.Background(), f.userID, f.course.ID, []int{1, 0})
	require.NoError(t, err)
	assert.False(t, res.IsPassed)
	assert.Empty(t, res.CertificateID)

	res, err = f.tracker.SubmitFinalQuiz(context.Background(), f.userID, f.course.ID, []int{1, 1})
	require.NoError(t, err)
	assert.True(t, res.IsPassed)
	assert.NotEmpty(t, res.CertificateID)
	assert.Equal(t, int64(1), testutil.Count(t, f.db, &courseModels.Certificate{}))
}

func TestLearnerView(t *testing.T) {
	f := setup(t)
	testutil.CreateFinalQuiz(t, f.db, f.course.ID, 1)

	_, err := f.submit(t, 0, []int{0, 0, 0})
	require.NoError(t, err)

	view, err := f.tracker.LearnerView(context.Background(), f.userID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, f.course.Title, view.Course.Title)
	assert.Equal(t, 3, view.Progress.TotalLectures)
	require.Len(t, view.UnlockedLectures, 1)
	assert.Len(t, view.LockedLectures, 2)

	first := view.UnlockedLectures[0]
	assert.Equal(t, f.lectures[0].ID, first.ID)
	assert.Len(t, first.Questions, 3)
	assert.Equal(t, 1, first.AttemptSummary.Attempts)
	assert.Equal(t, 33, first.AttemptSummary.BestScore)

	require.NotNil(t, view.FinalQuiz)
	assert.Equal(t, 1, view.FinalQuiz.QuestionCount)
	assert.False(t, view.FinalQuiz.IsAvailable)
}

func TestAttemptsNewestFirst(t *testing.T) {
	f := setup(t)

	_, err := f.submit(t, 0, []int{0, 0, 0})
	require.NoError(t, err)
	_, err = f.submit(t, 0, correct)
	require.NoError(t, err)

	attempts, err := f.tracker.Attempts(context.Background(), f.userID, f.course.ID, f.lectures[0].ID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.True(t, attempts[0].IsPassed)
	assert.False(t, attempts[1].IsPassed)
}

func TestReconcileAfterNewLecture(t *testing.T) {
	f := setup(t)
	for i := range f.lectures {
		_, err := f.submit(t, i, correct)
		require.NoError(t, err)
	}

	extra := testutil.CreateLecture(t, f.db, f.course.ID, 4, correct...)
	require.NoError(t, progress.Reconcile(f.db, f.course.ID))

	cp := f.progress(t)
	require.NotNil(t, cp.CurrentLectureID)
	assert.Equal(t, extra.ID, *cp.CurrentLectureID)
	assert.Equal(t, 75, cp.OverallProgress)
	assert.True(t, f.unlocked(t)[extra.ID])
}
