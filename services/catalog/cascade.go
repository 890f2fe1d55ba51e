package catalog

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"studysync/models"
	courseModels "studysync/models/course"
	"studysync/services"
	"studysync/services/media"
	"studysync/services/progress"
)

// DeleteReport counts what a cascading delete removed.
type DeleteReport struct {
	Lectures       int64 `json:"lectures"`
	MCQs           int64 `json:"mcqs"`
	Enrollments    int64 `json:"enrollments"`
	Comments       int64 `json:"comments"`
	AssetsQueued   int   `json:"assets_queued"`
	AssetsReleased int   `json:"assets_released"`
}

// DeleteCourse removes a course and everything it owns in one transaction.
// Media assets are queued inside the transaction and released after commit;
// releases that fail stay queued for the retry job. Payments and issued
// certificates are kept.
func (s *Service) DeleteCourse(ctx context.Context, actor services.Actor, courseID uint) (*DeleteReport, error) {
	report := &DeleteReport{}
	var releaseIDs []uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course courseModels.Course
		if err := services.ForUpdate(tx).First(&course, courseID).Error; err != nil {
			return services.Lookup(err, "course")
		}
		if !canEdit(actor, &course) {
			return errors.Wrap(services.ErrUnauthorized, "not the course instructor")
		}

		var lectures []courseModels.Lecture
		if err := tx.Where("course_id = ?", courseID).Find(&lectures).Error; err != nil {
			return err
		}
		lectureIDs := make([]uint, len(lectures))
		assetIDs := []string{course.ThumbnailAssetID, course.PreviewVideoAssetID}
		for i, l := range lectures {
			lectureIDs[i] = l.ID
			assetIDs = append(assetIDs, l.VideoAssetID)
		}

		if len(lectureIDs) > 0 {
			res := tx.Unscoped().Where("lecture_id IN ?", lectureIDs).Delete(&courseModels.MCQ{})
			if res.Error != nil {
				return res.Error
			}
			report.MCQs += res.RowsAffected
		}

		var quizIDs []uint
		if err := tx.Model(&courseModels.FinalQuiz{}).Where("course_id = ?", courseID).Pluck("id", &quizIDs).Error; err != nil {
			return err
		}
		if len(quizIDs) > 0 {
			res := tx.Unscoped().Where("final_quiz_id IN ?", quizIDs).Delete(&courseModels.MCQ{})
			if res.Error != nil {
				return res.Error
			}
			report.MCQs += res.RowsAffected
			if err := tx.Unscoped().Where("id IN ?", quizIDs).Delete(&courseModels.FinalQuiz{}).Error; err != nil {
				return err
			}
		}

		var progressIDs []uint
		if err := tx.Model(&courseModels.CourseProgress{}).Where("course_id = ?", courseID).Pluck("id", &progressIDs).Error; err != nil {
			return err
		}
		if len(progressIDs) > 0 {
			if err := tx.Unscoped().Where("course_progress_id IN ?", progressIDs).Delete(&courseModels.LectureProgress{}).Error; err != nil {
				return err
			}
		}

		for _, m := range []interface{}{&courseModels.CourseProgress{}, &courseModels.QuizAttempt{}, &models.CartItem{}} {
			if err := tx.Unscoped().Where("course_id = ?", courseID).Delete(m).Error; err != nil {
				return err
			}
		}

		res := tx.Unscoped().Where("course_id = ?", courseID).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		report.Comments = res.RowsAffected

		res = tx.Unscoped().Where("course_id = ?", courseID).Delete(&courseModels.Enrollment{})
		if res.Error != nil {
			return res.Error
		}
		report.Enrollments = res.RowsAffected

		res = tx.Unscoped().Where("course_id = ?", courseID).Delete(&courseModels.Lecture{})
		if res.Error != nil {
			return res.Error
		}
		report.Lectures = res.RowsAffected

		if err := tx.Unscoped().Delete(&course).Error; err != nil {
			return err
		}

		var err error
		releaseIDs, err = media.Record(tx, "course deleted", assetIDs...)
		return err
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrUnauthorized) {
			return nil, err
		}
		return nil, errors.Wrap(err, "deleting course")
	}

	report.AssetsQueued = len(releaseIDs)
	report.AssetsReleased = s.releaser.Release(ctx, releaseIDs...)
	log.Printf("[CATALOG] Course %d deleted by user %d: %d lectures, %d mcqs, %d enrollments, %d/%d assets released",
		courseID, actor.UserID, report.Lectures, report.MCQs, report.Enrollments, report.AssetsReleased, report.AssetsQueued)
	return report, nil
}

// DeleteLecture removes a lecture with its questions, progress entries,
// attempts and comments, then repairs the progress of enrolled students.
func (s *Service) DeleteLecture(ctx context.Context, actor services.Actor, lectureID uint) (*DeleteReport, error) {
	report := &DeleteReport{Lectures: 1}
	var releaseIDs []uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lecture, err := s.editableLecture(tx, actor, lectureID)
		if err != nil {
			return err
		}

		res := tx.Unscoped().Where("lecture_id = ?", lectureID).Delete(&courseModels.MCQ{})
		if res.Error != nil {
			return res.Error
		}
		report.MCQs = res.RowsAffected

		for _, m := range []interface{}{&courseModels.LectureProgress{}, &courseModels.QuizAttempt{}} {
			if err := tx.Unscoped().Where("lecture_id = ?", lectureID).Delete(m).Error; err != nil {
				return err
			}
		}
		res = tx.Unscoped().Where("lecture_id = ?", lectureID).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		report.Comments = res.RowsAffected

		if err := tx.Unscoped().Delete(lecture).Error; err != nil {
			return err
		}
		if err := progress.Reconcile(tx, lecture.CourseID); err != nil {
			return err
		}

		releaseIDs, err = media.Record(tx, "lecture deleted", lecture.VideoAssetID)
		return err
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrUnauthorized) {
			return nil, err
		}
		return nil, errors.Wrap(err, "deleting lecture")
	}

	report.AssetsQueued = len(releaseIDs)
	report.AssetsReleased = s.releaser.Release(ctx, releaseIDs...)
	return report, nil
}
