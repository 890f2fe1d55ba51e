package catalog

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"studysync/models"
	courseModels "studysync/models/course"
	"studysync/services"
)

type LectureOutline struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Order    int    `json:"order"`
	Duration int    `json:"duration"`
}

// Detail is the public view of a published course.
type Detail struct {
	ID                           uint             `json:"id"`
	Title                        string           `json:"title"`
	Description                  string           `json:"description"`
	Category                     string           `json:"category"`
	Level                        string           `json:"level"`
	Price                        decimal.Decimal  `json:"price"`
	ThumbnailURL                 string           `json:"thumbnail_url"`
	PreviewVideoURL              string           `json:"preview_video_url"`
	InstructorID                 uint             `json:"instructor_id"`
	InstructorName               string           `json:"instructor_name"`
	TotalStudents                int64            `json:"total_students"`
	TotalDuration                int              `json:"total_duration"`
	RequiredCompletionPercentage int              `json:"required_completion_percentage"`
	HasFinalQuiz                 bool             `json:"has_final_quiz"`
	Lectures                     []LectureOutline `json:"lectures"`
	IsEnrolled                   bool             `json:"is_enrolled"`
}

// ListPublished pages through published courses, newest first.
func (s *Service) ListPublished(ctx context.Context, page, limit int, category string) ([]courseModels.Course, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	q := s.db.WithContext(ctx).Model(&courseModels.Course{}).Where("status = ?", courseModels.StatusPublished)
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "counting courses")
	}
	var courses []courseModels.Course
	if err := q.Order("created_at desc, id desc").Offset((page - 1) * limit).Limit(limit).Find(&courses).Error; err != nil {
		return nil, 0, errors.Wrap(err, "listing courses")
	}
	return courses, total, nil
}

// Detail returns a published course outline. viewerID may be zero for anonymous callers.
func (s *Service) Detail(ctx context.Context, courseID, viewerID uint) (*Detail, error) {
	db := s.db.WithContext(ctx)

	var course courseModels.Course
	if err := db.Preload("Lectures", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc, id asc")
	}).Where("id = ? AND status = ?", courseID, courseModels.StatusPublished).First(&course).Error; err != nil {
		return nil, services.Lookup(err, "course")
	}

	var instructor models.User
	if err := db.Select("id", "name").First(&instructor, course.InstructorID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "loading instructor")
	}
	var quizzes int64
	if err := db.Model(&courseModels.FinalQuiz{}).Where("course_id = ?", courseID).Count(&quizzes).Error; err != nil {
		return nil, errors.Wrap(err, "loading final quiz")
	}

	d := &Detail{
		ID:                           course.ID,
		Title:                        course.Title,
		Description:                  course.Description,
		Category:                     course.Category,
		Level:                        course.Level,
		Price:                        course.Price,
		ThumbnailURL:                 course.ThumbnailURL,
		PreviewVideoURL:              course.PreviewVideoURL,
		InstructorID:                 course.InstructorID,
		InstructorName:               instructor.Name,
		TotalStudents:                course.TotalStudents,
		RequiredCompletionPercentage: course.RequiredCompletionPercentage,
		HasFinalQuiz:                 quizzes > 0,
		Lectures:                     make([]LectureOutline, len(course.Lectures)),
	}
	for i, l := range course.Lectures {
		d.Lectures[i] = LectureOutline{ID: l.ID, Title: l.Title, Order: l.Order, Duration: l.Duration}
		d.TotalDuration += l.Duration
	}

	if viewerID != 0 {
		var n int64
		if err := db.Model(&courseModels.Enrollment{}).Where("user_id = ? AND course_id = ?", viewerID, courseID).Count(&n).Error; err != nil {
			return nil, errors.Wrap(err, "checking enrollment")
		}
		d.IsEnrolled = n > 0
	}
	return d, nil
}

// InstructorCourses lists every course owned by the instructor, in any status.
func (s *Service) InstructorCourses(ctx context.Context, instructorID uint) ([]courseModels.Course, error) {
	var courses []courseModels.Course
	if err := s.db.WithContext(ctx).Preload("Lectures", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc, id asc")
	}).Preload("FinalQuiz").Where("instructor_id = ?", instructorID).Order("id desc").Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "listing instructor courses")
	}
	return courses, nil
}

// EnrolledCourses lists the courses a student has purchased.
func (s *Service) EnrolledCourses(ctx context.Context, userID uint) ([]courseModels.Course, error) {
	var courses []courseModels.Course
	if err := s.db.WithContext(ctx).
		Joins("JOIN enrollments ON enrollments.course_id = courses.id AND enrollments.deleted_at IS NULL").
		Where("enrollments.user_id = ?", userID).
		Order("enrollments.enrolled_at desc").
		Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "listing enrolled courses")
	}
	return courses, nil
}
