package review

import (
	"context"
	"log"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"studysync/models"
	courseModels "studysync/models/course"
	"studysync/services"
	"studysync/services/notification"
)

// Service moves courses through draft -> pending review -> published or rejected.
type Service struct {
	db         *gorm.DB
	dispatcher services.Dispatcher
	templates  notification.Templates
}

func NewService(db *gorm.DB, dispatcher services.Dispatcher, templates notification.Templates) *Service {
	return &Service{db: db, dispatcher: dispatcher, templates: templates}
}

// Submit sends a draft or rejected course for review.
func (s *Service) Submit(ctx context.Context, actor services.Actor, courseID uint, policy AssignmentPolicy) (*courseModels.Course, error) {
	var course courseModels.Course
	var notificationID uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := services.ForUpdate(tx).First(&course, courseID).Error; err != nil {
			return services.Lookup(err, "course")
		}
		if course.InstructorID != actor.UserID {
			return errors.Wrap(services.ErrUnauthorized, "not the course instructor")
		}
		if course.Status != courseModels.StatusDraft && course.Status != courseModels.StatusRejected {
			return errors.Wrapf(services.ErrConflict, "course is %s", strings.ToLower(course.Status))
		}
		var lectures int64
		if err := tx.Model(&courseModels.Lecture{}).Where("course_id = ?", courseID).Count(&lectures).Error; err != nil {
			return err
		}
		if lectures == 0 {
			return services.Invalid("add at least one lecture before submitting")
		}

		admin, err := policy.Assign(ctx, tx, &course)
		if err != nil {
			return err
		}

		course.Status = courseModels.StatusPending
		course.ReviewerID = &admin.ID
		course.ReviewNote = ""
		if err := tx.Model(&course).Select("status", "reviewer_id", "review_note").Updates(&course).Error; err != nil {
			return err
		}

		notificationID, err = notification.Enqueue(tx, notification.KindReview, admin.Email,
			s.templates.ReviewAssigned(admin.Name, course.Title))
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[REVIEW] Course %d submitted, assigned to admin %d", course.ID, *course.ReviewerID)
	s.dispatcher.Dispatch(notificationID)
	return &course, nil
}

// Pending lists the courses waiting on the admin.
func (s *Service) Pending(ctx context.Context, adminID uint) ([]courseModels.Course, error) {
	var courses []courseModels.Course
	if err := s.db.WithContext(ctx).
		Where("status = ? AND reviewer_id = ?", courseModels.StatusPending, adminID).
		Order("updated_at asc, id asc").
		Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "listing pending reviews")
	}
	return courses, nil
}

func (s *Service) Approve(ctx context.Context, actor services.Actor, courseID uint) (*courseModels.Course, error) {
	return s.decide(ctx, actor, courseID, true, "")
}

func (s *Service) Reject(ctx context.Context, actor services.Actor, courseID uint, note string) (*courseModels.Course, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, services.Invalid("a rejection note is required")
	}
	return s.decide(ctx, actor, courseID, false, note)
}

func (s *Service) decide(ctx context.Context, actor services.Actor, courseID uint, approve bool, note string) (*courseModels.Course, error) {
	var course courseModels.Course
	var notificationID uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := services.ForUpdate(tx).First(&course, courseID).Error; err != nil {
			return services.Lookup(err, "course")
		}
		if course.Status != courseModels.StatusPending {
			return errors.Wrapf(services.ErrConflict, "course is %s", strings.ToLower(course.Status))
		}
		if !actor.Is(models.RoleAdmin) || course.ReviewerID == nil || *course.ReviewerID != actor.UserID {
			return errors.Wrap(services.ErrUnauthorized, "course is assigned to another reviewer")
		}

		course.Status = courseModels.StatusRejected
		if approve {
			course.Status = courseModels.StatusPublished
		}
		course.ReviewNote = note
		if err := tx.Model(&course).Select("status", "review_note").Updates(&course).Error; err != nil {
			return err
		}

		var instructor models.User
		if err := tx.First(&instructor, course.InstructorID).Error; err != nil {
			return services.Lookup(err, "instructor")
		}
		var err error
		notificationID, err = notification.Enqueue(tx, notification.KindReview, instructor.Email,
			s.templates.ReviewDecision(instructor.Name, course.Title, approve, note))
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[REVIEW] Course %d %s by admin %d", course.ID, strings.ToLower(course.Status), actor.UserID)
	s.dispatcher.Dispatch(notificationID)
	return &course, nil
}
