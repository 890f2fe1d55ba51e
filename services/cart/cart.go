package cart

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"studysync/models"
	courseModels "studysync/models/course"
	"studysync/services"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type Item struct {
	CourseID     uint            `json:"course_id"`
	Title        string          `json:"title"`
	ThumbnailURL string          `json:"thumbnail_url"`
	Price        decimal.Decimal `json:"price"`
}

type Cart struct {
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// Add puts a published, not yet purchased course in the student's cart. Adding twice is a no-op.
func (s *Service) Add(ctx context.Context, userID, courseID uint) (*Cart, error) {
	db := s.db.WithContext(ctx)

	var course courseModels.Course
	if err := db.Where("id = ? AND status = ?", courseID, courseModels.StatusPublished).First(&course).Error; err != nil {
		return nil, services.Lookup(err, "course")
	}
	if course.InstructorID == userID {
		return nil, services.Invalid("instructors cannot purchase their own course")
	}
	var enrolled int64
	if err := db.Model(&courseModels.Enrollment{}).Where("user_id = ? AND course_id = ?", userID, courseID).Count(&enrolled).Error; err != nil {
		return nil, errors.Wrap(err, "checking enrollment")
	}
	if enrolled > 0 {
		return nil, errors.Wrap(services.ErrConflict, "course already purchased")
	}

	item := models.CartItem{UserID: userID, CourseID: courseID}
	if err := db.Where(item).FirstOrCreate(&item).Error; err != nil {
		return nil, errors.Wrap(err, "adding to cart")
	}
	return s.List(ctx, userID)
}

func (s *Service) Remove(ctx context.Context, userID, courseID uint) (*Cart, error) {
	if err := s.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&models.CartItem{}).Error; err != nil {
		return nil, errors.Wrap(err, "removing from cart")
	}
	return s.List(ctx, userID)
}

func (s *Service) List(ctx context.Context, userID uint) (*Cart, error) {
	var courses []courseModels.Course
	if err := s.db.WithContext(ctx).
		Joins("JOIN cart_items ON cart_items.course_id = courses.id AND cart_items.deleted_at IS NULL").
		Where("cart_items.user_id = ?", userID).
		Order("cart_items.id asc").
		Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "loading cart")
	}

	c := &Cart{Items: make([]Item, len(courses)), Total: decimal.Zero}
	for i, course := range courses {
		c.Items[i] = Item{CourseID: course.ID, Title: course.Title, ThumbnailURL: course.ThumbnailURL, Price: course.Price}
		c.Total = c.Total.Add(course.Price)
	}
	return c, nil
}
