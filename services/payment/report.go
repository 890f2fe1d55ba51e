package payment

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"studysync/models"
	courseModels "studysync/models/course"
	"studysync/services"
)

// PaymentView is a payment with the course title attached.
type PaymentView struct {
	ID               uint            `json:"id"`
	CourseID         uint            `json:"course_id"`
	CourseTitle      string          `json:"course_title"`
	GatewayOrderID   string          `json:"gateway_order_id"`
	GatewayPaymentID string          `json:"gateway_payment_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	PaymentMethod    string          `json:"payment_method"`
	Status           string          `json:"status"`
	PaidAt           time.Time       `json:"paid_at"`
}

type CourseEarning struct {
	CourseID      uint            `json:"course_id"`
	Title         string          `json:"title"`
	Status        string          `json:"status"`
	TotalStudents int64           `json:"total_students"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

type Earnings struct {
	TotalEarnings decimal.Decimal `json:"total_earnings"`
	TotalSales    int64           `json:"total_sales"`
	Courses       []CourseEarning `json:"courses"`
}

type Revenue struct {
	Payments          int64           `json:"payments"`
	GrossRevenue      decimal.Decimal `json:"gross_revenue"`
	InstructorPayouts decimal.Decimal `json:"instructor_payouts"`
	PlatformRevenue   decimal.Decimal `json:"platform_revenue"`
	Courses           []CourseEarning `json:"courses"`
}

// History lists a student's payments, newest first.
func (s *Service) History(ctx context.Context, userID uint) ([]PaymentView, error) {
	var views []PaymentView
	err := s.db.WithContext(ctx).
		Table("payments").
		Select("payments.id, payments.course_id, courses.title AS course_title, payments.gateway_order_id, payments.gateway_payment_id, payments.amount, payments.currency, payments.payment_method, payments.status, payments.paid_at").
		Joins("LEFT JOIN courses ON courses.id = payments.course_id").
		Where("payments.user_id = ? AND payments.deleted_at IS NULL", userID).
		Order("payments.paid_at desc, payments.id desc").
		Scan(&views).Error
	if err != nil {
		return nil, errors.Wrap(err, "loading payment history")
	}
	return views, nil
}

// InstructorEarnings reports the running totals kept on the instructor and their courses.
func (s *Service) InstructorEarnings(ctx context.Context, instructorID uint) (*Earnings, error) {
	db := s.db.WithContext(ctx)

	var instructor models.User
	if err := db.First(&instructor, instructorID).Error; err != nil {
		return nil, services.Lookup(err, "instructor")
	}

	var courses []courseModels.Course
	if err := db.Where("instructor_id = ?", instructorID).Order("id asc").Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "loading instructor courses")
	}

	out := &Earnings{
		TotalEarnings: instructor.TotalEarnings,
		TotalSales:    instructor.TotalSales,
		Courses:       make([]CourseEarning, 0, len(courses)),
	}
	for _, c := range courses {
		out.Courses = append(out.Courses, CourseEarning{
			CourseID:      c.ID,
			Title:         c.Title,
			Status:        c.Status,
			TotalStudents: c.TotalStudents,
			TotalRevenue:  c.TotalRevenue,
		})
	}
	return out, nil
}

// PlatformRevenue sums every completed payment.
func (s *Service) PlatformRevenue(ctx context.Context) (*Revenue, error) {
	var totals struct {
		Payments   int64
		Gross      decimal.Decimal
		Instructor decimal.Decimal
		Platform   decimal.Decimal
	}
	err := s.db.WithContext(ctx).Model(&models.Payment{}).
		Select("COUNT(*) AS payments, COALESCE(SUM(amount), 0) AS gross, COALESCE(SUM(instructor_share), 0) AS instructor, COALESCE(SUM(platform_share), 0) AS platform").
		Where("status = ?", models.PaymentStatusSuccessful).
		Scan(&totals).Error
	if err != nil {
		return nil, errors.Wrap(err, "summing revenue")
	}

	var courses []courseModels.Course
	if err := s.db.WithContext(ctx).Where("total_students > 0").Order("total_revenue desc, id asc").Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "loading course revenue")
	}

	out := &Revenue{
		Payments:          totals.Payments,
		GrossRevenue:      totals.Gross,
		InstructorPayouts: totals.Instructor,
		PlatformRevenue:   totals.Platform,
		Courses:           make([]CourseEarning, 0, len(courses)),
	}
	for _, c := range courses {
		out.Courses = append(out.Courses, CourseEarning{
			CourseID:      c.ID,
			Title:         c.Title,
			Status:        c.Status,
			TotalStudents: c.TotalStudents,
			TotalRevenue:  c.TotalRevenue,
		})
	}
	return out, nil
}
