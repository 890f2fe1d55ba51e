package payment

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"studysync/models"
	courseModels "studysync/models/course"
	"studysync/services"
	"studysync/services/notification"
	"studysync/services/progress"
)

// Options configures a payment Service.
type Options struct {
	KeyID                  string
	KeySecret              string
	Currency               string
	InstructorSharePercent int
	Templates              notification.Templates
}

// Service creates gateway orders and turns verified payments into enrollments.
type Service struct {
	db         *gorm.DB
	gateway    Gateway
	dispatcher services.Dispatcher
	opts       Options
	now        func() time.Time
}

func NewService(db *gorm.DB, gateway Gateway, dispatcher services.Dispatcher, opts Options) *Service {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	return &Service{db: db, gateway: gateway, dispatcher: dispatcher, opts: opts, now: time.Now}
}

// OrderResult is what the client needs to open the gateway checkout.
type OrderResult struct {
	OrderID     string          `json:"order_id"`
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency"`
	KeyID       string          `json:"key_id"`
	CourseID    uint            `json:"course_id"`
	CourseTitle string          `json:"course_title"`
	Price       decimal.Decimal `json:"price"`
}

// VerifyInput is the gateway callback payload plus the purchaser.
type VerifyInput struct {
	UserID    uint
	CourseID  uint
	OrderID   string
	PaymentID string
	Signature string
}

// MinorUnits converts a price to the smallest currency unit used by the gateway.
func MinorUnits(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}

// Split divides a sale between instructor and platform. The platform share
// absorbs rounding so the two always add up to amount.
func Split(amount decimal.Decimal, instructorPercent int) (instructor, platform decimal.Decimal) {
	instructor = amount.Mul(decimal.NewFromInt(int64(instructorPercent))).Div(decimal.NewFromInt(100)).Round(2)
	return instructor, amount.Sub(instructor)
}

func (s *Service) CreateOrder(ctx context.Context, userID, courseID uint) (*OrderResult, error) {
	db := s.db.WithContext(ctx)

	var course courseModels.Course
	if err := db.Where("id = ? AND status = ?", courseID, courseModels.StatusPublished).First(&course).Error; err != nil {
		return nil, services.Lookup(err, "course")
	}
	if course.InstructorID == userID {
		return nil, services.Invalid("instructors cannot purchase their own course")
	}
	if !course.Price.IsPositive() {
		return nil, services.Invalid("course has no price")
	}

	var enrolled int64
	if err := db.Model(&courseModels.Enrollment{}).Where("user_id = ? AND course_id = ?", userID, courseID).Count(&enrolled).Error; err != nil {
		return nil, errors.Wrap(err, "checking enrollment")
	}
	if enrolled > 0 {
		return nil, errors.Wrap(services.ErrAlreadyProcessed, "already enrolled in this course")
	}

	amount := MinorUnits(course.Price)
	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	order, err := s.gateway.CreateOrder(ctx, amount, s.opts.Currency, receipt)
	if err != nil {
		return nil, errors.Wrap(services.ErrTransactionFailed, err.Error())
	}

	return &OrderResult{
		OrderID:     order.ID,
		Amount:      amount,
		Currency:    s.opts.Currency,
		KeyID:       s.opts.KeyID,
		CourseID:    course.ID,
		CourseTitle: course.Title,
		Price:       course.Price,
	}, nil
}

// Verify checks a gateway callback and, if it is genuine and new, records the
// payment and enrolls the student in one transaction. Any failure leaves no
// trace: no payment, no enrollment, no counter changes.
func (s *Service) Verify(ctx context.Context, in VerifyInput) (*models.Payment, error) {
	in.OrderID = strings.TrimSpace(in.OrderID)
	in.PaymentID = strings.TrimSpace(in.PaymentID)
	in.Signature = strings.TrimSpace(in.Signature)
	if in.OrderID == "" || in.PaymentID == "" || in.Signature == "" || in.CourseID == 0 {
		return nil, services.Invalid("order id, payment id, signature and course id are required")
	}

	if !VerifySignature(s.opts.KeySecret, in.OrderID, in.PaymentID, in.Signature) {
		return nil, services.ErrInvalidSignature
	}

	db := s.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.Payment{}).Where("gateway_payment_id = ?", in.PaymentID).Count(&existing).Error; err != nil {
		return nil, errors.Wrap(err, "checking payment")
	}
	if existing > 0 {
		return nil, services.ErrAlreadyProcessed
	}
	if err := db.Model(&courseModels.Enrollment{}).Where("user_id = ? AND course_id = ?", in.UserID, in.CourseID).Count(&existing).Error; err != nil {
		return nil, errors.Wrap(err, "checking enrollment")
	}
	if existing > 0 {
		return nil, services.ErrAlreadyProcessed
	}

	var course courseModels.Course
	if err := db.Where("id = ? AND status = ?", in.CourseID, courseModels.StatusPublished).First(&course).Error; err != nil {
		return nil, services.Lookup(err, "course")
	}
	if course.InstructorID == in.UserID {
		return nil, services.Invalid("instructors cannot purchase their own course")
	}
	var student models.User
	if err := db.First(&student, in.UserID).Error; err != nil {
		return nil, services.Lookup(err, "user")
	}
	var instructor models.User
	if err := db.First(&instructor, course.InstructorID).Error; err != nil {
		return nil, services.Lookup(err, "instructor")
	}

	gp, err := s.gateway.FetchPayment(ctx, in.PaymentID)
	if err != nil {
		return nil, errors.Wrap(services.ErrTransactionFailed, err.Error())
	}
	if gp.OrderID != "" && gp.OrderID != in.OrderID {
		return nil, services.ErrInvalidSignature
	}
	if gp.Status == "failed" || gp.Status == "refunded" {
		return nil, errors.Wrapf(services.ErrTransactionFailed, "gateway reports payment %s", gp.Status)
	}
	if gp.Amount != MinorUnits(course.Price) {
		return nil, services.ErrAmountMismatch
	}

	now := s.now()
	instructorShare, platformShare := Split(course.Price, s.opts.InstructorSharePercent)
	payment := models.Payment{
		UserID:           in.UserID,
		CourseID:         course.ID,
		GatewayOrderID:   in.OrderID,
		GatewayPaymentID: in.PaymentID,
		GatewaySignature: in.Signature,
		Amount:           course.Price,
		Currency:         s.opts.Currency,
		PaymentMethod:    gp.Method,
		Status:           models.PaymentStatusSuccessful,
		InstructorShare:  instructorShare,
		PlatformShare:    platformShare,
		PaidAt:           now,
	}

	var notificationIDs []uint
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		enrollment := courseModels.Enrollment{
			UserID:     in.UserID,
			CourseID:   course.ID,
			PaymentID:  payment.ID,
			EnrolledAt: now,
		}
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}

		res := tx.Model(&courseModels.Course{}).Where("id = ?", course.ID).Updates(map[string]interface{}{
			"total_students": gorm.Expr("total_students + ?", 1),
			"total_revenue":  gorm.Expr("total_revenue + ?", course.Price),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.Wrap(services.ErrNotFound, "course")
		}

		if err := tx.Model(&models.User{}).Where("id = ?", course.InstructorID).Updates(map[string]interface{}{
			"total_earnings": gorm.Expr("total_earnings + ?", instructorShare),
			"total_sales":    gorm.Expr("total_sales + ?", 1),
		}).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("user_id = ? AND course_id = ?", in.UserID, course.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		if _, err := progress.Seed(tx, in.UserID, course.ID); err != nil {
			return err
		}

		id, err := notification.Enqueue(tx, notification.KindEnrollment, student.Email,
			s.opts.Templates.Enrollment(student.Name, course.Title, course.ID))
		if err != nil {
			return err
		}
		notificationIDs = append(notificationIDs, id)

		id, err = notification.Enqueue(tx, notification.KindSale, instructor.Email,
			s.opts.Templates.Sale(instructor.Name, course.Title, instructorShare.StringFixed(2)+" "+s.opts.Currency))
		if err != nil {
			return err
		}
		notificationIDs = append(notificationIDs, id)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, services.ErrAlreadyProcessed
		}
		if errors.Is(err, services.ErrNotFound) {
			return nil, err
		}
		log.Printf("[PAYMENT] Verification of %s for user %d course %d rolled back: %v", in.PaymentID, in.UserID, course.ID, err)
		return nil, errors.Wrap(services.ErrTransactionFailed, err.Error())
	}

	log.Printf("[PAYMENT] Payment %s verified, user %d enrolled in course %d", in.PaymentID, in.UserID, course.ID)
	s.dispatcher.Dispatch(notificationIDs...)
	return &payment, nil
}
