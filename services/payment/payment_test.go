package payment_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"studysync/models"
	courseModels "studysync/models/course"
	"studysync/services"
	"studysync/services/notification"
	"studysync/services/payment"
	"studysync/testutil"
)

const secret = "test_secret"

type fakeGateway struct {
	amount  int64
	status  string
	fetches int
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (payment.Order, error) {
	return payment.Order{ID: "order_1", Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

func (g *fakeGateway) FetchPayment(_ context.Context, paymentID string) (payment.GatewayPayment, error) {
	g.fetches++
	return payment.GatewayPayment{ID: paymentID, OrderID: "order_1", Amount: g.amount, Currency: "INR", Method: "upi", Status: g.status}, nil
}

type fixture struct {
	db         *gorm.DB
	svc        *payment.Service
	gateway    *fakeGateway
	student    *models.User
	instructor *models.User
	course     *courseModels.Course
	lectures   []*courseModels.Lecture
}

func setup(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	f := &fixture{db: db, gateway: &fakeGateway{amount: 49900, status: "captured"}}
	f.student = testutil.Student(t, db)
	f.instructor = testutil.Instructor(t, db)
	f.course = testutil.CreateCourse(t, db, f.instructor.ID)
	f.lectures = []*courseModels.Lecture{
		testutil.CreateLecture(t, db, f.course.ID, 1, 0),
		testutil.CreateLecture(t, db, f.course.ID, 2, 1),
	}
	f.svc = payment.NewService(db, f.gateway, notification.NewSyncDispatcher(db, notification.LogNotifier{}), payment.Options{
		KeyID:                  "key_test",
		KeySecret:              secret,
		Currency:               "INR",
		InstructorSharePercent: 70,
		Templates:              notification.Templates{AppName: "Study Sync", BaseURL: "http://localhost"},
	})
	return f
}

func (f *fixture) input(paymentID string) payment.VerifyInput {
	return payment.VerifyInput{
		UserID:    f.student.ID,
		CourseID:  f.course.ID,
		OrderID:   "order_1",
		PaymentID: paymentID,
		Signature: payment.Signature(secret, "order_1", paymentID),
	}
}

func TestSplit(t *testing.T) {
	instructor, platform := payment.Split(decimal.RequireFromString("499.00"), 70)
	assert.True(t, instructor.Equal(decimal.RequireFromString("349.30")), instructor.String())
	assert.True(t, platform.Equal(decimal.RequireFromString("149.70")), platform.String())

	instructor, platform = payment.Split(decimal.RequireFromString("0.99"), 70)
	assert.True(t, instructor.Add(platform).Equal(decimal.RequireFromString("0.99")))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(49900), payment.MinorUnits(decimal.RequireFromString("499")))
	assert.Equal(t, int64(1999), payment.MinorUnits(decimal.RequireFromString("19.99")))
}

func TestVerifySignature(t *testing.T) {
	sig := payment.Signature(secret, "order_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.True(t, payment.VerifySignature(secret, "order_1", "pay_1", sig))
	assert.False(t, payment.VerifySignature(secret, "order_1", "pay_2", sig))
	assert.False(t, payment.VerifySignature("other", "order_1", "pay_1", sig))
}

func TestVerifyEnrollsStudent(t *testing.T) {
	f := setup(t)

	p, err := f.svc.Verify(context.Background(), f.input("pay_1"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccessful, p.Status)
	assert.Equal(t, "SUCCESSFUL", p.Status)
	assert.Equal(t, "upi", p.PaymentMethod)
	assert.True(t, p.InstructorShare.Equal(decimal.RequireFromString("349.30")))

	assert.Equal(t, int64(1), testutil.Count(t, f.db, &courseModels.Enrollment{}))

	var cp courseModels.CourseProgress
	require.NoError(t, f.db.Preload("Lectures").Where("user_id = ? AND course_id = ?", f.student.ID, f.course.ID).First(&cp).Error)
	require.NotNil(t, cp.CurrentLectureID)
	assert.Equal(t, f.lectures[0].ID, *cp.CurrentLectureID)
	require.Len(t, cp.Lectures, 2)
	for _, e := range cp.Lectures {
		assert.Equal(t, e.LectureID == f.lectures[0].ID, e.IsUnlocked)
		assert.False(t, e.IsCompleted)
	}

	var course courseModels.Course
	require.NoError(t, f.db.First(&course, f.course.ID).Error)
	assert.Equal(t, int64(1), course.TotalStudents)
	assert.True(t, course.TotalRevenue.Equal(decimal.RequireFromString("499")))

	var instructor models.User
	require.NoError(t, f.db.First(&instructor, f.instructor.ID).Error)
	assert.Equal(t, int64(1), instructor.TotalSales)
	assert.True(t, instructor.TotalEarnings.Equal(decimal.RequireFromString("349.30")))

	var sent int64
	require.NoError(t, f.db.Model(&models.Notification{}).Where("status = ?", models.NotificationSent).Count(&sent).Error)
	assert.Equal(t, int64(2), sent)
}

func TestVerifyIsIdempotent(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Verify(context.Background(), f.input("pay_1"))
	require.NoError(t, err)

	_, err = f.svc.Verify(context.Background(), f.input("pay_1"))
	assert.True(t, errors.Is(err, services.ErrAlreadyProcessed))

	// a different payment for a course the student already owns
	_, err = f.svc.Verify(context.Background(), f.input("pay_2"))
	assert.True(t, errors.Is(err, services.ErrAlreadyProcessed))

	assert.Equal(t, int64(1), testutil.Count(t, f.db, &models.Payment{}))
	assert.Equal(t, int64(1), testutil.Count(t, f.db, &courseModels.CourseProgress{}))
	assert.Equal(t, 1, f.gateway.fetches)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	f := setup(t)

	in := f.input("pay_1")
	in.Signature = payment.Signature("wrong", "order_1", "pay_1")
	_, err := f.svc.Verify(context.Background(), in)
	assert.True(t, errors.Is(err, services.ErrInvalidSignature))

	assert.Equal(t, 0, f.gateway.fetches)
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &models.Payment{}))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &courseModels.Enrollment{}))
}

func TestVerifyRejectsAmountMismatch(t *testing.T) {
	f := setup(t)
	f.gateway.amount = 100

	_, err := f.svc.Verify(context.Background(), f.input("pay_1"))
	assert.True(t, errors.Is(err, services.ErrAmountMismatch))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &models.Payment{}))
}

func TestVerifyRejectsFailedGatewayPayment(t *testing.T) {
	f := setup(t)
	f.gateway.status = "failed"

	_, err := f.svc.Verify(context.Background(), f.input("pay_1"))
	assert.True(t, errors.Is(err, services.ErrTransactionFailed))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &models.Payment{}))
}

func TestVerifyRejectsUnpublishedAndOwnCourse(t *testing.T) {
	f := setup(t)

	own := f.input("pay_own")
	own.UserID = f.instructor.ID
	_, err := f.svc.Verify(context.Background(), own)
	assert.True(t, errors.Is(err, services.ErrValidation))

	require.NoError(t, f.db.Model(f.course).Update("status", courseModels.StatusDraft).Error)
	_, err = f.svc.Verify(context.Background(), f.input("pay_draft"))
	assert.True(t, errors.Is(err, services.ErrNotFound))

	assert.Equal(t, 0, f.gateway.fetches)
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &models.Payment{}))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &courseModels.Enrollment{}))
}

func TestVerifyRollsBackOnCounterFailure(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:fail_course_counters", func(tx *gorm.DB) {
		if tx.Statement.Table == "courses" {
			tx.AddError(errors.New("counter update failed"))
		}
	}))

	_, err := f.svc.Verify(context.Background(), f.input("pay_1"))
	assert.True(t, errors.Is(err, services.ErrTransactionFailed))

	assert.Equal(t, int64(0), testutil.Count(t, f.db, &models.Payment{}))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &courseModels.Enrollment{}))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &courseModels.CourseProgress{}))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &models.Notification{}))
}

func TestCreateOrder(t *testing.T) {
	f := setup(t)

	order, err := f.svc.CreateOrder(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, "order_1", order.OrderID)
	assert.Equal(t, int64(49900), order.Amount)
	assert.Equal(t, "key_test", order.KeyID)

	_, err = f.svc.Verify(context.Background(), f.input("pay_1"))
	require.NoError(t, err)

	_, err = f.svc.CreateOrder(context.Background(), f.student.ID, f.course.ID)
	assert.True(t, errors.Is(err, services.ErrAlreadyProcessed))
}

func TestCreateOrderRequiresPublishedCourse(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.db.Model(f.course).Update("status", courseModels.StatusDraft).Error)

	_, err := f.svc.CreateOrder(context.Background(), f.student.ID, f.course.ID)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestReports(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Verify(context.Background(), f.input("pay_1"))
	require.NoError(t, err)

	history, err := f.svc.History(context.Background(), f.student.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	revenue, err := f.svc.PlatformRevenue(context.Background())
	require.NoError(t, err)
	assert.True(t, revenue.GrossRevenue.Equal(decimal.RequireFromString("499")), revenue.GrossRevenue.String())
	assert.Equal(t, int64(1), revenue.Payments)
}
