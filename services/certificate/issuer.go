package certificate

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"studysync/models"
	courseModels "studysync/models/course"
	"studysync/services"
	"studysync/services/notification"
)

// IDPrefix starts every certificate id.
const IDPrefix = "SS-"

// Issuer issues, revokes and verifies course completion certificates.
type Issuer struct {
	db         *gorm.DB
	dispatcher services.Dispatcher
	templates  notification.Templates
	now        func() time.Time
}

func NewIssuer(db *gorm.DB, dispatcher services.Dispatcher, templates notification.Templates) *Issuer {
	return &Issuer{db: db, dispatcher: dispatcher, templates: templates, now: time.Now}
}

// NewCertificateID returns a fresh "SS-" prefixed identifier.
func NewCertificateID() string {
	return IDPrefix + strings.ToUpper(uuid.NewString())
}

// Issue returns the student's certificate for the course, creating it on the
// first eligible call. A repeat call returns the existing certificate.
func (i *Issuer) Issue(ctx context.Context, userID, courseID uint) (*courseModels.Certificate, error) {
	var cert courseModels.Certificate
	var notificationID uint

	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&cert).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, "loading certificate")
		}

		var cp courseModels.CourseProgress
		if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&cp).Error; err != nil {
			return services.Lookup(err, "course progress")
		}
		var course courseModels.Course
		if err := tx.First(&course, courseID).Error; err != nil {
			return services.Lookup(err, "course")
		}
		if cp.OverallProgress < course.RequiredCompletionPercentage {
			return errors.Wrapf(services.ErrNotEligible, "course progress %d%% is below the required %d%%",
				cp.OverallProgress, course.RequiredCompletionPercentage)
		}

		var quiz courseModels.FinalQuiz
		if err := tx.Where("course_id = ?", courseID).First(&quiz).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrap(services.ErrNotEligible, "course has no final quiz")
			}
			return errors.Wrap(err, "loading final quiz")
		}
		var best courseModels.QuizAttempt
		if err := tx.Where("user_id = ? AND final_quiz_id = ? AND is_passed = ?", userID, quiz.ID, true).
			Order("score desc, created_at asc").
			First(&best).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrap(services.ErrNotEligible, "final quiz not passed")
			}
			return errors.Wrap(err, "loading final quiz attempts")
		}

		var learner, instructor models.User
		if err := tx.First(&learner, userID).Error; err != nil {
			return services.Lookup(err, "user")
		}
		if err := tx.First(&instructor, course.InstructorID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, "loading instructor")
		}

		cert = courseModels.Certificate{
			CertificateID:  NewCertificateID(),
			UserID:         userID,
			CourseID:       courseID,
			LearnerName:    learner.Name,
			CourseName:     course.Title,
			InstructorName: instructor.Name,
			FinalScore:     best.Score,
			CompletionDate: best.CreatedAt,
			IssuedAt:       i.now(),
			Status:         courseModels.CertificateIssued,
		}
		if err := tx.Create(&cert).Error; err != nil {
			return err
		}

		notificationID, err = notification.Enqueue(tx, notification.KindCertificate, learner.Email,
			i.templates.Certificate(learner.Name, course.Title, cert.CertificateID))
		return err
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost a race with a concurrent issue for the same pair
		if lerr := i.db.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&cert).Error; lerr != nil {
			return nil, errors.Wrap(lerr, "reloading certificate")
		}
		return &cert, nil
	}
	if err != nil {
		return nil, err
	}

	if notificationID != 0 {
		log.Printf("[CERTIFICATE] Issued %s to user %d for course %d", cert.CertificateID, userID, courseID)
		i.dispatcher.Dispatch(notificationID)
	}
	return &cert, nil
}

// Get loads a certificate by its public id.
func (i *Issuer) Get(ctx context.Context, certificateID string) (*courseModels.Certificate, error) {
	var cert courseModels.Certificate
	if err := i.db.WithContext(ctx).Where("certificate_id = ?", certificateID).First(&cert).Error; err != nil {
		return nil, services.Lookup(err, "certificate")
	}
	return &cert, nil
}

// Verification is the public answer to "is this certificate genuine".
type Verification struct {
	Certificate *courseModels.Certificate `json:"certificate"`
	IsValid     bool                      `json:"is_valid"`
}

func (i *Issuer) Verify(ctx context.Context, certificateID string) (*Verification, error) {
	cert, err := i.Get(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	return &Verification{Certificate: cert, IsValid: cert.Status == courseModels.CertificateIssued}, nil
}

// Revoke marks a certificate revoked. It stays retrievable by id.
func (i *Issuer) Revoke(ctx context.Context, certificateID, reason string) (*courseModels.Certificate, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, services.Invalid("revocation reason is required")
	}
	cert, err := i.Get(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	if cert.Status == courseModels.CertificateRevoked {
		return cert, nil
	}

	now := i.now()
	cert.Status = courseModels.CertificateRevoked
	cert.RevokedAt = &now
	cert.RevokeReason = reason
	if err := i.db.WithContext(ctx).Model(cert).Select("status", "revoked_at", "revoke_reason").Updates(cert).Error; err != nil {
		return nil, errors.Wrap(err, "revoking certificate")
	}
	log.Printf("[CERTIFICATE] Revoked %s: %s", certificateID, reason)
	return cert, nil
}

// ListForUser returns the student's certificates, newest first.
func (i *Issuer) ListForUser(ctx context.Context, userID uint) ([]courseModels.Certificate, error) {
	var certs []courseModels.Certificate
	if err := i.db.WithContext(ctx).Where("user_id = ?", userID).Order("issued_at desc, id desc").Find(&certs).Error; err != nil {
		return nil, errors.Wrap(err, "loading certificates")
	}
	return certs, nil
}
