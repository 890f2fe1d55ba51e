package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentStatusSuccessful = "SUCCESSFUL"
)

// Payment is the one durable record of a verified gateway payment.
type Payment struct {
	gorm.Model
	UserID           uint            `json:"user_id" gorm:"index;not null"`
	CourseID         uint            `json:"course_id" gorm:"index;not null"`
	GatewayOrderID   string          `json:"gateway_order_id" gorm:"index;not null"`
	GatewayPaymentID string          `json:"gateway_payment_id" gorm:"uniqueIndex;not null"`
	GatewaySignature string          `json:"-" gorm:"not null"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Currency         string          `json:"currency" gorm:"default:'INR'"`
	PaymentMethod    string          `json:"payment_method"`
	Status           string          `json:"status" gorm:"default:'SUCCESSFUL'"`
	InstructorShare  decimal.Decimal `json:"instructor_share" gorm:"type:decimal(12,2);not null"`
	PlatformShare    decimal.Decimal `json:"platform_share" gorm:"type:decimal(12,2);not null"`
	PaidAt           time.Time       `json:"paid_at"`
}

// CartItem is a course a student intends to buy. It is cleared on enrollment.
type CartItem struct {
	gorm.Model
	UserID   uint `json:"user_id" gorm:"not null;uniqueIndex:idx_cart_user_course"`
	CourseID uint `json:"course_id" gorm:"not null;uniqueIndex:idx_cart_user_course"`
}
