package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ProfileImage        string          `json:"profile_image" gorm:"default:''"`
	Name                string          `json:"name" gorm:"default:''"`
	Email               string          `json:"email" gorm:"unique;not null"`
	Mobile              string          `json:"mobile" gorm:"default:''"`
	Roles               Roles           `json:"roles" gorm:"default:1;not null"`
	Password            string          `json:"-" gorm:"not null"`
	Bio                 string          `json:"bio"`
	TotalEarnings       decimal.Decimal `json:"total_earnings" gorm:"type:decimal(14,2);default:0;not null"`
	TotalSales          int64           `json:"total_sales" gorm:"default:0"`
	LastLogin           *time.Time      `json:"last_login"`
	FailedLoginAttempts int             `json:"-" gorm:"default:0"`
	LastFailedLogin     *time.Time      `json:"-"`
	BlockedUntil        *time.Time      `json:"blocked_until"`
}
