package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	NotificationPending = "PENDING"
	NotificationSending = "SENDING"
	NotificationSent    = "SENT"
	NotificationFailed  = "FAILED"
)

// Notification is an outbox row written inside the business transaction and
// delivered after commit.
type Notification struct {
	gorm.Model
	Kind      string     `json:"kind" gorm:"index;not null"`
	Recipient string     `json:"recipient" gorm:"not null"`
	Subject   string     `json:"subject"`
	Body      string     `json:"-" gorm:"type:text"`
	Status    string     `json:"status" gorm:"index;default:'PENDING'"`
	Attempts  int        `json:"attempts" gorm:"default:0"`
	LastError string     `json:"last_error"`
	SentAt    *time.Time `json:"sent_at"`
}

// AssetRelease is a hosted media asset that must be deleted from the media
// store. Rows are removed once the store confirms the delete.
type AssetRelease struct {
	gorm.Model
	AssetID   string `json:"asset_id" gorm:"not null"`
	Reason    string `json:"reason"`
	Attempts  int    `json:"attempts" gorm:"default:0"`
	LastError string `json:"last_error"`
}
