package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification channels
const (
	ChannelEmail = "email"
	ChannelInApp = "in_app"
)

type Notification struct {
	Base
	UserID     uuid.UUID          `json:"user_id" db:"user_id"`
	Channel    string             `json:"channel" db:"channel"`
	Subject    string             `json:"subject,omitempty" db:"subject"`
	Content    string             `json:"content" db:"content"`
	Recipient  string             `json:"-" db:"recipient"`
	Status     NotificationStatus `json:"status" db:"status"`
	RetryCount int                `json:"-" db:"retry_count"`
	LastError  *string            `json:"-" db:"last_error"`
	SentAt     *time.Time         `json:"sent_at,omitempty" db:"sent_at"`
	ReadAt     *time.Time         `json:"read_at,omitempty" db:"read_at"`
}
