package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusProcessed  OutboxStatus = "processed"
	OutboxStatusRetry      OutboxStatus = "retry"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Broker topics. The outbox processor publishes each event to the
// channel named by its EventType; the worker subscribes to these.
const (
	TopicEmailNotifications = "notifications.email"
	TopicInAppNotifications = "notifications.in_app"
)

// OutboxEvent is written in the same transaction as the state change it
// announces, then shipped asynchronously. Delivery failure never fails
// the originating operation.
type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// NotificationPayload is the payload carried by notification events.
type NotificationPayload struct {
	UserID    uuid.UUID `json:"user_id"`
	Recipient string    `json:"recipient,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Content   string    `json:"content"`
}

// NewNotificationEvent builds an outbox event for one recipient on one
// channel. The channel picks the broker topic.
func NewNotificationEvent(channel string, payload NotificationPayload) (*OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	topic := TopicInAppNotifications
	if channel == ChannelEmail {
		topic = TopicEmailNotifications
	}

	return &OutboxEvent{
		EventType: topic,
		Payload:   raw,
		Status:    OutboxStatusPending,
	}, nil
}
