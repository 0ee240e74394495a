package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Per-recipient delivery statuses.
const (
	LogQueued       = "queued"
	LogSent         = "sent"
	LogDelivered    = "delivered"
	LogOpened       = "opened"
	LogClicked      = "clicked"
	LogBounced      = "bounced"
	LogFailed       = "failed"
	LogSpam         = "spam"
	LogUnsubscribed = "unsubscribed"
)

// EmailLog records one delivery attempt to one recipient. Rows are
// append-only except for the tracking counters.
type EmailLog struct {
	LogID          uuid.UUID  `gorm:"column:log_id;type:uuid;primaryKey" json:"log_id"`
	LogQueueID     *uuid.UUID `gorm:"column:log_queue_id;type:uuid;index" json:"log_queue_id,omitempty"`
	LogTemplateID  *uuid.UUID `gorm:"column:log_template_id;type:uuid;index" json:"log_template_id,omitempty"`

	ToEmail   string `gorm:"column:to_email;type:varchar(255);not null;index" json:"to_email"`
	FromEmail string `gorm:"column:from_email;type:varchar(255)" json:"from_email"`
	Subject   string `gorm:"column:subject;type:varchar(500)" json:"subject"`

	ContentHash    string `gorm:"column:content_hash;type:varchar(32);index" json:"content_hash"`
	AttachmentInfo string `gorm:"column:attachment_info;type:text" json:"attachment_info"`
	TotalSizeBytes int64  `gorm:"column:total_size_bytes;default:0" json:"total_size_bytes"`

	LogStatus string `gorm:"column:log_status;type:varchar(15);default:'queued';index" json:"log_status"`

	QueuedAt       time.Time  `gorm:"column:queued_at;autoCreateTime" json:"queued_at"`
	SentAt         *time.Time `gorm:"column:sent_at" json:"sent_at,omitempty"`
	DeliveredAt    *time.Time `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	OpenedAt       *time.Time `gorm:"column:opened_at" json:"opened_at,omitempty"`
	FirstClickedAt *time.Time `gorm:"column:first_clicked_at" json:"first_clicked_at,omitempty"`
	OpenCount      int        `gorm:"column:open_count;default:0" json:"open_count"`
	ClickCount     int        `gorm:"column:click_count;default:0" json:"click_count"`

	ResponseCode     *int           `gorm:"column:response_code" json:"response_code,omitempty"`
	ESPMessageID     string         `gorm:"column:esp_message_id;type:varchar(255)" json:"esp_message_id"`
	ESPResponse      datatypes.JSON `gorm:"column:esp_response;type:jsonb" json:"esp_response,omitempty"`
	EmailContext     datatypes.JSON `gorm:"column:email_context;type:jsonb" json:"email_context,omitempty"`
	ErrorMessage     *string        `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	ProcessingTimeMs int64          `gorm:"column:processing_time_ms;default:0" json:"processing_time_ms"`
}

func (EmailLog) TableName() string { return "email_logs" }

func (l *EmailLog) BeforeCreate(tx *gorm.DB) error {
	if l.LogID == uuid.Nil {
		l.LogID = uuid.New()
	}
	return nil
}
