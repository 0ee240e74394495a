package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Queue row statuses. Transitions follow
// pending -> processing -> {sent | retry | failed | cancelled} and
// retry -> processing -> ...; sent/failed/cancelled are terminal.
const (
	QueuePending    = "pending"
	QueueProcessing = "processing"
	QueueSent       = "sent"
	QueueFailed     = "failed"
	QueueCancelled  = "cancelled"
	QueueRetry      = "retry"
)

// Queue priorities, ordered high to low for worker selection.
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

// PriorityRank maps a priority label onto a sortable integer
// (lower = drained first).
func PriorityRank(p string) int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 3
	default:
		return 2
	}
}

type EmailQueue struct {
	QueueID         uuid.UUID  `gorm:"column:queue_id;type:uuid;primaryKey" json:"queue_id"`
	QueueTemplateID *uuid.UUID `gorm:"column:queue_template_id;type:uuid;index" json:"queue_template_id,omitempty"`

	ToEmails  pq.StringArray `gorm:"column:to_emails;type:text[];not null" json:"to_emails"`
	CcEmails  pq.StringArray `gorm:"column:cc_emails;type:text[]" json:"cc_emails,omitempty"`
	BccEmails pq.StringArray `gorm:"column:bcc_emails;type:text[]" json:"bcc_emails,omitempty"`
	FromEmail string         `gorm:"column:from_email;type:varchar(255);not null" json:"from_email"`
	Subject   string         `gorm:"column:subject;type:varchar(500);not null" json:"subject"`

	EmailContext datatypes.JSON `gorm:"column:email_context;type:jsonb" json:"email_context,omitempty"`
	HTMLContent  *string        `gorm:"column:html_content;type:text" json:"html_content,omitempty"`
	TextContent  *string        `gorm:"column:text_content;type:text" json:"text_content,omitempty"`

	QueuePriority string `gorm:"column:queue_priority;type:varchar(10);default:'normal';index" json:"queue_priority"`
	PriorityOrder int    `gorm:"column:priority_order;default:2;index" json:"priority_order"`
	QueueStatus   string `gorm:"column:queue_status;type:varchar(15);default:'pending';index" json:"queue_status"`

	ScheduledAt  time.Time  `gorm:"column:scheduled_at;not null;index" json:"scheduled_at"`
	ProcessAfter time.Time  `gorm:"column:process_after;not null" json:"process_after"`
	ExpiresAt    *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`

	Attempts    int        `gorm:"column:attempts;default:0" json:"attempts"`
	MaxAttempts int        `gorm:"column:max_attempts;default:3" json:"max_attempts"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at" json:"next_retry_at,omitempty"`
	SentAt      *time.Time `gorm:"column:sent_at" json:"sent_at,omitempty"`

	ErrorMessage *string        `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	ErrorDetails datatypes.JSON `gorm:"column:error_details;type:jsonb" json:"error_details,omitempty"`
	Tags         pq.StringArray `gorm:"column:tags;type:text[]" json:"tags,omitempty"`

	Template *EmailTemplate `gorm:"foreignKey:QueueTemplateID;references:TemplateID" json:"template,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (EmailQueue) TableName() string { return "email_queue" }

func (q *EmailQueue) BeforeCreate(tx *gorm.DB) error {
	if q.QueueID == uuid.Nil {
		q.QueueID = uuid.New()
	}
	if q.QueuePriority == "" {
		q.QueuePriority = PriorityNormal
	}
	q.PriorityOrder = PriorityRank(q.QueuePriority)
	return nil
}
