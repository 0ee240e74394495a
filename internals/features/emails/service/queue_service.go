package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"examstore_backend/internals/configs"
	"examstore_backend/internals/features/emails/dto"
	"examstore_backend/internals/features/emails/model"
	helper "examstore_backend/internals/helpers"
)

var ErrNoRecipients = errors.New("queue_email requires at least one recipient")

// QueueService inserts logical emails into the queue. Rendering is
// deferred to send time so late context/template edits still apply.
type QueueService struct {
	DB        *gorm.DB
	Processor *QueueProcessor
}

func NewQueueService(db *gorm.DB) *QueueService {
	return &QueueService{DB: db}
}

// WithProcessor attaches the inline dispatcher used when a template
// opts out of queue deferral (enable_queue off). Without one such rows
// wait for the scheduled drain like everything else.
func (s *QueueService) WithProcessor(p *QueueProcessor) *QueueService {
	s.Processor = p
	return s
}

// QueueEmail creates one EmailQueue row. A missing template is a
// warning, not an error: the row is queued with defaults and the raw
// subject. The insert is transactional with the context
// serialization.
func (s *QueueService) QueueEmail(req *dto.QueueEmailRequest) (*model.EmailQueue, error) {
	to := req.ToEmails.Normalized()
	if len(to) == 0 {
		return nil, ErrNoRecipients
	}

	var tpl *model.EmailTemplate
	var found model.EmailTemplate
	err := s.DB.First(&found, "template_name = ? AND template_is_active = ?", req.TemplateName, true).Error
	switch {
	case err == nil:
		tpl = &found
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Printf("[EMAIL] template %q not found, queueing with defaults", req.TemplateName)
	default:
		return nil, err
	}

	subject := req.SubjectOverride
	if subject == "" {
		if tpl != nil {
			subject = tpl.SubjectTemplate
		} else {
			subject = req.TemplateName
		}
	}

	context := req.Context
	if context == nil {
		context = map[string]interface{}{}
	}
	context["template_name"] = req.TemplateName

	contextJSON, err := json.Marshal(helper.SafeJSONMap(context))
	if err != nil {
		return nil, fmt.Errorf("context not serializable: %w", err)
	}

	now := time.Now().UTC()
	scheduledAt := now
	if req.ScheduledAt != nil {
		scheduledAt = req.ScheduledAt.UTC()
	}

	maxAttempts := 3
	if tpl != nil && tpl.MaxRetryAttempts > 0 {
		maxAttempts = tpl.MaxRetryAttempts
	}

	priority := req.Priority
	switch priority {
	case model.PriorityUrgent, model.PriorityHigh, model.PriorityNormal, model.PriorityLow:
	default:
		priority = model.PriorityNormal
	}

	row := model.EmailQueue{
		ToEmails:     pq.StringArray(to),
		CcEmails:     pq.StringArray(req.CcEmails.Normalized()),
		BccEmails:    pq.StringArray(req.BccEmails.Normalized()),
		FromEmail:    configs.GetEnv("DEFAULT_FROM_EMAIL", "noreply@example.com"),
		Subject:      subject,
		EmailContext: datatypes.JSON(contextJSON),
		QueuePriority: priority,
		QueueStatus:  model.QueuePending,
		ScheduledAt:  scheduledAt,
		ProcessAfter: scheduledAt,
		ExpiresAt:    req.ExpiresAt,
		Attempts:     0,
		MaxAttempts:  maxAttempts,
		Tags:         pq.StringArray(req.Tags),
	}
	if tpl != nil {
		id := tpl.TemplateID
		row.QueueTemplateID = &id
	}

	if err := s.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	}); err != nil {
		return nil, err
	}

	log.Printf("[EMAIL] queued %s template=%q to=%d priority=%s", row.QueueID, req.TemplateName, len(to), priority)

	// Templates with queueing disabled are dispatched inline. The row
	// exists either way, so logging and the retry budget still apply;
	// a scheduled send in the future stays deferred.
	if tpl != nil && !tpl.EnableQueue && s.Processor != nil {
		row.Template = tpl
		if _, ok, sendErr := s.Processor.ProcessQueueItem(&row); !ok && sendErr != nil {
			log.Printf("[EMAIL] inline dispatch %s failed: %v", row.QueueID, sendErr)
		}
	}
	return &row, nil
}
