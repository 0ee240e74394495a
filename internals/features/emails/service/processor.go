package service

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"examstore_backend/internals/configs"
	"examstore_backend/internals/features/emails/dto"
	"examstore_backend/internals/features/emails/model"
)

const (
	DefaultProcessLimit     = 50
	defaultRetryDelayMinute = 5
)

// QueueProcessor drains the email queue. Safe to run from several
// workers at once: row ownership is taken with FOR UPDATE SKIP LOCKED
// before any send.
type QueueProcessor struct {
	DB       *gorm.DB
	Renderer *Renderer
	Sender   Sender
}

func NewQueueProcessor(db *gorm.DB, renderer *Renderer, sender Sender) *QueueProcessor {
	return &QueueProcessor{DB: db, Renderer: renderer, Sender: sender}
}

// ProcessPendingQueue drains up to limit eligible rows. Errors never
// propagate past a row: they land on the row and in the result's
// error list.
func (p *QueueProcessor) ProcessPendingQueue(limit int) *dto.ProcessResult {
	if limit <= 0 {
		limit = DefaultProcessLimit
	}

	var rows []model.EmailQueue
	err := p.DB.
		Preload("Template").
		Preload("Template.Attachments").
		Where("queue_status IN ?", []string{model.QueuePending, model.QueueRetry}).
		Order("priority_order asc, scheduled_at asc, created_at asc").
		Limit(limit).
		Find(&rows).Error

	result := &dto.ProcessResult{}
	if err != nil {
		log.Printf("[EMAIL] queue select failed: %v", err)
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	for i := range rows {
		row := &rows[i]
		processed, ok, err := p.ProcessQueueItem(row)
		if !processed {
			continue
		}
		result.Processed++
		if ok {
			result.Successful++
		} else {
			result.Failed++
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", row.QueueID, err))
			}
		}
	}
	return result
}

// ProcessQueueItem handles one row end to end. Returns
// (processed, sentOK, err): processed=false means the row was skipped
// (owned elsewhere, deferred, or expired) and does not count toward
// the drain totals.
func (p *QueueProcessor) ProcessQueueItem(row *model.EmailQueue) (processed, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			p.markFailed(row, err)
			processed, ok = true, false
		}
	}()

	now := time.Now().UTC()

	claimed, skip := p.claimRow(row, now)
	if skip != nil {
		return true, false, skip
	}
	if !claimed {
		return false, false, nil
	}

	sent, attempted, sendErr := p.sendAll(row)
	p.finalize(row, sent, attempted, sendErr)

	return true, row.QueueStatus == model.QueueSent, sendErr
}

// claimRow takes exclusive ownership: re-reads the row under FOR
// UPDATE SKIP LOCKED, re-checks eligibility and flips it to
// processing. claimed=false means another worker holds it or the row
// is deferred/expired; a non-nil error means the row was processed to
// a terminal state here (expiry).
func (p *QueueProcessor) claimRow(row *model.EmailQueue, now time.Time) (claimed bool, terminal error) {
	err := p.DB.Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&model.EmailQueue{})
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		var fresh model.EmailQueue
		if err := q.First(&fresh, "queue_id = ?", row.QueueID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errSkipped
			}
			return err
		}

		if fresh.QueueStatus != model.QueuePending && fresh.QueueStatus != model.QueueRetry {
			return errSkipped
		}
		if fresh.ExpiresAt != nil && fresh.ExpiresAt.Before(now) {
			terminal = fmt.Errorf("expired at %s", fresh.ExpiresAt.Format(time.RFC3339))
			return tx.Model(&fresh).Updates(map[string]interface{}{
				"queue_status":  model.QueueCancelled,
				"error_message": "expired before processing",
			}).Error
		}
		if fresh.ProcessAfter.After(now) {
			return errSkipped
		}
		if fresh.QueueStatus == model.QueueRetry && fresh.NextRetryAt != nil && fresh.NextRetryAt.After(now) {
			return errSkipped
		}

		// Snapshot before Updates: GORM writes map values back into
		// fresh, so reading fresh.Attempts afterwards double-counts.
		next := fresh.Attempts + 1
		if err := tx.Model(&fresh).Updates(map[string]interface{}{
			"queue_status": model.QueueProcessing,
			"attempts":     next,
		}).Error; err != nil {
			return err
		}

		row.QueueStatus = model.QueueProcessing
		row.Attempts = next
		return nil
	})

	if terminal != nil {
		row.QueueStatus = model.QueueCancelled
		return false, terminal
	}
	if errors.Is(err, errSkipped) {
		return false, nil
	}
	if err != nil {
		log.Printf("[EMAIL] claim %s failed: %v", row.QueueID, err)
		return false, nil
	}
	return true, nil
}

var errSkipped = errors.New("queue row skipped")

// sendAll delivers to every recipient in order; a failure on one does
// not stop the next. Returns how many sent, how many were attempted
// (dev override may shrink the list) and the first error.
func (p *QueueProcessor) sendAll(row *model.EmailQueue) (sent, attempted int, firstErr error) {
	ctx := map[string]interface{}{}
	if len(row.EmailContext) > 0 {
		if err := json.Unmarshal(row.EmailContext, &ctx); err != nil {
			return 0, 0, fmt.Errorf("stored context unreadable: %w", err)
		}
	}

	recipients := []string(row.ToEmails)
	effective, devActive := applyDevOverride(recipients)
	if devActive {
		ctx["dev_original_recipients"] = recipients
		ctx["dev_mode_active"] = true
	}
	attempted = len(effective)

	for _, recipient := range effective {
		if err := p.sendSingle(row, recipient, ctx); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sent++
	}
	return sent, attempted, firstErr
}

// sendSingle renders and delivers to one recipient, writing exactly
// one EmailLog row for the attempt.
func (p *QueueProcessor) sendSingle(row *model.EmailQueue, recipient string, ctx map[string]interface{}) error {
	start := time.Now()

	logRow := model.EmailLog{
		LogQueueID:   &row.QueueID,
		ToEmail:      recipient,
		FromEmail:    row.FromEmail,
		Subject:      row.Subject,
		LogStatus:    model.LogQueued,
		EmailContext: row.EmailContext,
	}
	if row.QueueTemplateID != nil {
		logRow.LogTemplateID = row.QueueTemplateID
	}
	if err := p.DB.Create(&logRow).Error; err != nil {
		return fmt.Errorf("log insert: %w", err)
	}

	htmlBody, textBody, subject, attachments, err := p.render(row, recipient, ctx)
	if err != nil {
		p.markLogFailed(&logRow, start, err)
		return err
	}

	msg := &OutgoingEmail{
		To:          recipient,
		Cc:          row.CcEmails,
		Bcc:         append([]string(row.BccEmails), monitoringBcc()...),
		From:        row.FromEmail,
		ReplyTo:     configs.GetEnv("DEFAULT_REPLY_TO_EMAIL"),
		Subject:     subject,
		HTMLBody:    htmlBody,
		TextBody:    textBody,
		Attachments: attachments,
	}

	res, err := p.Sender.Send(msg)
	if err != nil {
		p.markLogFailed(&logRow, start, err)
		return err
	}

	sum := md5.Sum([]byte(htmlBody))
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"log_status":         model.LogSent,
		"sent_at":            now,
		"subject":            subject,
		"content_hash":       hex.EncodeToString(sum[:]),
		"attachment_info":    attachmentInfo(attachments),
		"total_size_bytes":   int64(len(htmlBody) + len(textBody)),
		"processing_time_ms": time.Since(start).Milliseconds(),
	}
	if res != nil {
		updates["response_code"] = res.ResponseCode
		updates["esp_message_id"] = res.MessageID
	}
	if err := p.DB.Model(&logRow).Updates(updates).Error; err != nil {
		log.Printf("[EMAIL] log update %s failed: %v", logRow.LogID, err)
	}
	return nil
}

// render produces the per-recipient body. Without a template the
// stored html/text content is used as-is.
func (p *QueueProcessor) render(row *model.EmailQueue, recipient string, ctx map[string]interface{}) (htmlBody, textBody, subject string, attachments []ResolvedAttachment, err error) {
	ctx["recipient_email"] = recipient
	subject = row.Subject

	if row.Template == nil {
		if row.HTMLContent != nil {
			htmlBody = *row.HTMLContent
		}
		if row.TextContent != nil {
			textBody = *row.TextContent
		}
		if htmlBody == "" && textBody == "" {
			err = errors.New("no template and no stored content")
		}
		return
	}

	if s, subErr := p.Renderer.RenderSubject(subject, ctx); subErr == nil && s != "" {
		subject = s
	}

	htmlBody, textBody, err = p.Renderer.Render(row.Template, ctx)
	if err != nil {
		return
	}

	attachments, err = ResolveAttachments(row.Template.Attachments, ctx)
	return
}

// finalize applies the aggregation rules to the owned row.
func (p *QueueProcessor) finalize(row *model.EmailQueue, sent, attempted int, sendErr error) {
	now := time.Now().UTC()
	total := attempted

	var updates map[string]interface{}
	switch {
	case sendErr == nil && sent >= total && total > 0:
		row.QueueStatus = model.QueueSent
		updates = map[string]interface{}{
			"queue_status": model.QueueSent,
			"sent_at":      now,
		}
	case row.Attempts < row.MaxAttempts:
		delay := defaultRetryDelayMinute
		if row.Template != nil && row.Template.RetryDelayMinutes > 0 {
			delay = row.Template.RetryDelayMinutes
		}
		next := now.Add(time.Duration(delay) * time.Minute)
		row.QueueStatus = model.QueueRetry
		row.NextRetryAt = &next
		updates = map[string]interface{}{
			"queue_status":  model.QueueRetry,
			"next_retry_at": next,
			"error_message": errMessage(sendErr),
		}
	default:
		row.QueueStatus = model.QueueFailed
		updates = map[string]interface{}{
			"queue_status":  model.QueueFailed,
			"error_message": errMessage(sendErr),
		}
	}

	if sendErr != nil {
		detail, _ := json.Marshal(map[string]interface{}{
			"error":    sendErr.Error(),
			"sent":     sent,
			"total":    total,
			"attempt":  row.Attempts,
			"occurred": now.Format(time.RFC3339),
		})
		updates["error_details"] = datatypes.JSON(detail)
	}

	if err := p.DB.Model(&model.EmailQueue{}).
		Where("queue_id = ?", row.QueueID).
		Updates(updates).Error; err != nil {
		log.Printf("[EMAIL] finalize %s failed: %v", row.QueueID, err)
	}
}

func (p *QueueProcessor) markFailed(row *model.EmailQueue, cause error) {
	row.QueueStatus = model.QueueFailed
	if err := p.DB.Model(&model.EmailQueue{}).
		Where("queue_id = ?", row.QueueID).
		Updates(map[string]interface{}{
			"queue_status":  model.QueueFailed,
			"error_message": errMessage(cause),
		}).Error; err != nil {
		log.Printf("[EMAIL] mark failed %s: %v", row.QueueID, err)
	}
}

func (p *QueueProcessor) markLogFailed(logRow *model.EmailLog, start time.Time, cause error) {
	msg := errMessage(cause)
	if err := p.DB.Model(logRow).Updates(map[string]interface{}{
		"log_status":         model.LogFailed,
		"error_message":      msg,
		"processing_time_ms": time.Since(start).Milliseconds(),
	}).Error; err != nil {
		log.Printf("[EMAIL] log failure update %s: %v", logRow.LogID, err)
	}
}

func errMessage(err error) string {
	if err == nil {
		return "partial delivery"
	}
	return err.Error()
}

func attachmentInfo(attachments []ResolvedAttachment) string {
	if len(attachments) == 0 {
		return ""
	}
	names := make([]string, 0, len(attachments))
	for _, a := range attachments {
		names = append(names, a.Name)
	}
	raw, _ := json.Marshal(names)
	return string(raw)
}

// Regenerate re-renders a logged email from its stored context
// without resending. Best effort: failures land in the result, not an
// error return.
func (p *QueueProcessor) Regenerate(logID string) *dto.RegenerateResult {
	var logRow model.EmailLog
	if err := p.DB.First(&logRow, "log_id = ?", logID).Error; err != nil {
		return &dto.RegenerateResult{Error: "log not found"}
	}
	if logRow.LogTemplateID == nil {
		return &dto.RegenerateResult{Error: "log has no template"}
	}

	var tpl model.EmailTemplate
	if err := p.DB.First(&tpl, "template_id = ?", *logRow.LogTemplateID).Error; err != nil {
		return &dto.RegenerateResult{Error: "template not found"}
	}

	ctx := map[string]interface{}{}
	if len(logRow.EmailContext) > 0 {
		if err := json.Unmarshal(logRow.EmailContext, &ctx); err != nil {
			return &dto.RegenerateResult{Error: "stored context unreadable"}
		}
	}
	ctx["recipient_email"] = logRow.ToEmail

	htmlBody, textBody, err := p.Renderer.Render(&tpl, ctx)
	if err != nil {
		return &dto.RegenerateResult{Error: err.Error()}
	}
	return &dto.RegenerateResult{Success: true, HTML: htmlBody, Text: textBody}
}
