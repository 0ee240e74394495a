package service

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"examstore_backend/internals/configs"
	"examstore_backend/internals/features/emails/model"
)

/* =========================================================
   Attachment resolution
   ========================================================= */

// ResolvedAttachment is one file ready to attach. URL sources are
// recorded but not fetched.
type ResolvedAttachment struct {
	Name      string
	Path      string
	URL       string
	MimeType  string
	SizeBytes int64
}

// ResolveAttachments evaluates each template attachment against the
// render context. Conditional attachments whose rules fail are
// skipped. A required attachment missing on disk is an error; an
// optional one is skipped with a log line.
func ResolveAttachments(attachments []model.EmailAttachment, ctx map[string]interface{}) ([]ResolvedAttachment, error) {
	staticRoot := configs.GetEnv("EMAIL_ATTACHMENT_ROOT", "static")

	resolved := make([]ResolvedAttachment, 0, len(attachments))
	for i := range attachments {
		att := &attachments[i]

		if att.AttachmentIsConditional && !attachmentConditionsMatch(att, ctx) {
			continue
		}

		if att.AttachmentFileURL != "" && att.AttachmentFilePath == "" {
			resolved = append(resolved, ResolvedAttachment{
				Name:     att.AttachmentName,
				URL:      att.AttachmentFileURL,
				MimeType: att.AttachmentMimeType,
			})
			continue
		}

		path := att.AttachmentFilePath
		if path != "" && !filepath.IsAbs(path) {
			path = filepath.Join(staticRoot, path)
		}

		info, err := os.Stat(path)
		if err != nil {
			if att.AttachmentIsRequired {
				return nil, fmt.Errorf("required attachment %q missing: %w", att.AttachmentName, err)
			}
			log.Printf("[EMAIL] optional attachment %q missing, skipping: %v", att.AttachmentName, err)
			continue
		}

		resolved = append(resolved, ResolvedAttachment{
			Name:      att.AttachmentName,
			Path:      path,
			MimeType:  att.AttachmentMimeType,
			SizeBytes: info.Size(),
		})
	}
	return resolved, nil
}

// attachmentConditionsMatch evaluates condition_rules, stored as
// [{field, operator, value, logic}], all-must-hold unless OR logic is
// given. Unparsable rules fail closed.
func attachmentConditionsMatch(att *model.EmailAttachment, ctx map[string]interface{}) bool {
	if len(att.ConditionRules) == 0 {
		return true
	}
	var conds []additionalCondition
	if err := json.Unmarshal(att.ConditionRules, &conds); err != nil {
		log.Printf("[EMAIL] attachment %s: bad condition_rules: %v", att.AttachmentID, err)
		return false
	}

	result := true
	for i, cond := range conds {
		next := evaluateCondition(cond.Field, cond.Operator, cond.Value, ctx)
		if i == 0 {
			result = next
			continue
		}
		if cond.Logic == "OR" || cond.Logic == "or" {
			result = result || next
		} else {
			result = result && next
		}
	}
	return result
}
