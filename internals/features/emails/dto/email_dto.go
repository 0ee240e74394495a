package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StringList accepts either a single string or an array of strings on
// the wire.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = []string{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or array of strings")
	}
	*s = many
	return nil
}

// Normalized trims entries and drops blanks.
func (s StringList) Normalized() []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

type QueueEmailRequest struct {
	TemplateName    string                 `json:"template_name" validate:"required"`
	ToEmails        StringList             `json:"to_emails" validate:"required"`
	CcEmails        StringList             `json:"cc_emails,omitempty"`
	BccEmails       StringList             `json:"bcc_emails,omitempty"`
	Context         map[string]interface{} `json:"context,omitempty"`
	Priority        string                 `json:"priority,omitempty"`
	ScheduledAt     *time.Time             `json:"scheduled_at,omitempty"`
	ExpiresAt       *time.Time             `json:"expires_at,omitempty"`
	SubjectOverride string                 `json:"subject_override,omitempty"`
	Tags            []string               `json:"tags,omitempty"`
}

type QueueEmailResponse struct {
	QueueID string `json:"queue_id"`
	Status  string `json:"status"`
}

type ProcessRequest struct {
	Limit int `json:"limit,omitempty"`
}

// ProcessResult summarizes one drain pass.
type ProcessResult struct {
	Processed  int      `json:"processed"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

// RegenerateResult is the best-effort re-render of a logged email.
type RegenerateResult struct {
	Success bool   `json:"success"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}
