package service

import (
	"fmt"
	"log"
	"time"

	gomail "gopkg.in/gomail.v2"

	"examstore_backend/internals/configs"
)

/* =========================================================
   SMTP delivery
   ========================================================= */

// OutgoingEmail is one fully rendered message to a single recipient.
type OutgoingEmail struct {
	To          string
	Cc          []string
	Bcc         []string
	From        string
	ReplyTo     string
	Subject     string
	HTMLBody    string
	TextBody    string
	Attachments []ResolvedAttachment
}

// SendResult carries ESP feedback for the log row.
type SendResult struct {
	ResponseCode int
	MessageID    string
}

// Sender delivers one message. The queue processor depends on this
// interface so tests can inject failures.
type Sender interface {
	Send(msg *OutgoingEmail) (*SendResult, error)
}

// SMTPSender delivers via gomail with a bounded dial+send timeout.
type SMTPSender struct {
	Host    string
	Port    int
	User    string
	Pass    string
	Timeout time.Duration
}

func NewSMTPSender() *SMTPSender {
	return &SMTPSender{
		Host:    configs.GetEnv("SMTP_HOST", "localhost"),
		Port:    configs.GetInt("SMTP_PORT", 587),
		User:    configs.GetEnv("SMTP_USER"),
		Pass:    configs.GetEnv("SMTP_PASSWORD"),
		Timeout: time.Duration(configs.GetInt("SMTP_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

func (s *SMTPSender) Send(msg *OutgoingEmail) (*SendResult, error) {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", msg.Bcc...)
	}
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.TextBody)
	m.AddAlternative("text/html", msg.HTMLBody)

	for _, att := range msg.Attachments {
		if att.Path == "" {
			// URL attachments are logged, never fetched.
			log.Printf("[EMAIL] attachment %q is URL-sourced (%s), not attached", att.Name, att.URL)
			continue
		}
		m.Attach(att.Path, gomail.Rename(att.Name))
	}

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Pass)

	// gomail has no dial timeout knob, so the whole dial+send is
	// bounded from outside.
	if err := runWithTimeout(s.Timeout, func() error { return d.DialAndSend(m) }); err != nil {
		return nil, err
	}
	return &SendResult{ResponseCode: 250}, nil
}

// runWithTimeout runs fn, giving up after timeout. The abandoned
// goroutine finishes on its own; its result is discarded.
func runWithTimeout(timeout time.Duration, fn func() error) error {
	if timeout <= 0 {
		return fn()
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("smtp send timed out after %s", timeout)
	}
}

// applyDevOverride swaps the recipient list for DEV_EMAIL_RECIPIENTS
// when dev mode is fully engaged. Requires DEBUG=true as well, so a
// production build can never reroute mail. Returns the effective
// recipients and whether the override fired.
func applyDevOverride(recipients []string) ([]string, bool) {
	if !configs.IsDebug() {
		return recipients, false
	}
	if !configs.GetBool("DEV_EMAIL_OVERRIDE", false) {
		return recipients, false
	}
	devList := configs.GetList("DEV_EMAIL_RECIPIENTS")
	if len(devList) == 0 {
		return recipients, false
	}
	log.Printf("[EMAIL] dev override active: %v -> %v", recipients, devList)
	return devList, true
}

// monitoringBcc returns the EMAIL_BCC_RECIPIENTS list when BCC
// monitoring is enabled.
func monitoringBcc() []string {
	if !configs.GetBool("EMAIL_BCC_MONITORING", false) {
		return nil
	}
	return configs.GetList("EMAIL_BCC_RECIPIENTS")
}
