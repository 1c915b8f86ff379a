// Package sender потребляет почтовые задания из очереди
// и отправляет письма через SMTP.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ainexo/declair/internal/lib/sl"
	"github.com/ainexo/declair/internal/lib/smtp"
	"github.com/ainexo/declair/internal/models"
)

// Service реализует отправку писем по заданиям из очереди.
type Service struct {
	transport smtp.TransportInterface
	baseURL   string
	log       *slog.Logger
}

// New создает новый экземпляр Service. baseURL используется
// для построения ссылок подтверждения и сброса пароля.
func New(transport smtp.TransportInterface, baseURL string, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		baseURL:   strings.TrimRight(baseURL, "/"),
		log:       log,
	}
}

// HandleEmailJob разбирает задание из очереди и отправляет письмо.
// Ошибка приводит к nack и повторной доставке.
func (s *Service) HandleEmailJob(body []byte) error {
	var job models.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		s.log.Error("failed to unmarshal email job", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject, text, err := s.compose(job)
	if err != nil {
		return err
	}
	return s.sendEmail([]string{job.Email}, subject, text)
}

func (s *Service) compose(job models.EmailJob) (subject, text string, err error) {
	switch job.Kind {
	case models.EmailVerification:
		subject = "Confirm your email address"
		text = fmt.Sprintf("Hello, %s!\n\nPlease confirm your email address by following the link:\n%s/auth/verify-email?token=%s\n\nThe link is valid for 24 hours.",
			job.Name, s.baseURL, job.Token)
	case models.EmailPasswordReset:
		subject = "Password reset"
		text = fmt.Sprintf("Hello, %s!\n\nTo set a new password, follow the link:\n%s/auth/reset-password?token=%s\n\nThe link is valid for 1 hour. If you did not request a reset, ignore this letter.",
			job.Name, s.baseURL, job.Token)
	case models.EmailInvitation:
		subject = "You are invited to a workspace"
		text = fmt.Sprintf("Hello!\n\n%s invited you to their workspace. To accept the invitation, follow the link:\n%s/auth/accept-invite?token=%s\n\nThe invitation is valid for 7 days.",
			job.InvitedBy, s.baseURL, job.Token)
	case models.EmailTrialExpiring:
		subject = "Your trial period is ending"
		text = fmt.Sprintf("Hello, %s!\n\nYour trial period ends in %d day(s). Choose a plan to keep access:\n%s/billing/plans",
			job.Name, job.DaysLeft, s.baseURL)
	default:
		return "", "", fmt.Errorf("unknown email job kind: %s", job.Kind)
	}
	return subject, text, nil
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.String("kind_subject", subject))
	return nil
}
