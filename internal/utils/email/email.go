package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/Dan9191/card-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// SMTPConfig holds the outgoing mail server settings
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    SMTPConfig
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg SMTPConfig, logger *logrus.Logger) *Sender {
	s := &Sender{cfg: cfg, logger: logger}
	s.send = func(e *email.Email) error {
		addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
		var auth smtp.Auth
		if cfg.Username != "" {
			auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		}
		return e.Send(addr, auth)
	}
	return s
}

// SendAlertDigest mails a summary of critical fraud alerts to the security team
func (s *Sender) SendAlertDigest(to string, since time.Time, alerts []*models.FraudAlert) error {
	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Critical fraud alerts: %d new", len(alerts))
	e.Text = []byte(digestBody(since, alerts))

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send alert digest to %s: %v", to, err)
		return fmt.Errorf("failed to send alert digest: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func digestBody(since time.Time, alerts []*models.FraudAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Critical fraud alerts raised since %s UTC:\n\n", since.UTC().Format("2006-01-02 15:04:05"))
	for _, a := range alerts {
		fmt.Fprintf(&b, "- %s  card %s  %s\n", a.CreatedAt.UTC().Format("2006-01-02 15:04:05"), a.CardID, a.Description)
	}
	b.WriteString("\nReview the affected cards and block them if needed.\n\nCard Service")
	return b.String()
}
