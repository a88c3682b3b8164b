package mail

import (
	"fmt"

	gomail "gopkg.in/mail.v2"

	"github.com/membergate/api/internal/config"
	"github.com/membergate/api/internal/domain"
)

// Mailer delivers verification codes over SMTP.
type Mailer interface {
	SendVerificationCode(to, code string) error
}

type mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(cfg *config.Config) Mailer {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	return &mailer{dialer: d, from: cfg.SMTPFrom}
}

func (m *mailer) SendVerificationCode(to, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your verification code")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Your verification code is %s.\n\nIt is valid for 3 minutes. Do not share it with anyone.", code))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send to %s: %v: %w", to, err, domain.ErrMailDelivery)
	}
	return nil
}
