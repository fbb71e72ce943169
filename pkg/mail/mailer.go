package mail

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/freecs/freecs-api/pkg/config"
)

// Message is a plain-text email awaiting dispatch.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages over SMTP. When credentials are not configured it
// logs the message instead of failing, which keeps local development usable.
type Mailer struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewMailer constructs a Mailer.
func NewMailer(cfg config.MailConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{cfg: cfg, logger: logger}
}

// Send delivers a single message synchronously.
func (m *Mailer) Send(msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient address required")
	}

	if m.cfg.Username == "" || m.cfg.Password == "" {
		m.logger.Warn("smtp credentials not configured, message logged instead of sent",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
		)
		return nil
	}

	from := m.cfg.FromAddress
	headers := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n",
		m.cfg.FromName, from, msg.To, msg.Subject)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, from, []string{msg.To}, []byte(headers+msg.Body)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	m.logger.Info("email dispatched", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
