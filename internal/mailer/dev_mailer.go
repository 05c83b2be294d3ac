package mailer

import (
	"github.com/gatherly/eventhub/pkg/logger"
)

// DevMailer logs emails instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (m *DevMailer) SendWelcomeEmail(toEmail, toName string) error {
	logger.Info("DEV MAIL: welcome email",
		"to", toEmail,
		"name", toName,
	)
	return nil
}
