package mailer

import (
	"context"
	"fmt"
)

// Message is a single outbound email.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	TextBody  string
	HTMLBody  string
}

// Mailer delivers transactional emails. Implementations must be safe for
// concurrent use; delivery errors are returned to the caller, which decides
// whether the failure is fatal.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config selects the provider and sender identity.
type Config struct {
	Provider    string
	SendgridKey string
	FromName    string
	FromAddress string
	SubjPrefix  string
}

// New builds a Mailer for the configured provider. Unknown providers fall
// back to the console mailer so development environments never need real
// credentials.
func New(cfg Config) (Mailer, error) {
	switch cfg.Provider {
	case "sendgrid":
		if cfg.SendgridKey == "" {
			return nil, fmt.Errorf("sendgrid provider requires SENDGRID_API_KEY")
		}
		return newSendgridMailer(cfg), nil
	default:
		return newConsoleMailer(cfg), nil
	}
}
