package mailer

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// consoleMailer prints messages to stdout. Used in development and as the
// fallback provider when no API key is configured.
type consoleMailer struct {
	subjPrefix string
	mu         sync.Mutex
}

func newConsoleMailer(cfg Config) *consoleMailer {
	return &consoleMailer{subjPrefix: cfg.SubjPrefix}
}

func (m *consoleMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(os.Stdout, "--- email ---\nTo: %s <%s>\nSubject: %s%s\n\n%s\n-------------\n",
		msg.ToName, msg.ToAddress, m.subjPrefix, msg.Subject, msg.TextBody)
	return nil
}
