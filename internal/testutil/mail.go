package testutil

import (
	"context"
	"sync"

	"github.com/dalemusser/projecthub/internal/app/system/mailer"
)

// MailBox is a mailer.Sender that keeps every message in memory.
type MailBox struct {
	mu   sync.Mutex
	sent []mailer.Email
	Err  error // returned from Send when set
}

func (m *MailBox) Send(_ context.Context, e mailer.Email) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return nil
}

// Sent returns a copy of the delivered messages.
func (m *MailBox) Sent() []mailer.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Email(nil), m.sent...)
}

// Last returns the most recent message, or the zero Email.
func (m *MailBox) Last() mailer.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return mailer.Email{}
	}
	return m.sent[len(m.sent)-1]
}
