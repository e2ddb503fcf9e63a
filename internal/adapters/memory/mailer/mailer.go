package mailer

import (
	"context"
	"sync"
)

// Mailer is an in-memory implementation of mailer.Mailer that records sends.
// Tests use it to assert welcome-mail behavior; it also serves deployments
// with mail disabled.
type Mailer struct {
	mu   sync.Mutex
	sent []string

	// Err, when set, is returned from every send. Lets tests exercise the
	// best-effort contract.
	Err error
}

func NewMailer() *Mailer {
	return &Mailer{}
}

func (m *Mailer) SendWelcome(ctx context.Context, email string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, email)
	return nil
}

// Sent returns the addresses welcomed so far, in send order.
func (m *Mailer) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	copy(out, m.sent)
	return out
}
