//go:build e2e

package e2e

import (
	"context"
	"sync"

	"travel-booking/internal/usecase/notify"
)

// Mailbox records every message the dispatcher sends.
type Mailbox struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *Mailbox) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *Mailbox) Messages() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notify.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *Mailbox) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
