package email

import (
	"context"
	"sync"
)

// MemoryProvider keeps sent messages in memory. Used when e-mail is disabled
// and in tests.
type MemoryProvider struct {
	mu   sync.Mutex
	sent []Email
	Err  error
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{}
}

func (p *MemoryProvider) Send(_ context.Context, email *Email) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.sent = append(p.sent, *email)
	return nil
}

func (p *MemoryProvider) Sent() []Email {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Email, len(p.sent))
	copy(out, p.sent)
	return out
}

func (p *MemoryProvider) Validate() error { return nil }

func (p *MemoryProvider) Close() error { return nil }
