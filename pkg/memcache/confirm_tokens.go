// pkg/memcache/confirm_tokens.go
package mem

import (
	"sync"
	"time"
)

// ConfirmationStore holds single-use tokens that guard destructive admin actions.
type ConfirmationStore interface {
	// Set binds token to subject (e.g. "reset:<request id>:<actor id>") for ttl.
	Set(token string, subject string, ttl time.Duration)

	// Consume reports whether token is live and bound to subject, and removes it.
	Consume(token string, subject string) bool
}

type entry struct {
	subject   string
	expiresAt time.Time
}

type ConfirmTokens struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

func NewConfirmTokens() *ConfirmTokens {
	return &ConfirmTokens{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

func (s *ConfirmTokens) Set(token string, subject string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	s.data[token] = entry{
		subject:   subject,
		expiresAt: s.now().Add(ttl),
	}
}

func (s *ConfirmTokens) Consume(token string, subject string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[token]
	if !ok {
		return false
	}
	delete(s.data, token) // single-use, even on mismatch
	if s.now().After(e.expiresAt) {
		return false
	}
	return e.subject == subject
}

// purgeLocked drops expired tokens so abandoned confirmations don't accumulate.
func (s *ConfirmTokens) purgeLocked() {
	now := s.now()
	for k, e := range s.data {
		if now.After(e.expiresAt) {
			delete(s.data, k)
		}
	}
}
