package middleware

import (
	"context"
	"sync"
	"time"
)

// TokenBlocklist хранит токены, отозванные при выходе из аккаунта.
// Записи живут не дольше срока жизни самого токена.
type TokenBlocklist struct {
	ttl time.Duration

	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewTokenBlocklist(ttl time.Duration) *TokenBlocklist {
	return &TokenBlocklist{
		ttl:     ttl,
		revoked: make(map[string]time.Time),
	}
}

func (b *TokenBlocklist) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[token] = time.Now().Add(b.ttl)
}

func (b *TokenBlocklist) IsRevoked(token string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	expires, ok := b.revoked[token]
	return ok && time.Now().Before(expires)
}

// Run периодически удаляет просроченные записи. Блокируется до отмены
// контекста.
func (b *TokenBlocklist) Run(ctx context.Context) {
	ticker := time.NewTicker(b.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			b.mu.Lock()
			for token, expires := range b.revoked {
				if now.After(expires) {
					delete(b.revoked, token)
				}
			}
			b.mu.Unlock()
		}
	}
}
