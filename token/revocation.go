package token

import (
	"sync"
	"time"
)

// RevocationList remembers access token ids revoked at logout until the
// tokens would have expired anyway.
type RevocationList struct {
	revoked map[string]time.Time
	now     func() time.Time
	mu      sync.RWMutex
}

func NewRevocationList() *RevocationList {
	return &RevocationList{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke adds jti and drops entries that have expired.
func (l *RevocationList) Revoke(jti string, exp time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for id, e := range l.revoked {
		if now.After(e) {
			delete(l.revoked, id)
		}
	}
	if exp.After(now) {
		l.revoked[jti] = exp
	}
}

func (l *RevocationList) IsRevoked(jti string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.revoked[jti]
	return ok
}

// Len is the number of tracked ids.
func (l *RevocationList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.revoked)
}
