package memory

import (
	"context"
	"sync"
	"time"
)

// CooldownLedger はプロセス内メモリでソースキーごとの最終受付時刻を保持する。
// Entries are never evicted and live for the lifetime of the process.
type CooldownLedger struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewCooldownLedger returns an empty ledger.
func NewCooldownLedger() *CooldownLedger {
	return &CooldownLedger{entries: make(map[string]time.Time)}
}

// LastAccepted returns the last recorded time for sourceKey.
func (l *CooldownLedger) LastAccepted(_ context.Context, sourceKey string) (time.Time, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	at, ok := l.entries[sourceKey]
	return at, ok, nil
}

// Record stores at as the last accepted time for sourceKey.
func (l *CooldownLedger) Record(_ context.Context, sourceKey string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[sourceKey] = at
	return nil
}

// Len reports the number of tracked source keys.
func (l *CooldownLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
