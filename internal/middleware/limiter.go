package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter hands out one token bucket per key and forgets keys that have
// been idle for longer than idleTTL.
type KeyedLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewKeyedLimiter(rps float64, burst int, idleTTL time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		entries: make(map[string]*limiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
	}
}

// Allow reports whether key may proceed now.
func (k *KeyedLimiter) Allow(key string) bool {
	now := time.Now()

	k.mu.Lock()
	ent, ok := k.entries[key]
	if !ok {
		ent = &limiterEntry{lim: rate.NewLimiter(k.rps, k.burst)}
		k.entries[key] = ent
	}
	ent.lastSeen = now
	k.mu.Unlock()

	return ent.lim.AllowN(now, 1)
}

// RetryAfter is how long a rejected key should wait for its next token.
func (k *KeyedLimiter) RetryAfter() time.Duration {
	if k.rps <= 0 {
		return time.Second
	}
	d := time.Duration(float64(time.Second) / float64(k.rps))
	if d < time.Second {
		return time.Second
	}
	return d
}

func (k *KeyedLimiter) Cleanup() {
	cutoff := time.Now().Add(-k.idleTTL)

	k.mu.Lock()
	defer k.mu.Unlock()

	for key, ent := range k.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(k.entries, key)
		}
	}
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (k *KeyedLimiter) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				k.Cleanup()
			}
		}
	}()
}

func (k *KeyedLimiter) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
