// Package cache is a keyed byte store with per-entry TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Store is a keyed cache. Get reports a miss with ok=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key builds a deterministic cache key from parts.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return fmt.Sprintf("cr:%x", hash[:12])
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Tiered keeps an in-process L1 in front of a shared L2 store. L2 hits
// populate L1 for the remaining process lifetime, bounded by ttl.
type Tiered struct {
	l1  sync.Map // key → *entry
	l2  Store
	ttl time.Duration
	now func() time.Time
}

// NewTiered wraps l2; l1TTL bounds how long an L2 hit is served from memory.
func NewTiered(l2 Store, l1TTL time.Duration) *Tiered {
	return &Tiered{l2: l2, ttl: l1TTL, now: time.Now}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if val, ok := t.l1.Load(key); ok {
		e := val.(*entry)
		if t.now().Before(e.expiresAt) {
			return e.data, true, nil
		}
		t.l1.Delete(key)
	}

	data, ok, err := t.l2.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	t.l1.Store(key, &entry{data: data, expiresAt: t.now().Add(t.ttl)})
	return data, true, nil
}

func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	l1TTL := t.ttl
	if ttl < l1TTL {
		l1TTL = ttl
	}
	t.l1.Store(key, &entry{data: value, expiresAt: t.now().Add(l1TTL)})
	return t.l2.Set(ctx, key, value, ttl)
}
