package limiter

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process limiter for single-node deployments running
// without Postgres. Same sliding-window semantics as PG.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]*memEntry
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time
}

type memEntry struct {
	failCount    int
	blockedUntil time.Time
	updatedAt    time.Time
}

// NewMemory constructs an in-process limiter.
func NewMemory(window time.Duration, maxFails int, blockFor time.Duration) *Memory {
	return &Memory{
		entries:  map[string]*memEntry{},
		window:   window,
		maxFails: maxFails,
		blockFor: blockFor,
		now:      time.Now,
	}
}

// Allow reports whether verification is currently allowed and a retry-after duration.
func (l *Memory) Allow(_ context.Context, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[string(ipHash)]
	if !ok {
		return true, 0, nil
	}
	now := l.now()
	if e.blockedUntil.After(now) {
		return false, e.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success resets counters for the client.
func (l *Memory) Success(_ context.Context, ipHash []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, string(ipHash))
	return nil
}

// Failure records a failed attempt; may set a block until a future time.
func (l *Memory) Failure(_ context.Context, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[string(ipHash)]
	if !ok || now.Sub(e.updatedAt) > l.window {
		e = &memEntry{}
		l.entries[string(ipHash)] = e
	}
	e.failCount++
	e.updatedAt = now
	if e.failCount >= l.maxFails {
		e.blockedUntil = now.Add(l.blockFor)
		return true, l.blockFor, nil
	}
	return false, 0, nil
}
