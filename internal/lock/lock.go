// Package lock serializes work on a single cart or order. LocalLocker covers a
// single instance; RedisLocker is used when several instances share the database.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrTimeout is returned when the lock could not be acquired within the wait bound.
var ErrTimeout = errors.New("lock: wait timed out")

// Locker acquires an exclusive lock on key. The returned func releases it and
// is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

func CartKey(userID string) string   { return fmt.Sprintf("cart:%s", userID) }
func OrderKey(orderID string) string { return fmt.Sprintf("order:%s", orderID) }

type entry struct {
	sem  chan struct{}
	refs int
}

// LocalLocker is an in-process keyed mutex. Entries are dropped once no
// goroutine holds or waits on them.
type LocalLocker struct {
	wait time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{wait: wait, entries: make(map[string]*entry)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	e := l.acquireRef(key)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.releaseRef(key, e)
		return nil, ctx.Err()
	case <-timer.C:
		l.releaseRef(key, e)
		return nil, fmt.Errorf("%w: %s", ErrTimeout, key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.releaseRef(key, e)
		})
	}, nil
}

func (l *LocalLocker) acquireRef(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *LocalLocker) releaseRef(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// held reports how many keys currently have holders or waiters.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
