package memory

import (
	"context"
	"sync"
)

// Locker serialises work per key within a single process
type Locker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]chan struct{})}
}

func (l *Locker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	return ch
}

// Acquire blocks until the key is free or ctx is done
func (l *Locker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { <-ch })
		return nil
	}, nil
}

// TryAcquire takes the key only if it is free
func (l *Locker) TryAcquire(_ context.Context, key string) (bool, func(context.Context) error, error) {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
	default:
		return false, nil, nil
	}
	var once sync.Once
	return true, func(context.Context) error {
		once.Do(func() { <-ch })
		return nil
	}, nil
}
