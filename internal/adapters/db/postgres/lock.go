package postgres

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LockManager provides cross-instance locks using PostgreSQL advisory locks
type LockManager struct {
	pool *pgxpool.Pool
}

func NewLockManager(pool *pgxpool.Pool) *LockManager { return &LockManager{pool: pool} }

// hashKey converts a string key to a uint32 for advisory locks
func hashKey(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}

// Acquire obtains an exclusive advisory lock. Blocks until acquired.
// Advisory locks belong to a backend session, so the connection is held
// until the returned release func runs.
func (l *LockManager) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	k := int64(hashKey(key))
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection for lock %s: %w", key, err)
	}
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", k); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	return func(c context.Context) error {
		defer conn.Release()
		if _, err := conn.Exec(c, "SELECT pg_advisory_unlock($1)", k); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}, nil
}

// TryAcquire tries to obtain the lock without blocking.
func (l *LockManager) TryAcquire(ctx context.Context, key string) (bool, func(context.Context) error, error) {
	k := int64(hashKey(key))
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("failed to get connection for lock %s: %w", key, err)
	}
	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", k).Scan(&ok); err != nil {
		conn.Release()
		return false, nil, fmt.Errorf("failed to try lock %s: %w", key, err)
	}
	if !ok {
		conn.Release()
		return false, nil, nil
	}
	return true, func(c context.Context) error {
		defer conn.Release()
		if _, err := conn.Exec(c, "SELECT pg_advisory_unlock($1)", k); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}, nil
}
