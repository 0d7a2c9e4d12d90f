package db

import (
	"context"
	"fmt"
)

// TryLock takes a session-level advisory lock named name on a dedicated
// connection. The returned release func unlocks and returns the connection.
func (d *DB) TryLock(ctx context.Context, name string) (func(), bool, error) {
	conn, err := d.Pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire connection for lock %s: %w", name, err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, name).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("failed to take lock %s: %w", name, err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	release := func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, name)
		conn.Release()
	}
	return release, true, nil
}
