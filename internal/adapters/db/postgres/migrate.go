package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// migrationLockKey guards schema changes across instances
const migrationLockKey = 42

type migration struct {
	version int
	path    string
}

// collectMigrations lists *.sql files in dir ordered by their numeric prefix
// (the part before the first underscore). Files without a numeric prefix are skipped.
func collectMigrations(dir string) ([]migration, error) {
	var out []migration
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sql") {
			return nil
		}
		prefix := strings.SplitN(d.Name(), "_", 2)[0]
		version, convErr := strconv.Atoi(prefix)
		if convErr != nil {
			return nil
		}
		out = append(out, migration{version: version, path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// RunMigrations applies pending migrations from dir, recording each version in schema_migrations.
func RunMigrations(ctx context.Context, db *sql.DB, dir string) error {
	migrations, err := collectMigrations(dir)
	if err != nil {
		return err
	}

	// pin one connection: the advisory lock is held by the backend session
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, migrationLockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockKey)
	}()

	applied := map[int]bool{}
	rows, err := conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err == nil { // if table doesn't exist that's okay (first migration creates it)
		for rows.Next() {
			var v int
			if err = rows.Scan(&v); err != nil {
				rows.Close()
				return err
			}
			applied[v] = true
		}
		rows.Close()
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		base := filepath.Base(m.path)
		sqlBytes, err := os.ReadFile(m.path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", base, err)
		}
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		if _, err = tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", base, err)
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", base, err)
		}
		if err = tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", base, err)
		}
		log.Info().Int("version", m.version).Str("file", base).Msg("applied migration")
	}
	return nil
}
