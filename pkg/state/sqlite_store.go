package state

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	ref         TEXT PRIMARY KEY,
	snapshot_id TEXT NOT NULL,
	etag        TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	extra       BLOB,
	body        BLOB NOT NULL
);
`

// SQLiteStore keeps one row per Ref with the snapshot encoded as
// deterministic CBOR.
type SQLiteStore[T any] struct {
	pool *sqlitex.Pool
	path string
}

// SQLiteOptions configures OpenSQLiteStore.
type SQLiteOptions struct {
	// PoolSize defaults to 4.
	PoolSize int
}

func OpenSQLiteStore[T any](path string, opts SQLiteOptions) (*SQLiteStore[T], error) {
	if path == "" {
		return nil, fmt.Errorf("state: sqlite path is required")
	}
	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareSQLiteConn,
	})
	if err != nil {
		return nil, fmt.Errorf("state: open %s: %w", path, err)
	}
	return &SQLiteStore[T]{pool: pool, path: path}, nil
}

func prepareSQLiteConn(conn *sqlite.Conn) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("state: %s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, sqliteSchema, nil); err != nil {
		return fmt.Errorf("state: sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore[T]) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("state: close %s: %w", s.path, err)
	}
	return nil
}

func (s *SQLiteStore[T]) Load(ctx context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return zero, Meta{}, false, fmt.Errorf("state: load %q: %w", key, err)
	}
	defer s.pool.Put(conn)

	row, ok, err := selectSnapshot(conn, key)
	if err != nil || !ok {
		return zero, Meta{}, false, err
	}
	var snapshot T
	if err := cborDecMode.Unmarshal(row.body, &snapshot); err != nil {
		return zero, Meta{}, false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return snapshot, row.meta, true, nil
}

func (s *SQLiteStore[T]) Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (saved Meta, err error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return Meta{}, fmt.Errorf("state: save %q: %w", key, err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return Meta{}, fmt.Errorf("state: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	current, ok, err := selectSnapshot(conn, key)
	if err != nil {
		return Meta{}, err
	}
	if ok {
		if err := checkETag(meta.ETag, current.meta.ETag); err != nil {
			return Meta{}, err
		}
	}

	body, err := cborEncMode.Marshal(snapshot)
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode %q: %w", key, err)
	}
	stamped, err := stamp(snapshot, meta)
	if err != nil {
		return Meta{}, err
	}
	var extra any
	if len(stamped.Extra) > 0 {
		encoded, err := cborEncMode.Marshal(stamped.Extra)
		if err != nil {
			return Meta{}, fmt.Errorf("state: encode %q extra: %w", key, err)
		}
		extra = encoded
	}

	err = sqlitex.Execute(conn, `
		INSERT INTO snapshots (ref, snapshot_id, etag, updated_at, extra, body)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET
			snapshot_id = excluded.snapshot_id,
			etag = excluded.etag,
			updated_at = excluded.updated_at,
			extra = excluded.extra,
			body = excluded.body`,
		&sqlitex.ExecOptions{
			Args: []any{key, stamped.SnapshotID, stamped.ETag, stamped.UpdatedAt.Format(time.RFC3339Nano), extra, body},
		})
	if err != nil {
		return Meta{}, fmt.Errorf("state: save %q: %w", key, err)
	}
	return cloneMeta(stamped), nil
}

type sqliteRow struct {
	meta Meta
	body []byte
}

func selectSnapshot(conn *sqlite.Conn, key string) (sqliteRow, bool, error) {
	var (
		row   sqliteRow
		found bool
	)
	err := sqlitex.Execute(conn,
		"SELECT snapshot_id, etag, updated_at, extra, body FROM snapshots WHERE ref = ?",
		&sqlitex.ExecOptions{
			Args: []any{key},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				row.meta.SnapshotID = stmt.ColumnText(0)
				row.meta.ETag = stmt.ColumnText(1)
				updatedAt, err := time.Parse(time.RFC3339Nano, stmt.ColumnText(2))
				if err != nil {
					return fmt.Errorf("state: parse updated_at for %q: %w", key, err)
				}
				row.meta.UpdatedAt = updatedAt
				if !stmt.ColumnIsNull(3) {
					extra := columnBytes(stmt, 3)
					if err := cborDecMode.Unmarshal(extra, &row.meta.Extra); err != nil {
						return fmt.Errorf("state: decode %q extra: %w", key, err)
					}
				}
				row.body = columnBytes(stmt, 4)
				return nil
			},
		})
	if err != nil {
		return sqliteRow{}, false, fmt.Errorf("state: load %q: %w", key, err)
	}
	return row, found, nil
}

func columnBytes(stmt *sqlite.Stmt, col int) []byte {
	buf := make([]byte, stmt.ColumnLen(col))
	stmt.ColumnBytes(col, buf)
	return buf
}
