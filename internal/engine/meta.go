package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Schema version metadata lives in a small key/value table. The key names
// match the upstream browser profile databases this store descends from,
// so existing files keep their version history across the rewrite.
const (
	metaTable            = "meta"
	metaKeyVersion       = "version"
	metaKeyCompatVersion = "last_compatible_version"
)

// querier is satisfied by *sql.Tx and *sql.DB.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// metaTableExists probes the schema for the metadata table.
func metaTableExists(ctx context.Context, q querier) (bool, error) {
	var found int
	row := q.QueryRowContext(ctx,
		`SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`, metaTable)
	if err := row.Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("probe meta table: %w", err)
	}
	return true, nil
}

// initMetaTable opens the metadata table, seeding it with the target
// versions when no table pre-exists. A pre-existing table keeps its stored
// versions untouched.
func initMetaTable(ctx context.Context, q querier, version, compatibleVersion int32) error {
	exists, err := metaTableExists(ctx, q)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if _, err := q.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
		   key TEXT NOT NULL PRIMARY KEY,
		   value TEXT NOT NULL
		 )`, metaTable)); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	if err := setMetaValue(ctx, q, metaKeyVersion, version); err != nil {
		return err
	}
	return setMetaValue(ctx, q, metaKeyCompatVersion, compatibleVersion)
}

// metaVersion reads the stored schema version.
func metaVersion(ctx context.Context, q querier) (int32, error) {
	return metaValue(ctx, q, metaKeyVersion)
}

// metaCompatibleVersion reads the stored minimum-compatible version.
func metaCompatibleVersion(ctx context.Context, q querier) (int32, error) {
	return metaValue(ctx, q, metaKeyCompatVersion)
}

// setMetaVersion rewrites the stored schema version.
func setMetaVersion(ctx context.Context, q querier, version int32) error {
	return setMetaValue(ctx, q, metaKeyVersion, version)
}

// setMetaCompatibleVersion rewrites the stored minimum-compatible version.
func setMetaCompatibleVersion(ctx context.Context, q querier, version int32) error {
	return setMetaValue(ctx, q, metaKeyCompatVersion, version)
}

func metaValue(ctx context.Context, q querier, key string) (int32, error) {
	var value int32
	row := q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, metaTable), key)
	if err := row.Scan(&value); err != nil {
		return 0, fmt.Errorf("read meta %s: %w", key, err)
	}
	return value, nil
}

func setMetaValue(ctx context.Context, q querier, key string, value int32) error {
	if _, err := q.ExecContext(ctx,
		fmt.Sprintf(`INSERT OR REPLACE INTO %s (key, value) VALUES (?, ?)`, metaTable),
		key, value); err != nil {
		return fmt.Errorf("write meta %s: %w", key, err)
	}
	return nil
}
