package migrations

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const clickhouseLedger = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		name       String,
		checksum   String,
		applied_at DateTime64(3, 'UTC')
	) ENGINE = ReplacingMergeTree(applied_at)
	ORDER BY name`

// EnsureDatabase creates a database over a server-level connection.
func EnsureDatabase(ctx context.Context, admin driver.Conn, name string) error {
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("invalid clickhouse database name %q", name)
	}
	if err := admin.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+name); err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	return nil
}

// ApplyClickhouse applies every pending ClickHouse migration, one statement at a
// time, and records it in the ledger. ClickHouse has no transactional DDL, so a
// migration that fails halfway is retried from its first statement; every
// statement must be idempotent. Returns the names applied.
func ApplyClickhouse(ctx context.Context, conn driver.Conn) ([]string, error) {
	all, err := Load(Clickhouse)
	if err != nil {
		return nil, err
	}
	if err := conn.Exec(ctx, clickhouseLedger); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := clickhouseApplied(ctx, conn)
	if err != nil {
		return nil, err
	}
	todo, err := pending(all, applied)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(todo))
	for _, m := range todo {
		for _, stmt := range Statements(m.SQL) {
			if err := conn.Exec(ctx, stmt); err != nil {
				return names, fmt.Errorf("apply migration %s: %w", m.Name, err)
			}
		}
		if err := conn.Exec(ctx,
			`INSERT INTO schema_migrations (name, checksum, applied_at) VALUES (?, ?, ?)`,
			m.Name, m.Checksum, time.Now().UTC()); err != nil {
			return names, fmt.Errorf("record migration %s: %w", m.Name, err)
		}
		names = append(names, m.Name)
	}
	return names, nil
}

func clickhouseApplied(ctx context.Context, conn driver.Conn) (map[string]string, error) {
	rows, err := conn.Query(ctx, `SELECT name, checksum FROM schema_migrations FINAL`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]string)
	for rows.Next() {
		var name, sum string
		if err := rows.Scan(&name, &sum); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[name] = sum
	}
	return applied, rows.Err()
}
