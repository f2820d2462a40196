package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver (cgo 不要)
)

// sqlDialect は SQL バックエンドごとの差分です。
type sqlDialect struct {
	driver string
	schema string
	get    string
	upsert string
	delete string
	keys   string
}

var sqliteDialect = sqlDialect{
	driver: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS asset_cache (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	get:    `SELECT value FROM asset_cache WHERE key = ?`,
	upsert: `INSERT INTO asset_cache (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
	delete: `DELETE FROM asset_cache WHERE key = ?`,
	keys:   `SELECT key FROM asset_cache`,
}

var postgresDialect = sqlDialect{
	driver: "postgres",
	schema: `CREATE TABLE IF NOT EXISTS asset_cache (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,
	get:    `SELECT value FROM asset_cache WHERE key = $1`,
	upsert: `INSERT INTO asset_cache (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()`,
	delete: `DELETE FROM asset_cache WHERE key = $1`,
	keys:   `SELECT key FROM asset_cache`,
}

// SQLStore は database/sql 経由でエントリを保存するストアです。
type SQLStore struct {
	db      *sql.DB
	dialect sqlDialect
}

// NewSQLiteStore は SQLite ファイルをバックエンドとするストアを作成します。
func NewSQLiteStore(ctx context.Context, path string) (*SQLStore, error) {
	return openSQLStore(ctx, sqliteDialect, path)
}

// NewPostgresStore は PostgreSQL をバックエンドとするストアを作成します。
func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	return openSQLStore(ctx, postgresDialect, dsn)
}

func openSQLStore(ctx context.Context, d sqlDialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("データベースのオープンに失敗しました (%s): %w", d.driver, err)
	}
	if d.driver == "sqlite" {
		// 単一ファイルへの同時書き込みによる SQLITE_BUSY を避けます
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベースへの接続に失敗しました (%s): %w", d.driver, err)
	}
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("スキーマの初期化に失敗しました (%s): %w", d.driver, err)
	}
	return &SQLStore{db: db, dialect: d}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, s.dialect.get, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("キャッシュ行の取得に失敗しました: %w", err)
	}
	return v, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, key, value); err != nil {
		return fmt.Errorf("キャッシュ行の保存に失敗しました: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.delete, key); err != nil {
		return fmt.Errorf("キャッシュ行の削除に失敗しました: %w", err)
	}
	return nil
}

func (s *SQLStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.keys)
	if err != nil {
		return nil, fmt.Errorf("キャッシュキーの列挙に失敗しました: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("キャッシュキーの読み取りに失敗しました: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
