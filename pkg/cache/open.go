package cache

import (
	"context"
	"fmt"
	"strings"
)

// バックエンド名
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
)

// OpenStore は名前と DSN（ファイルパスまたは接続文字列）からストアを開きます。
func OpenStore(ctx context.Context, backend, dsn string) (Store, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend != BackendMemory && backend != "" && dsn == "" {
		return nil, fmt.Errorf("キャッシュバックエンド %q には DSN が必要です", backend)
	}
	switch backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(dsn)
	case BackendSQLite:
		return NewSQLiteStore(ctx, dsn)
	case BackendBolt:
		return NewBoltStore(dsn)
	case BackendPostgres:
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("未対応のキャッシュバックエンドです: %q", backend)
	}
}
