package cache

import (
	"context"
	"errors"
)

// ErrNotFound はキーが存在しない場合に Store が返すエラーです。
var ErrNotFound = errors.New("cache: key not found")

// Store はキャッシュエントリを文字列として永続化するバックエンドです。
// 値の解釈（JSON デコード、TTL、容量）は AssetCache 側で行います。
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Keys は保存されている全キーを返します。順序は保証しません。
	Keys(ctx context.Context) ([]string, error)
	Close() error
}
