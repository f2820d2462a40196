package cache

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// AssetCache は生成済みアセットの URL を TTL と容量上限付きで保持します。
// バックエンドのエラーはログに記録してミス扱いにし、呼び出し側へは返しません。
type AssetCache struct {
	store    Store
	ttl      time.Duration
	capacity int
	now      func() time.Time
	mu       sync.Mutex
}

// Option は AssetCache の設定を変更します。
type Option func(*AssetCache)

// WithClock は現在時刻の取得関数を差し替えます。テストで使います。
func WithClock(now func() time.Time) Option {
	return func(c *AssetCache) { c.now = now }
}

// NewAssetCache は AssetCache を作成します。ttl <= 0 や capacity <= 0 は無制限として扱います。
func NewAssetCache(store Store, ttl time.Duration, capacity int, opts ...Option) *AssetCache {
	c := &AssetCache{
		store:    store,
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get はキーに対応する URL を返します。期限切れや破損したエントリはミスとして削除されます。
func (c *AssetCache) Get(ctx context.Context, key string) (string, bool) {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.WarnContext(ctx, "キャッシュの読み込みに失敗しました", "key", key, "error", err)
		}
		return "", false
	}

	entry, err := decodeEntry(raw)
	if err != nil {
		slog.WarnContext(ctx, "破損したキャッシュエントリを破棄します", "key", key, "error", err)
		c.remove(ctx, key)
		return "", false
	}

	if c.expired(entry) {
		slog.DebugContext(ctx, "キャッシュエントリの有効期限切れ", "key", key)
		c.remove(ctx, key)
		return "", false
	}
	return entry.URL, true
}

// Set は URL を記録し、容量を超えた場合は書き込み時刻が最も古いものから削除します。
func (c *AssetCache) Set(ctx context.Context, key, url, identity string) {
	raw, err := encodeEntry(Entry{URL: url, Identity: identity, Timestamp: c.now().UnixMilli()})
	if err != nil {
		slog.WarnContext(ctx, "キャッシュの書き込みに失敗しました", "key", key, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Set(ctx, key, raw); err != nil {
		slog.WarnContext(ctx, "キャッシュの書き込みに失敗しました", "key", key, "error", err)
		return
	}
	c.evict(ctx, key)
}

// Delete はエントリを削除します。エラーはログに記録するだけです。
func (c *AssetCache) Delete(ctx context.Context, key string) {
	c.remove(ctx, key)
}

// Len は現在保存されているエントリ数を返します。
func (c *AssetCache) Len(ctx context.Context) int {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		slog.WarnContext(ctx, "キャッシュキーの列挙に失敗しました", "error", err)
		return 0
	}
	return len(keys)
}

// KeyedEntry は Entries が返すキー付きのエントリです。
type KeyedEntry struct {
	Key string
	Entry
	Expired bool
}

// Entries は全エントリを書き込み時刻の古い順に返します。破損したエントリは含みません。
func (c *AssetCache) Entries(ctx context.Context) []KeyedEntry {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		slog.WarnContext(ctx, "キャッシュキーの列挙に失敗しました", "error", err)
		return nil
	}
	out := make([]KeyedEntry, 0, len(keys))
	for _, k := range keys {
		raw, err := c.store.Get(ctx, k)
		if err != nil {
			continue
		}
		e, err := decodeEntry(raw)
		if err != nil {
			continue
		}
		out = append(out, KeyedEntry{Key: k, Entry: e, Expired: c.expired(e)})
	}
	sortOldestFirst(out)
	return out
}

// Purge は期限切れと破損したエントリを削除し、削除件数を返します。
func (c *AssetCache) Purge(ctx context.Context) int {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		slog.WarnContext(ctx, "キャッシュキーの列挙に失敗しました", "error", err)
		return 0
	}
	removed := 0
	for _, k := range keys {
		raw, err := c.store.Get(ctx, k)
		if err != nil {
			continue
		}
		e, err := decodeEntry(raw)
		if err != nil || c.expired(e) {
			if c.remove(ctx, k) {
				removed++
			}
		}
	}
	return removed
}

func (c *AssetCache) expired(e Entry) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(e.CreatedAt()) > c.ttl
}

func (c *AssetCache) remove(ctx context.Context, key string) bool {
	if err := c.store.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "キャッシュエントリの削除に失敗しました", "key", key, "error", err)
		return false
	}
	return true
}

// evict は容量超過分を削除します。c.mu を保持した状態で呼び出します。
// keep は直前に書き込んだキーで、時刻が同じでも削除対象にしません。
func (c *AssetCache) evict(ctx context.Context, keep string) {
	if c.capacity <= 0 {
		return
	}
	keys, err := c.store.Keys(ctx)
	if err != nil {
		slog.WarnContext(ctx, "キャッシュキーの列挙に失敗しました", "error", err)
		return
	}
	if len(keys) <= c.capacity {
		return
	}

	entries := make([]KeyedEntry, 0, len(keys))
	for _, k := range keys {
		raw, err := c.store.Get(ctx, k)
		if err != nil {
			continue
		}
		e, err := decodeEntry(raw)
		if err != nil {
			// 破損エントリは最優先で削除します
			c.remove(ctx, k)
			continue
		}
		entries = append(entries, KeyedEntry{Key: k, Entry: e})
	}
	sortOldestFirst(entries)

	excess := len(entries) - c.capacity
	for _, e := range entries {
		if excess <= 0 {
			break
		}
		if e.Key == keep {
			continue
		}
		slog.DebugContext(ctx, "容量超過のためキャッシュエントリを削除します", "key", e.Key)
		c.remove(ctx, e.Key)
		excess--
	}
}

func sortOldestFirst(entries []KeyedEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Timestamp != entries[j].Timestamp {
			return entries[i].Timestamp < entries[j].Timestamp
		}
		return entries[i].Key < entries[j].Key
	})
}
