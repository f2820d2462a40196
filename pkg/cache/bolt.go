package cache

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var assetBucket = []byte("asset_cache")

// BoltStore は bbolt の単一バケットにエントリを保存します。
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore は BoltStore を作成します。
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt データベースのオープンに失敗しました: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(assetBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt バケットの作成に失敗しました: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(_ context.Context, key string) (string, error) {
	var v string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(assetBucket).Get([]byte(key))
		if b == nil {
			return ErrNotFound
		}
		v = string(b)
		return nil
	})
	return v, err
}

func (s *BoltStore) Set(_ context.Context, key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(assetBucket).Put([]byte(key), []byte(value))
	})
}

func (s *BoltStore) Delete(_ context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(assetBucket).Delete([]byte(key))
	})
}

func (s *BoltStore) Keys(_ context.Context) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(assetBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
