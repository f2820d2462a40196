package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// キーのプレフィックス。バックエンドを共有しても衝突しないように用途ごとに分けます。
const (
	PrefixPanorama = "panorama:"
	PrefixScene    = "scene:"
	PrefixSprite   = "sprite:"
	PrefixSpeech   = "speech:"
)

// Entry は永続化されるキャッシュエントリです。Timestamp はミリ秒の Unix 時刻です。
type Entry struct {
	URL       string `json:"url"`
	Identity  string `json:"identity"`
	Timestamp int64  `json:"timestamp"`
}

// CreatedAt は Timestamp を time.Time に変換します。
func (e Entry) CreatedAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

func encodeEntry(e Entry) (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("エントリのエンコードに失敗しました: %w", err)
	}
	return string(b), nil
}

func decodeEntry(s string) (Entry, error) {
	var e Entry
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return Entry{}, fmt.Errorf("エントリのデコードに失敗しました: %w", err)
	}
	if e.URL == "" {
		return Entry{}, fmt.Errorf("エントリに url がありません")
	}
	return e, nil
}

// HashKey は意味的な入力から内容アドレス型のキーを作ります。
// 同じ入力は常に同じキーになり、区切り文字を含む値同士でも衝突しません。
func HashKey(prefix string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s|", len(p), p)
	}
	return prefix + hex.EncodeToString(h.Sum(nil))[:32]
}

// Identity はエントリの識別用に入力を読みやすく連結します。
func Identity(parts ...string) string {
	return strings.Join(parts, "/")
}
