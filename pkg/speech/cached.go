// Package speech は音声合成の結果をキャッシュします。再生と設定 UI は外部の表示層が担当します。
package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/go-roomscape-kit/pkg/cache"
)

// Synthesizer は text を voice で読み上げた音声の参照（data URL など）を返します。
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (string, error)
}

// CachedSynthesizer は Synthesizer の結果を AssetCache に保存します。
type CachedSynthesizer struct {
	next  Synthesizer
	cache *cache.AssetCache
	voice string
}

// NewCachedSynthesizer は CachedSynthesizer を作成します。defaultVoice は voice が空の場合に使います。
func NewCachedSynthesizer(next Synthesizer, assetCache *cache.AssetCache, defaultVoice string) *CachedSynthesizer {
	return &CachedSynthesizer{next: next, cache: assetCache, voice: defaultVoice}
}

// Key は音声のキャッシュキーです。
func Key(text, voice string) string {
	return cache.HashKey(cache.PrefixSpeech, voice, strings.TrimSpace(text))
}

// Synthesize はキャッシュを確認し、無ければ合成して保存します。
func (s *CachedSynthesizer) Synthesize(ctx context.Context, text, voice string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("読み上げるテキストが空です")
	}
	if voice == "" {
		voice = s.voice
	}

	key := Key(text, voice)
	if url, ok := s.cache.Get(ctx, key); ok {
		return url, nil
	}
	url, err := s.next.Synthesize(ctx, text, voice)
	if err != nil {
		return "", err
	}
	s.cache.Set(ctx, key, url, cache.Identity(voice, text))
	return url, nil
}
