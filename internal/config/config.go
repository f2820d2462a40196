package config

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"

	kitconfig "github.com/shouni/go-roomscape-kit/pkg/config"
)

// デフォルト値の定義
const (
	DefaultCacheBackend = "file"
	DefaultCacheDSN     = ".roomscape/asset_cache.json"
	DefaultOutputDir    = "output"
	DefaultListenAddr   = ":8080"
	DefaultFormat       = "ascii"
)

// Config はアプリケーション全体の環境設定（APIキーやキャッシュの保存先）を保持する構造体です。
type Config struct {
	// Kit は pkg 配下の各コンポーネントに渡す設定です。
	Kit kitconfig.Config

	CacheBackend string
	CacheDSN     string
	BiomeFile    string

	Options RunOptions
}

// LoadConfig は .env と環境変数から設定を読み込みます。.env が無い場合は環境変数だけを使います。
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env を読み込みませんでした", "error", err)
	}

	kit := kitconfig.DefaultConfig()
	kit.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", "")
	kit.GeminiModel = envutil.GetEnv("GEMINI_MODEL", kitconfig.DefaultGeminiModel)
	kit.ImageModel = envutil.GetEnv("IMAGE_GEMINI_MODEL", kitconfig.DefaultImageModel)
	kit.SpeechModel = envutil.GetEnv("TTS_GEMINI_MODEL", kitconfig.DefaultSpeechModel)
	kit.Voice = envutil.GetEnv("TTS_VOICE", kitconfig.DefaultVoice)
	kit.StyleSuffix = envutil.GetEnv("STYLE_SUFFIX", kitconfig.DefaultStyleSuffix)
	kit.RateInterval = envDuration("RATE_INTERVAL", kitconfig.DefaultRateInterval)
	kit.CacheTTL = envDuration("CACHE_TTL", kitconfig.DefaultCacheTTL)
	kit.CacheCapacity = envInt("CACHE_CAPACITY", kitconfig.DefaultCacheCapacity)

	return &Config{
		Kit:          kit,
		CacheBackend: envutil.GetEnv("CACHE_BACKEND", DefaultCacheBackend),
		CacheDSN:     envutil.GetEnv("CACHE_DSN", DefaultCacheDSN),
		BiomeFile:    envutil.GetEnv("BIOME_FILE", ""),
	}
}

// RunOptions は CLI フラグから渡される実行時のパラメータです。
type RunOptions struct {
	// 生成対象
	StorySeed       int64    // --seed
	StartRoomNumber int      // --start
	RoomIDs         []string // --ids
	UseAnchor       bool     // --anchor
	PreviousScene   string   // --previous-scene: アンカーに使う画像（data URL / http / ファイル）

	// ストーリー文脈
	StoryContextFile string // --story-file
	Narrate          bool   // --narrate: 文脈が空のとき Gemini で生成する

	// 出力
	OutputDir string // --output-dir
	Format    string // --format: ascii / json

	// イベント配信
	ListenAddr string // --listen
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("環境変数の値を解釈できないため既定値を使います", "key", key, "value", raw, "error", err)
		return def
	}
	return d
}

func envInt(key string, def int) int {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("環境変数の値を解釈できないため既定値を使います", "key", key, "value", raw, "error", err)
		return def
	}
	return n
}
