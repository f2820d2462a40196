package config

import (
	"time"
)

// デフォルト値の定義
const (
	DefaultGeminiModel = "gemini-3-flash-preview"
	DefaultImageModel  = "gemini-3-pro-image-preview"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"
	DefaultVoice       = "Kore"
	DefaultStyleSuffix = "painterly 2D side-scrolling game background, soft volumetric lighting, consistent color palette, readable walkable ground, no characters, no text, no UI, high resolution"

	DefaultGridWidth  = 20
	DefaultGridHeight = 16
	DefaultTileSize   = 50

	DefaultViewportWidth  = 1000
	DefaultViewportHeight = 800

	DefaultMinDistance    = 100.0
	DefaultMaxAttempts    = 20
	DefaultJitter         = 30.0
	DefaultSpawnClearance = 100.0

	DefaultCacheTTL      = 7 * 24 * time.Hour
	DefaultCacheCapacity = 50

	DefaultStoryContextBudget = 600
	DefaultRateInterval       = 10 * time.Second
	DefaultRequestTimeout     = 3 * time.Minute
)

// Config は Go Roomscape Kit の各コンポーネントを動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings ---
	GeminiAPIKey string
	GeminiModel  string
	ImageModel   string
	SpeechModel  string
	Voice        string

	// --- Layout Settings ---
	GridWidth  int
	GridHeight int
	TileSize   int
	// MinPathLength は経路の最小タイル数です。0 の場合は GridWidth + GridHeight/4 を使います。
	MinPathLength int

	// --- Placement Settings ---
	Placement PlacementConfig

	// --- Panorama Settings ---
	ViewportWidth      int
	ViewportHeight     int
	StyleSuffix        string
	StoryContextBudget int
	RateInterval       time.Duration

	// --- Cache Settings ---
	CacheTTL      time.Duration
	CacheCapacity int

	// --- Timeout ---
	RequestTimeout time.Duration
}

// PlacementConfig は配置エンジンの調整値です。タイルサイズに合わせて変更できます。
type PlacementConfig struct {
	MinDistance    float64
	MaxAttempts    int
	Jitter         float64
	SpawnClearance float64
}

// DefaultPlacementConfig は既定の配置調整値を返します。
func DefaultPlacementConfig() PlacementConfig {
	return PlacementConfig{
		MinDistance:    DefaultMinDistance,
		MaxAttempts:    DefaultMaxAttempts,
		Jitter:         DefaultJitter,
		SpawnClearance: DefaultSpawnClearance,
	}
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		GeminiModel:        DefaultGeminiModel,
		ImageModel:         DefaultImageModel,
		SpeechModel:        DefaultSpeechModel,
		Voice:              DefaultVoice,
		GridWidth:          DefaultGridWidth,
		GridHeight:         DefaultGridHeight,
		TileSize:           DefaultTileSize,
		Placement:          DefaultPlacementConfig(),
		ViewportWidth:      DefaultViewportWidth,
		ViewportHeight:     DefaultViewportHeight,
		StyleSuffix:        DefaultStyleSuffix,
		StoryContextBudget: DefaultStoryContextBudget,
		RateInterval:       DefaultRateInterval,
		CacheTTL:           DefaultCacheTTL,
		CacheCapacity:      DefaultCacheCapacity,
		RequestTimeout:     DefaultRequestTimeout,
	}
}

// EffectiveMinPathLength は設定値または既定式による最小経路長を返します。
func (c Config) EffectiveMinPathLength() int {
	if c.MinPathLength > 0 {
		return c.MinPathLength
	}
	return c.GridWidth + c.GridHeight/4
}
