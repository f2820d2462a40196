package workflow

import (
	"context"

	"github.com/shouni/go-roomscape-kit/pkg/domain"
	"github.com/shouni/go-roomscape-kit/pkg/generator"
	"github.com/shouni/go-roomscape-kit/pkg/narrative"
	"github.com/shouni/go-roomscape-kit/pkg/prompts"
	"github.com/shouni/go-roomscape-kit/pkg/room"
)

// RoomBuilder はアートを含まない RoomBase を組み立てます。複数ゴルーチンから同時に呼ばれます。
type RoomBuilder interface {
	Build(spec room.Spec) (domain.RoomBase, error)
}

// BiomeSource はルーム番号に対応するバイオームを返します。
type BiomeSource interface {
	ForRoom(storySeed int64, roomNumber int) *domain.Biome
}

// PanoramaComposer はバッチ全体のパノラマ画像を1回の要求で生成します。
type PanoramaComposer interface {
	Plan(in generator.ComposeInput) (*domain.PanoramaRequest, error)
	Execute(ctx context.Context, req *domain.PanoramaRequest) (*domain.PanoramaResult, error)
	// Forget はスライスできなかったパノラマをキャッシュから取り除きます。
	Forget(ctx context.Context, cacheKey string)
}

// PanoramaSlicer はパノラマを左から右の順で n 枚に分割します。
type PanoramaSlicer interface {
	Slice(ctx context.Context, panoramaURL string, n int) ([]string, error)
}

// StoryNarrator はストーリーコンテキストのストリームを生成します。
type StoryNarrator interface {
	StreamStoryContext(ctx context.Context, data prompts.StoryContextData) (narrative.Stream, error)
}
