package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-roomscape-kit/pkg/domain"
	"github.com/shouni/go-roomscape-kit/pkg/events"
	"github.com/shouni/go-roomscape-kit/pkg/generator"
	"github.com/shouni/go-roomscape-kit/pkg/narrative"
	"github.com/shouni/go-roomscape-kit/pkg/prompts"
	"github.com/shouni/go-roomscape-kit/pkg/room"
)

// Orchestrator はルーム構築、パノラマ生成、スライス、テクスチャの割り当てを順に実行します。
type Orchestrator struct {
	rooms    RoomBuilder
	biomes   BiomeSource
	composer PanoramaComposer
	slicer   PanoramaSlicer
	narrator StoryNarrator
	events   events.Publisher
}

// OrchestratorArgs は Orchestrator の依存です。Narrator と Events は省略できます。
type OrchestratorArgs struct {
	Rooms    RoomBuilder
	Biomes   BiomeSource
	Composer PanoramaComposer
	Slicer   PanoramaSlicer
	Narrator StoryNarrator
	Events   events.Publisher
}

// NewOrchestrator は Orchestrator を初期化します。
func NewOrchestrator(args OrchestratorArgs) (*Orchestrator, error) {
	if args.Rooms == nil {
		return nil, fmt.Errorf("RoomBuilder は必須です")
	}
	if args.Biomes == nil {
		return nil, fmt.Errorf("BiomeSource は必須です")
	}
	if args.Composer == nil {
		return nil, fmt.Errorf("PanoramaComposer は必須です")
	}
	if args.Slicer == nil {
		return nil, fmt.Errorf("PanoramaSlicer は必須です")
	}
	pub := args.Events
	if pub == nil {
		pub = events.Discard{}
	}
	return &Orchestrator{
		rooms:    args.Rooms,
		biomes:   args.Biomes,
		composer: args.Composer,
		slicer:   args.Slicer,
		narrator: args.Narrator,
		events:   pub,
	}, nil
}

// GenerateRoomPair はちょうど2ルームを生成し、常にパノラマを要求します。
func (o *Orchestrator) GenerateRoomPair(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	return o.GenerateMultiRoomBatch(ctx, req, domain.MultiRoomConfig{NumRooms: 2})
}

// GenerateMultiRoomBatch は 2〜3 ルームを1枚のパノラマでまとめて生成します。
// ルーム数と ID 数の不一致は外部呼び出しの前にエラーを返します。
// アート生成の失敗はエラーとして返さず、シーン画像のないルームを返します。
func (o *Orchestrator) GenerateMultiRoomBatch(ctx context.Context, req BatchRequest, cfg domain.MultiRoomConfig) (*BatchResult, error) {
	if err := cfg.Validate(req.RoomIDs); err != nil {
		return nil, err
	}
	return o.run(ctx, req, cfg.UseAnchorImage)
}

// GenerateRoom は1ルームを生成し、ビューポートサイズのシーン画像を付与します。
// PreviousScene があればアンカー画像として使います。
func (o *Orchestrator) GenerateRoom(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if len(req.RoomIDs) != 1 {
		return nil, fmt.Errorf("%w: %d ids for 1 room", domain.ErrRoomIDMismatch, len(req.RoomIDs))
	}
	return o.run(ctx, req, true)
}

func (o *Orchestrator) run(ctx context.Context, req BatchRequest, useAnchor bool) (*BatchResult, error) {
	batchID := uuid.NewString()
	logger := slog.With("batch_id", batchID, "room_ids", req.RoomIDs)

	// 1. 全ルームのバイオームを解決（入力エラーは外部呼び出しの前に返す）
	specs, err := o.resolveSpecs(req)
	if err != nil {
		return nil, err
	}

	// 2. RoomBase を並列に構築
	bases, err := o.buildRooms(ctx, specs)
	if err != nil {
		return nil, err
	}
	logger.Info("ルームを構築しました", "count", len(bases))
	o.publish(batchID, events.RoomsBuilt, map[string]any{"room_ids": req.RoomIDs})

	result := &BatchResult{BatchID: batchID, Rooms: make([]domain.Room, len(bases))}
	for i, b := range bases {
		result.Rooms[i] = domain.Room{RoomBase: b, SceneImageLoading: true}
	}

	// 3〜4. パノラマ生成とスライス。失敗してもルームは返す
	pano, slices, err := o.generateArt(ctx, logger, batchID, req, specs, bases, useAnchor)
	for i := range result.Rooms {
		result.Rooms[i].SceneImageLoading = false
	}
	if err != nil {
		logger.Warn("アート生成に失敗したため、タイル描画用のルームを返します", "error", err)
		result.ArtErr = err
		o.publish(batchID, events.ArtFailed, map[string]any{"error": err.Error()})
		return result, nil
	}

	// 5. スライスを順番通りにルームへ割り当て
	for i := range result.Rooms {
		result.Rooms[i].SceneImage = slices[i]
	}
	pano.SliceURLs = slices
	result.Panorama = pano
	logger.Info("シーン画像を割り当てました", "cache_hit", pano.CacheHit)
	o.publish(batchID, events.ArtAttached, map[string]any{"room_ids": req.RoomIDs, "cache_hit": pano.CacheHit})
	return result, nil
}

func (o *Orchestrator) resolveSpecs(req BatchRequest) ([]room.Spec, error) {
	specs := make([]room.Spec, len(req.RoomIDs))
	for i, id := range req.RoomIDs {
		if id == "" {
			return nil, fmt.Errorf("room id at index %d is empty", i)
		}
		num := req.StartRoomNumber + i
		b := o.biomes.ForRoom(req.StorySeed, num)
		if b == nil {
			return nil, fmt.Errorf("room %s: %w", id, domain.ErrMissingBiome)
		}
		specs[i] = room.Spec{ID: id, StorySeed: req.StorySeed, RoomNumber: num, Biome: b}
	}
	return specs, nil
}

func (o *Orchestrator) buildRooms(ctx context.Context, specs []room.Spec) ([]domain.RoomBase, error) {
	bases := make([]domain.RoomBase, len(specs))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			b, err := o.rooms.Build(spec)
			if err != nil {
				return err
			}
			bases[i] = b
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return bases, nil
}

func (o *Orchestrator) generateArt(
	ctx context.Context,
	logger *slog.Logger,
	batchID string,
	req BatchRequest,
	specs []room.Spec,
	bases []domain.RoomBase,
	useAnchor bool,
) (*domain.PanoramaResult, []string, error) {
	storyContext := o.storyContext(ctx, logger, req, specs)

	in := generator.ComposeInput{Rooms: bases, StoryContext: storyContext}
	if useAnchor && req.PreviousScene != "" {
		in.AnchorImage = req.PreviousScene
	}

	plan, err := o.composer.Plan(in)
	if err != nil {
		return nil, nil, fmt.Errorf("パノラマ要求の構築に失敗しました: %w", err)
	}
	o.publish(batchID, events.PanoramaRequested, map[string]any{
		"cache_key": plan.CacheKey, "aspect_ratio": plan.AspectRatio, "anchored": in.AnchorImage != "",
	})

	pano, err := o.composer.Execute(ctx, plan)
	if err != nil {
		return nil, nil, err
	}
	if pano.CacheHit {
		o.publish(batchID, events.PanoramaCacheHit, map[string]any{"cache_key": plan.CacheKey})
	} else {
		o.publish(batchID, events.PanoramaGenerated, map[string]any{"cache_key": plan.CacheKey})
	}

	slices, err := o.slicer.Slice(ctx, pano.URL, len(bases))
	if err != nil {
		o.composer.Forget(ctx, plan.CacheKey)
		return nil, nil, fmt.Errorf("パノラマのスライスに失敗しました: %w", err)
	}
	if len(slices) != len(bases) {
		return nil, nil, fmt.Errorf("スライス数が一致しません: got %d, want %d", len(slices), len(bases))
	}
	return pano, slices, nil
}

// storyContext は要求に含まれるコンテキスト、無ければナレーターの出力を返します。
// ナレーターの失敗はプロンプトからコンテキストを省くだけで、アート生成は続行します。
func (o *Orchestrator) storyContext(ctx context.Context, logger *slog.Logger, req BatchRequest, specs []room.Spec) string {
	if req.StoryContext != "" || o.narrator == nil {
		return req.StoryContext
	}
	biomes := make([]*domain.Biome, len(specs))
	for i, s := range specs {
		biomes[i] = s.Biome
	}
	stream, err := o.narrator.StreamStoryContext(ctx, prompts.StoryContextData{Biomes: biomes})
	if err != nil {
		logger.Warn("ストーリーコンテキストの生成に失敗しました", "error", err)
		return ""
	}
	text, err := narrative.Collect(ctx, stream)
	if err != nil {
		logger.Warn("ストーリーコンテキストの受信に失敗しました", "error", err, "received", len(text))
	}
	return text
}

func (o *Orchestrator) publish(batchID string, t events.Type, data map[string]any) {
	o.events.Publish(events.Event{Type: t, BatchID: batchID, Data: data})
}
