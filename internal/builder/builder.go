package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-http-kit/httpkit"
	"golang.org/x/time/rate"

	"github.com/shouni/go-roomscape-kit/examples"
	"github.com/shouni/go-roomscape-kit/internal/config"
	"github.com/shouni/go-roomscape-kit/pkg/biome"
	"github.com/shouni/go-roomscape-kit/pkg/cache"
	"github.com/shouni/go-roomscape-kit/pkg/events"
	"github.com/shouni/go-roomscape-kit/pkg/generator"
	"github.com/shouni/go-roomscape-kit/pkg/imageio"
	"github.com/shouni/go-roomscape-kit/pkg/layout"
	"github.com/shouni/go-roomscape-kit/pkg/narrative"
	"github.com/shouni/go-roomscape-kit/pkg/placement"
	"github.com/shouni/go-roomscape-kit/pkg/prompts"
	"github.com/shouni/go-roomscape-kit/pkg/provider"
	"github.com/shouni/go-roomscape-kit/pkg/publisher"
	"github.com/shouni/go-roomscape-kit/pkg/room"
	"github.com/shouni/go-roomscape-kit/pkg/slicer"
	"github.com/shouni/go-roomscape-kit/pkg/speech"
	"github.com/shouni/go-roomscape-kit/pkg/sprite"
	"github.com/shouni/go-roomscape-kit/pkg/workflow"
)

// providerBurst は同時に送れるプロバイダ呼び出しの数です。
const providerBurst = 2

// BuildWorld はアート生成を伴わないコンポーネント（バイオーム、ルーム組み立て、キャッシュ）だけを構築します。
// API キーは不要です。
func BuildWorld(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{
		Config:    cfg,
		Events:    events.NewBus(),
		Publisher: publisher.NewRoomPublisher(publisher.LocalWriter{}),
	}

	registry, err := BuildRegistry(cfg.BiomeFile)
	if err != nil {
		return nil, err
	}
	app.Biomes = registry

	assembler, err := BuildAssembler(cfg)
	if err != nil {
		return nil, err
	}
	app.Rooms = assembler

	store, err := cache.OpenStore(ctx, cfg.CacheBackend, cfg.CacheDSN)
	if err != nil {
		return nil, fmt.Errorf("キャッシュストアの初期化に失敗しました: %w", err)
	}
	app.onClose(store.Close)
	app.Cache = cache.NewAssetCache(store, cfg.Kit.CacheTTL, cfg.Kit.CacheCapacity)

	return app, nil
}

// BuildApp は BuildWorld に加えて、Gemini を使うアート生成系のコンポーネントを構築します。
func BuildApp(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	app, err := BuildWorld(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := wireArt(ctx, app); err != nil {
		if cerr := app.Close(); cerr != nil {
			slog.WarnContext(ctx, "リソースの解放に失敗しました", "error", cerr)
		}
		return nil, err
	}
	return app, nil
}

func wireArt(ctx context.Context, app *AppContext) error {
	cfg := app.Config
	kit := cfg.Kit

	models, err := provider.NewContentGenerator(ctx, kit.GeminiAPIKey)
	if err != nil {
		return err
	}

	fetcher := imageio.NewFetcher(httpkit.New(kit.RequestTimeout))
	images, err := provider.NewGeminiImageGenerator(models, kit.ImageModel, fetcher)
	if err != nil {
		return err
	}
	limiter := rate.NewLimiter(rate.Every(kit.RateInterval), providerBurst)

	composer := generator.NewPanoramaCompositor(
		images,
		prompts.NewPanoramaPromptBuilder(kit.StyleSuffix, kit.StoryContextBudget),
		app.Cache,
		limiter,
	)

	args := workflow.OrchestratorArgs{
		Rooms:    app.Rooms,
		Biomes:   app.Biomes,
		Composer: composer,
		Slicer:   slicer.NewSlicer(fetcher, kit.ViewportWidth, kit.ViewportHeight),
		Events:   app.Events,
	}
	if cfg.Options.Narrate {
		narrator, err := narrative.NewGeminiNarrator(ctx, kit.GeminiAPIKey, kit.GeminiModel, nil)
		if err != nil {
			return err
		}
		app.onClose(narrator.Close)
		args.Narrator = narrator
	}

	orchestrator, err := workflow.NewOrchestrator(args)
	if err != nil {
		return fmt.Errorf("オーケストレーターの初期化に失敗しました: %w", err)
	}
	app.Orchestrator = orchestrator

	app.Sprites = sprite.NewGenerator(images, app.Cache, limiter, sprite.Options{
		StyleSuffix:   kit.StyleSuffix,
		ContextBudget: kit.StoryContextBudget,
		SceneWidth:    kit.ViewportWidth,
		SceneHeight:   kit.ViewportHeight,
	})
	app.Speech = speech.NewCachedSynthesizer(
		provider.NewGeminiSpeechSynthesizer(models, kit.SpeechModel),
		app.Cache,
		kit.Voice,
	)
	return nil
}

// BuildRegistry はバイオーム定義を読み込みます。path が空の場合は埋め込みの定義を使います。
func BuildRegistry(path string) (*biome.Registry, error) {
	if path == "" {
		return biome.Parse(examples.BiomesYAML, "yaml")
	}
	return biome.LoadFile(path)
}

// BuildAssembler はレイアウト生成器と配置エンジンから Assembler を構築します。
func BuildAssembler(cfg *config.Config) (*room.Assembler, error) {
	kit := cfg.Kit
	layouts, err := layout.NewGenerator(layout.Options{
		Width:         kit.GridWidth,
		Height:        kit.GridHeight,
		TileSize:      kit.TileSize,
		MinPathLength: kit.EffectiveMinPathLength(),
	})
	if err != nil {
		return nil, fmt.Errorf("レイアウト生成器の初期化に失敗しました: %w", err)
	}
	return room.NewAssembler(layouts, placement.NewEngine(kit.Placement)), nil
}
