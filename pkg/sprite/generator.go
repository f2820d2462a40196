// Package sprite はエンティティのスプライトと、エンティティとの対面シーンを生成します。
package sprite

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/shouni/go-roomscape-kit/pkg/cache"
	"github.com/shouni/go-roomscape-kit/pkg/domain"
	"github.com/shouni/go-roomscape-kit/pkg/generator"
	"github.com/shouni/go-roomscape-kit/pkg/prompts"
)

const (
	spriteSize        = 512
	spriteAspectRatio = "1:1"
)

// Options はスプライト生成の設定です。
type Options struct {
	StyleSuffix   string
	ContextBudget int
	SceneWidth    int
	SceneHeight   int
}

// Generator はスプライトと対面シーンの生成器です。結果は AssetCache に保存されます。
type Generator struct {
	images  generator.ImageGenerator
	cache   *cache.AssetCache
	limiter *rate.Limiter
	opts    Options
	group   singleflight.Group
}

// NewGenerator は Generator を作成します。assetCache と limiter は nil でも構いません。
func NewGenerator(images generator.ImageGenerator, assetCache *cache.AssetCache, limiter *rate.Limiter, opts Options) *Generator {
	if opts.SceneWidth <= 0 || opts.SceneHeight <= 0 {
		opts.SceneWidth, opts.SceneHeight = 1000, 800
	}
	return &Generator{images: images, cache: assetCache, limiter: limiter, opts: opts}
}

// SpriteKey はスプライトのキャッシュキーです。同じ見た目になる入力は同じキーになります。
func (g *Generator) SpriteKey(ent domain.Entity, biome *domain.Biome) string {
	biomeID := ""
	if biome != nil {
		biomeID = biome.ID
	}
	level := ""
	if ent.Level != nil {
		level = fmt.Sprint(*ent.Level)
	}
	return cache.HashKey(cache.PrefixSprite, ent.SpriteRef, biomeID, level, g.opts.StyleSuffix)
}

// SceneKey は対面シーンのキャッシュキーです。スプライト識別子とコンテキストのハッシュを組み合わせます。
func (g *Generator) SceneKey(rm domain.Room, ent domain.Entity, storyContext string) string {
	ctxHash := cache.HashKey("", prompts.TruncateContext(storyContext, g.opts.ContextBudget))
	return cache.HashKey(cache.PrefixScene, rm.ID, ent.ID, ent.SpriteRef, ctxHash, rm.SceneImage)
}

// Sprite はエンティティのスプライト画像の URL を返します。
func (g *Generator) Sprite(ctx context.Context, ent domain.Entity, biome *domain.Biome) (string, error) {
	key := g.SpriteKey(ent, biome)
	return g.generate(ctx, key, cache.Identity(ent.SpriteRef), generator.ImageRequest{
		Prompt:         prompts.BuildSpritePrompt(ent, biome, g.opts.StyleSuffix),
		NegativePrompt: prompts.NegativeSpritePrompt,
		TargetWidth:    spriteSize,
		TargetHeight:   spriteSize,
		AspectRatio:    spriteAspectRatio,
	})
}

// InteractionScene はルームの中でエンティティと対面するシーン画像の URL を返します。
// ルームにシーン画像があれば背景のアンカーとして渡します。
func (g *Generator) InteractionScene(ctx context.Context, rm domain.Room, ent domain.Entity, storyContext string) (string, error) {
	var refs []string
	if rm.HasScene() {
		refs = []string{rm.SceneImage}
	}
	key := g.SceneKey(rm, ent, storyContext)
	return g.generate(ctx, key, cache.Identity(rm.ID, ent.ID), generator.ImageRequest{
		Prompt:          prompts.BuildInteractionPrompt(rm.RoomBase, ent, storyContext, g.opts.ContextBudget, len(refs) > 0),
		TargetWidth:     g.opts.SceneWidth,
		TargetHeight:    g.opts.SceneHeight,
		AspectRatio:     "5:4",
		ReferenceImages: refs,
	})
}

func (g *Generator) generate(ctx context.Context, key, identity string, req generator.ImageRequest) (string, error) {
	if g.cache != nil {
		if url, ok := g.cache.Get(ctx, key); ok {
			return url, nil
		}
	}

	val, err, _ := g.group.Do(key, func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		resp, err := g.images.Generate(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("画像生成に失敗しました (%s): %w", identity, err)
		}
		if resp == nil || strings.TrimSpace(resp.URL) == "" {
			return nil, fmt.Errorf("画像生成の結果が空です (%s)", identity)
		}
		if g.cache != nil {
			g.cache.Set(ctx, key, resp.URL, identity)
		}
		return resp.URL, nil
	})
	if err != nil {
		return "", err
	}
	url, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	return url, nil
}
