package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-roomscape-kit/pkg/cache"
	"github.com/shouni/go-roomscape-kit/pkg/domain"
	"github.com/shouni/go-roomscape-kit/pkg/prompts"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// ComposeInput はパノラマ1枚分の入力です。
type ComposeInput struct {
	Rooms        []domain.RoomBase
	StoryContext string
	// AnchorImage は直前に描画したシーン画像です。空なら参照画像なしで生成します。
	AnchorImage string
}

// PanoramaCompositor は 1〜3 ルームを1回の画像生成要求にまとめます。
type PanoramaCompositor struct {
	images        ImageGenerator
	promptBuilder prompts.PanoramaPrompt
	cache         *cache.AssetCache
	limiter       *rate.Limiter
	group         singleflight.Group
}

// NewPanoramaCompositor は PanoramaCompositor を初期化します。assetCache と limiter は nil でも構いません。
func NewPanoramaCompositor(
	images ImageGenerator,
	pb prompts.PanoramaPrompt,
	assetCache *cache.AssetCache,
	limiter *rate.Limiter,
) *PanoramaCompositor {
	return &PanoramaCompositor{
		images:        images,
		promptBuilder: pb,
		cache:         assetCache,
		limiter:       limiter,
	}
}

// Plan は外部呼び出しを行わずに要求を組み立てます。ルーム数が不正な場合はエラーを返します。
func (pc *PanoramaCompositor) Plan(in ComposeInput) (*domain.PanoramaRequest, error) {
	n := len(in.Rooms)
	dims, err := DimensionsFor(n)
	if err != nil {
		return nil, err
	}

	ids := make([]string, n)
	for i, r := range in.Rooms {
		ids[i] = r.ID
	}

	profile := prompts.BuildPathProfile(in.Rooms)
	built := pc.promptBuilder.Build(prompts.PanoramaInput{
		Rooms:        in.Rooms,
		Profile:      profile,
		StoryContext: in.StoryContext,
		AspectRatio:  dims.AspectRatio,
		Width:        dims.Width,
		Height:       dims.Height,
		HasAnchor:    in.AnchorImage != "",
	})

	var refs []string
	if in.AnchorImage != "" {
		refs = []string{in.AnchorImage}
	}

	prefix := cache.PrefixPanorama
	if n == 1 {
		prefix = cache.PrefixScene
	}

	return &domain.PanoramaRequest{
		RoomIDs:         ids,
		PathDescription: profile.Describe(),
		Prompt:          built.Prompt,
		SystemPrompt:    built.SystemPrompt,
		NegativePrompt:  built.NegativePrompt,
		ReferenceImages: refs,
		Width:           dims.Width,
		Height:          dims.Height,
		AspectRatio:     dims.AspectRatio,
		CacheKey:        cache.HashKey(prefix, append([]string{built.Prompt, built.SystemPrompt, built.NegativePrompt}, refs...)...),
	}, nil
}

// Compose はキャッシュを確認し、無ければプロバイダに1回だけ要求してパノラマ URL を返します。
// 同じキーの要求が並行した場合は1回の呼び出しにまとめます。
func (pc *PanoramaCompositor) Compose(ctx context.Context, in ComposeInput) (*domain.PanoramaResult, error) {
	req, err := pc.Plan(in)
	if err != nil {
		return nil, err
	}
	return pc.Execute(ctx, req)
}

// Execute は組み立て済みの要求を実行します。
func (pc *PanoramaCompositor) Execute(ctx context.Context, req *domain.PanoramaRequest) (*domain.PanoramaResult, error) {
	if pc.cache != nil {
		if url, ok := pc.cache.Get(ctx, req.CacheKey); ok {
			slog.DebugContext(ctx, "パノラマをキャッシュから取得しました", "key", req.CacheKey, "rooms", req.RoomIDs)
			return &domain.PanoramaResult{Request: *req, URL: url, CacheHit: true}, nil
		}
	}

	val, err, _ := pc.group.Do(req.CacheKey, func() (interface{}, error) {
		// 待機中の他の呼び出し元も同じ結果を受け取るため、最初の呼び出し元の取り消しは伝えません。
		ctx := context.WithoutCancel(ctx)
		if pc.limiter != nil {
			if err := pc.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := pc.images.Generate(ctx, ImageRequest{
			Prompt:          req.Prompt,
			SystemPrompt:    req.SystemPrompt,
			NegativePrompt:  req.NegativePrompt,
			TargetWidth:     req.Width,
			TargetHeight:    req.Height,
			AspectRatio:     req.AspectRatio,
			ReferenceImages: req.ReferenceImages,
		})
		if err != nil {
			return nil, fmt.Errorf("パノラマ生成に失敗しました (rooms=%s): %w", strings.Join(req.RoomIDs, ","), err)
		}
		if resp == nil || resp.URL == "" {
			return nil, domain.ErrEmptyPanorama
		}

		if pc.cache != nil {
			pc.cache.Set(ctx, req.CacheKey, resp.URL, cache.Identity(req.RoomIDs...))
		}
		return resp.URL, nil
	})
	if err != nil {
		return nil, err
	}

	url, ok := val.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	return &domain.PanoramaResult{Request: *req, URL: url}, nil
}

// Forget はキャッシュ済みのパノラマを削除します。キャッシュが無い場合は何もしません。
func (pc *PanoramaCompositor) Forget(ctx context.Context, cacheKey string) {
	if pc.cache != nil {
		pc.cache.Delete(ctx, cacheKey)
	}
}
