package provider

import (
	"context"
	"fmt"
	"log/slog"

	imagegen "github.com/shouni/gemini-image-kit/generator"
	"github.com/shouni/gemini-image-kit/ports"

	"github.com/shouni/go-roomscape-kit/pkg/generator"
	"github.com/shouni/go-roomscape-kit/pkg/imageio"
)

// GeminiImageGenerator は generator.ImageGenerator を gemini-image-kit と Gemini の画像モデルで実装します。
type GeminiImageGenerator struct {
	kit   *imagegen.GeminiGenerator
	model string
}

// NewGeminiImageGenerator は GeminiImageGenerator を作成します。
func NewGeminiImageGenerator(models ContentGenerator, model string, fetcher ReferenceFetcher) (*GeminiImageGenerator, error) {
	kit, err := imagegen.NewGeminiGenerator(&imageExecutor{models: models, fetcher: fetcher})
	if err != nil {
		return nil, fmt.Errorf("画像生成器の初期化に失敗しました: %w", err)
	}
	return &GeminiImageGenerator{kit: kit, model: model}, nil
}

// Generate はプロンプトと参照画像から1枚の画像を生成し、data URL として返します。
func (g *GeminiImageGenerator) Generate(ctx context.Context, req generator.ImageRequest) (*generator.ImageResult, error) {
	images := make([]ports.ImageURI, 0, len(req.ReferenceImages))
	for _, ref := range req.ReferenceImages {
		images = append(images, ports.ImageURI{ReferenceURL: ref})
	}

	slog.DebugContext(ctx, "画像生成を要求します",
		"model", g.model, "aspect_ratio", req.AspectRatio, "references", len(images))

	resp, err := g.kit.GenerateMangaPage(ctx, ports.ImagePageRequest{
		GenerationOptions: ports.GenerationOptions{
			Model:          g.model,
			Prompt:         req.Prompt,
			SystemPrompt:   req.SystemPrompt,
			NegativePrompt: req.NegativePrompt,
			AspectRatio:    req.AspectRatio,
		},
		Images: images,
	})
	if err != nil {
		return nil, err
	}
	return &generator.ImageResult{URL: imageio.EncodeDataURL(resp.MimeType, resp.Data)}, nil
}
