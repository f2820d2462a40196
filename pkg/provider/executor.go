package provider

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/shouni/gemini-image-kit/ports"
	"github.com/shouni/go-gemini-client/gemini"
	"google.golang.org/genai"
)

const defaultImageTemperature = float32(0.4)

// ReferenceFetcher は参照画像のバイナリを取得します。
type ReferenceFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// imageExecutor は ports.ImageExecutor を genai の GenerateContent で実装します。
// 参照画像は File API を使わず、インラインのバイナリとして送ります。
type imageExecutor struct {
	models  ContentGenerator
	fetcher ReferenceFetcher
}

var _ ports.ImageExecutor = (*imageExecutor)(nil)

func (e *imageExecutor) IsVertexAI() bool {
	return false
}

// PrepareImagePart は参照画像を取得してインラインのパートにします。
// 取得できない場合や画像でない場合は nil を返し、その参照は送られません。
func (e *imageExecutor) PrepareImagePart(ctx context.Context, rawURL string) *genai.Part {
	data, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		slog.WarnContext(ctx, "参照画像を取得できなかったため省略します", "error", err)
		return nil
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		slog.WarnContext(ctx, "参照画像が画像ではないため省略します", "mime_type", mimeType)
		return nil
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}

// ExecuteRequest は組み立て済みのパートで画像を1枚生成します。
func (e *imageExecutor) ExecuteRequest(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*ports.ImageResponse, error) {
	resp, err := e.models.GenerateContent(ctx, model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, toContentConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("画像生成 API の呼び出しに失敗しました: %w", err)
	}

	blob, text := firstInlineData(resp)
	if blob == nil {
		return nil, fmt.Errorf("画像が返されませんでした (finish_reason=%s, text=%q)", finishReason(resp), text)
	}
	mimeType := blob.MIMEType
	if mimeType == "" {
		mimeType = http.DetectContentType(blob.Data)
	}
	return &ports.ImageResponse{Data: blob.Data, MimeType: mimeType, UsedSeed: ports.DereferenceSeed(opts.Seed)}, nil
}

func toContentConfig(opts gemini.GenerateOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:        genai.Ptr(defaultImageTemperature),
		ResponseModalities: []string{"IMAGE", "TEXT"},
		SafetySettings:     opts.SafetySettings,
	}
	if opts.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: opts.SystemPrompt}}}
	}
	if opts.AspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: opts.AspectRatio}
	}
	if opts.Seed != nil {
		// genai のシードは int32 です。
		seed := int32(*opts.Seed % math.MaxInt32)
		cfg.Seed = &seed
	}
	return cfg
}
