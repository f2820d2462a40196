// Package provider は Gemini (google.golang.org/genai) を画像生成と音声合成のプロバイダとして使うアダプターです。
package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// ContentGenerator は genai.Models のうち、このパッケージが使うメソッドです。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewContentGenerator は API キーから Gemini API クライアントを作成します。
func NewContentGenerator(ctx context.Context, apiKey string) (ContentGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY が設定されていません")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return client.Models, nil
}

// firstInlineData は最初の候補からバイナリのパートを探します。
func firstInlineData(resp *genai.GenerateContentResponse) (*genai.Blob, string) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ""
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData, text
		}
		text += part.Text
	}
	return nil, text
}

// finishReason は診断用に終了理由を返します。
func finishReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return "no candidates"
	}
	return string(resp.Candidates[0].FinishReason)
}
