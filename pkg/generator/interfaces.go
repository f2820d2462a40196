package generator

import (
	"context"
)

// ImageRequest は外部の画像生成プロバイダへの要求です。
type ImageRequest struct {
	Prompt          string
	SystemPrompt    string
	NegativePrompt  string
	TargetWidth     int
	TargetHeight    int
	AspectRatio     string
	ReferenceImages []string
}

// ImageResult は画像生成プロバイダの結果です。URL は data: URL または取得可能な参照です。
type ImageResult struct {
	URL string
}

// ImageGenerator は画像を1枚生成する外部プロバイダです。
// リトライはプロバイダ側の責務で、この層では行いません。
type ImageGenerator interface {
	Generate(ctx context.Context, req ImageRequest) (*ImageResult, error)
}
