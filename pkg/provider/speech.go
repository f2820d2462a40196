package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/shouni/go-roomscape-kit/pkg/imageio"
)

// GeminiSpeechSynthesizer は Gemini の TTS モデルで音声を合成します。
type GeminiSpeechSynthesizer struct {
	models ContentGenerator
	model  string
}

// NewGeminiSpeechSynthesizer は GeminiSpeechSynthesizer を作成します。
func NewGeminiSpeechSynthesizer(models ContentGenerator, model string) *GeminiSpeechSynthesizer {
	return &GeminiSpeechSynthesizer{models: models, model: model}
}

// Synthesize は text を voice で読み上げた音声を data URL で返します。
func (s *GeminiSpeechSynthesizer) Synthesize(ctx context.Context, text, voice string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
	resp, err := s.models.GenerateContent(ctx, s.model, genai.Text(text), cfg)
	if err != nil {
		return "", fmt.Errorf("音声合成 API の呼び出しに失敗しました: %w", err)
	}
	blob, _ := firstInlineData(resp)
	if blob == nil {
		return "", fmt.Errorf("音声が返されませんでした (finish_reason=%s)", finishReason(resp))
	}
	mimeType := blob.MIMEType
	if mimeType == "" {
		mimeType = "audio/L16;rate=24000"
	}
	return imageio.EncodeDataURL(mimeType, blob.Data), nil
}
