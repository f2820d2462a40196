package provider

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/shouni/go-roomscape-kit/pkg/generator"
	"github.com/shouni/go-roomscape-kit/pkg/imageio"
)

type fakeModels struct {
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.contents = contents
	f.config = cfg
	return f.resp, f.err
}

func blobResponse(mime string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here you go"},
				{InlineData: &genai.Blob{MIMEType: mime, Data: data}},
			}},
		}},
	}
}

// pngHeader は http.DetectContentType が image/png と判定する最小のバイト列です。
var pngHeader = []byte("\x89PNG\r\n\x1a\nANCHOR")

func newTestImageGenerator(t *testing.T, models ContentGenerator, model string) *GeminiImageGenerator {
	t.Helper()
	g, err := NewGeminiImageGenerator(models, model, imageio.NewFetcher(nil))
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGeminiImageGenerator_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("画像を data URL で返し参照画像を先頭に渡す", func(t *testing.T) {
		models := &fakeModels{resp: blobResponse("image/png", []byte("PNGDATA"))}
		g := newTestImageGenerator(t, models, "image-model")

		res, err := g.Generate(ctx, generator.ImageRequest{
			Prompt:          "panorama",
			AspectRatio:     "16:9",
			ReferenceImages: []string{imageio.EncodeDataURL("image/png", pngHeader)},
		})
		if err != nil {
			t.Fatal(err)
		}
		if res.URL != imageio.EncodeDataURL("image/png", []byte("PNGDATA")) {
			t.Errorf("url = %s", res.URL)
		}
		parts := models.contents[0].Parts
		if len(parts) != 2 || parts[0].InlineData == nil || parts[1].Text != "panorama" {
			t.Errorf("parts = %+v", parts)
		}
		if parts[0].InlineData.MIMEType != "image/png" {
			t.Errorf("mime = %s", parts[0].InlineData.MIMEType)
		}
		if models.config.ImageConfig == nil || models.config.ImageConfig.AspectRatio != "16:9" {
			t.Errorf("config = %+v", models.config)
		}
		if models.config.SystemInstruction != nil {
			t.Errorf("システム指示が無いのに設定されています: %+v", models.config.SystemInstruction)
		}
		if len(models.config.SafetySettings) == 0 {
			t.Error("安全設定が渡されていません")
		}
	})

	t.Run("システム指示と否定プロンプトを分けて渡す", func(t *testing.T) {
		models := &fakeModels{resp: blobResponse("image/png", []byte("PNGDATA"))}
		g := newTestImageGenerator(t, models, "image-model")

		_, err := g.Generate(ctx, generator.ImageRequest{
			Prompt:         "panorama",
			SystemPrompt:   "You are a level artist.",
			NegativePrompt: "text, watermark",
		})
		if err != nil {
			t.Fatal(err)
		}
		si := models.config.SystemInstruction
		if si == nil || len(si.Parts) != 1 || si.Parts[0].Text != "You are a level artist." {
			t.Errorf("system instruction = %+v", si)
		}
		parts := models.contents[0].Parts
		if len(parts) != 1 || parts[0].Text != "panorama\n\n[Negative Prompt]\ntext, watermark" {
			t.Errorf("parts = %+v", parts)
		}
		if strings.Contains(parts[0].Text, "level artist") {
			t.Error("システム指示がユーザープロンプトに混ざっています")
		}
	})

	t.Run("取得できない参照画像は省略する", func(t *testing.T) {
		models := &fakeModels{resp: blobResponse("image/png", []byte("PNGDATA"))}
		g := newTestImageGenerator(t, models, "m")

		_, err := g.Generate(ctx, generator.ImageRequest{
			Prompt:          "p",
			ReferenceImages: []string{"/nonexistent/anchor.png", imageio.EncodeDataURL("text/plain", []byte("hello"))},
		})
		if err != nil {
			t.Fatal(err)
		}
		if parts := models.contents[0].Parts; len(parts) != 1 || parts[0].Text != "p" {
			t.Errorf("parts = %+v", parts)
		}
	})

	t.Run("画像が無ければエラー", func(t *testing.T) {
		models := &fakeModels{resp: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "refused"}}}, FinishReason: genai.FinishReasonSafety}},
		}}
		g := newTestImageGenerator(t, models, "m")
		_, err := g.Generate(ctx, generator.ImageRequest{Prompt: "p"})
		if err == nil || !strings.Contains(err.Error(), "refused") {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("API エラー", func(t *testing.T) {
		boom := errors.New("429")
		g := newTestImageGenerator(t, &fakeModels{err: boom}, "m")
		if _, err := g.Generate(ctx, generator.ImageRequest{Prompt: "p"}); !errors.Is(err, boom) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("モデル未指定はエラー", func(t *testing.T) {
		models := &fakeModels{}
		g := newTestImageGenerator(t, models, "")
		if _, err := g.Generate(ctx, generator.ImageRequest{Prompt: "p"}); err == nil {
			t.Error("エラーを期待しました")
		}
		if models.contents != nil {
			t.Error("API が呼ばれました")
		}
	})
}

func TestGeminiSpeechSynthesizer_Synthesize(t *testing.T) {
	ctx := context.Background()
	models := &fakeModels{resp: blobResponse("audio/L16;rate=24000", []byte{1, 2, 3})}
	s := NewGeminiSpeechSynthesizer(models, "tts-model")

	url, err := s.Synthesize(ctx, "Welcome, traveler.", "Kore")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(url, "data:audio/L16;rate=24000;base64,") {
		t.Errorf("url = %s", url)
	}
	if got := models.config.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; got != "Kore" {
		t.Errorf("voice = %s", got)
	}
}
