package narrative

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/shouni/go-roomscape-kit/pkg/prompts"
)

const narrativeTemperature = float32(0.9)

// StreamGenerator は genai.Models のうち、このパッケージが使うメソッドです。
type StreamGenerator interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// GeminiNarrator は Gemini のストリーミング応答からストーリーコンテキストを生成します。
type GeminiNarrator struct {
	models StreamGenerator
	model  string
	prompt prompts.NarrativePrompt
}

// NewGeminiNarrator は API キーからクライアントを作成して GeminiNarrator を初期化します。
// prompt が nil の場合は既定のテンプレートを使います。
func NewGeminiNarrator(ctx context.Context, apiKey, modelName string, prompt prompts.NarrativePrompt) (*GeminiNarrator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY が設定されていません")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("ナラティブ用クライアントの初期化に失敗しました: %w", err)
	}
	return NewGeminiNarratorWith(client.Models, modelName, prompt)
}

// NewGeminiNarratorWith は既存の StreamGenerator から GeminiNarrator を作成します。
func NewGeminiNarratorWith(models StreamGenerator, modelName string, prompt prompts.NarrativePrompt) (*GeminiNarrator, error) {
	if prompt == nil {
		p, err := prompts.NewStoryContextPrompt()
		if err != nil {
			return nil, err
		}
		prompt = p
	}
	return &GeminiNarrator{models: models, model: modelName, prompt: prompt}, nil
}

// StreamStoryContext はテンプレートからプロンプトを組み立て、応答をチャンク単位で返すストリームを開始します。
func (n *GeminiNarrator) StreamStoryContext(ctx context.Context, data prompts.StoryContextData) (Stream, error) {
	text, err := n.prompt.Build(data)
	if err != nil {
		return nil, err
	}
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(narrativeTemperature)}
	seq := n.models.GenerateContentStream(ctx, n.model, genai.Text(text), cfg)
	next, stop := iter.Pull2(seq)
	return &geminiStream{next: next, stop: stop}, nil
}

// Close は互換のために残しています。genai のクライアントには閉じる処理がありません。
func (n *GeminiNarrator) Close() error {
	return nil
}

// geminiStream は push 型の応答列を Next で1チャンクずつ取り出します。
// 終端またはエラーの時点で stop を呼び、以降は io.EOF を返します。
type geminiStream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
	done bool
}

func (s *geminiStream) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		s.finish()
		return "", err
	}
	if s.done {
		return "", io.EOF
	}
	resp, err, ok := s.next()
	if !ok {
		s.finish()
		return "", io.EOF
	}
	if err != nil {
		s.finish()
		return "", fmt.Errorf("ナラティブの受信に失敗しました: %w", err)
	}
	return responseText(resp), nil
}

func (s *geminiStream) finish() {
	if !s.done {
		s.done = true
		s.stop()
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	// 最初の候補のみを使います
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
