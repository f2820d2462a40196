package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/shouni/go-roomscape-kit/pkg/domain"
)

const storyContextTemplate = `You are the narrator of a room-based exploration game.
Write the atmosphere for the next stretch of the journey in at most {{.MaxWords}} words.
Plain prose only. No lists, no dialogue tags, no markdown.

AREAS AHEAD (in order):
{{range $i, $b := .Biomes}}- {{inc $i}}. {{$b.Describe}}
{{end}}{{if .Previous}}
STORY SO FAR:
{{.Previous}}
{{end}}`

// StoryContextData はナラティブ用テンプレートに渡すデータです。
type StoryContextData struct {
	Biomes   []*domain.Biome
	Previous string
	MaxWords int
}

// StoryContextPrompt はナラティブ生成用のテンプレートを保持します。
type StoryContextPrompt struct {
	tmpl *template.Template
}

// NewStoryContextPrompt はテンプレートを解析して StoryContextPrompt を作成します。
func NewStoryContextPrompt() (*StoryContextPrompt, error) {
	tmpl, err := template.New("story_context").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		Parse(storyContextTemplate)
	if err != nil {
		return nil, fmt.Errorf("ナラティブテンプレートの解析に失敗しました: %w", err)
	}
	return &StoryContextPrompt{tmpl: tmpl}, nil
}

// Build はテンプレートを実行します。
func (p *StoryContextPrompt) Build(data StoryContextData) (string, error) {
	if data.MaxWords <= 0 {
		data.MaxWords = 80
	}
	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("ナラティブテンプレートの実行に失敗しました: %w", err)
	}
	return sb.String(), nil
}
