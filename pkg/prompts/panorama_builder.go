package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-roomscape-kit/pkg/domain"
)

const (
	// PanoramaSystemInstruction は全パノラマ共通の作画指示です。
	PanoramaSystemInstruction = "You are a master environment artist for a 2D exploration game. You MUST paint ONE continuous scene. Section boundaries are invisible: ground, horizon and lighting flow without seams."

	// PanoramaStructureHeader はパノラマの構造に関する基本ルールを定義します。
	PanoramaStructureHeader = `### FORMAT RULES: SEAMLESS HORIZONTAL PANORAMA ###
- OUTPUT: ONE single wide image. NOT a collage, NOT panels, NO borders, NO gutters.
- HORIZON: One shared horizon line across the full width.
- PATH: One continuous walkable path from the left edge to the right edge.
- SECTIONS: The image is divided into equal-width vertical sections, one per area, left to right.
- NO CHARACTERS: Do not draw people, creatures, items, text or UI.`

	// AnchorInstruction は前のシーン画像を参照する場合の指示です。
	AnchorInstruction = "### STYLE ANCHOR ###\n- Match the palette, brush style, lighting and horizon height of input_file_1 exactly. The LEFT edge of this image continues the RIGHT edge of input_file_1."

	// NegativePanoramaPrompt は生成から除外したい要素です。
	NegativePanoramaPrompt = "visible seams, split panels, frames, borders, collage, characters, text, watermark, signature, UI elements, blurry, low quality"

	ellipsis = "..."
)

// PanoramaInput はパノラマプロンプトの入力です。
type PanoramaInput struct {
	Rooms        []domain.RoomBase
	Profile      PathProfile
	StoryContext string
	AspectRatio  string
	Width        int
	Height       int
	HasAnchor    bool
}

// PanoramaPromptBuilder はバッチ全体で1枚のパノラマを生成するプロンプトを構築します。
type PanoramaPromptBuilder struct {
	styleSuffix   string
	contextBudget int
}

// NewPanoramaPromptBuilder は PanoramaPromptBuilder を作成します。
func NewPanoramaPromptBuilder(styleSuffix string, contextBudget int) *PanoramaPromptBuilder {
	return &PanoramaPromptBuilder{styleSuffix: styleSuffix, contextBudget: contextBudget}
}

// Build はユーザープロンプト、システムプロンプト、否定プロンプトを返します。同じ入力からは常に同じ内容になります。
func (pb *PanoramaPromptBuilder) Build(in PanoramaInput) ImagePrompt {
	parts := []string{PanoramaStructureHeader}
	if pb.styleSuffix != "" {
		parts = append(parts, fmt.Sprintf("### ARTISTIC STYLE ###\n%s", pb.styleSuffix))
	}
	if in.HasAnchor {
		parts = append(parts, AnchorInstruction)
	}

	var us strings.Builder
	n := len(in.Rooms)
	us.WriteString("# PANORAMA PRODUCTION REQUEST\n")
	us.WriteString(fmt.Sprintf("- ASPECT RATIO: %s (%dx%d pixels).\n", in.AspectRatio, in.Width, in.Height))
	us.WriteString(fmt.Sprintf("- SECTION COUNT: [ %d ] equal-width sections.\n\n", n))

	us.WriteString("## AREAS (LEFT TO RIGHT)\n")
	for i, r := range in.Rooms {
		biome := "unknown terrain"
		if r.Layout != nil && r.Layout.Biome != nil {
			biome = r.Layout.Biome.Describe()
		}
		us.WriteString(fmt.Sprintf("### SECTION %d [%s]\n", i+1, r.ID))
		us.WriteString(fmt.Sprintf("- BIOME: %s\n", sanitizeInline(biome)))
		us.WriteString(fmt.Sprintf("- SCENE: %s\n", sanitizeInline(r.Description)))
	}
	us.WriteString("\n")

	us.WriteString(in.Profile.Describe())

	if ctx := TruncateContext(sanitizeInline(in.StoryContext), pb.contextBudget); ctx != "" {
		us.WriteString("\n## STORY CONTEXT (MOOD ONLY, DO NOT RENDER TEXT)\n")
		us.WriteString(fmt.Sprintf("- %s\n", ctx))
	}

	parts = append(parts, us.String())
	return ImagePrompt{
		Prompt:         strings.Join(parts, "\n\n"),
		SystemPrompt:   PanoramaSystemInstruction,
		NegativePrompt: NegativePanoramaPrompt,
	}
}

// TruncateContext は文字数（rune 単位）を budget に収めます。budget <= 0 なら切り詰めません。
func TruncateContext(s string, budget int) string {
	if budget <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	if budget <= len(ellipsis) {
		return string(runes[:budget])
	}
	return strings.TrimSpace(string(runes[:budget-len(ellipsis)])) + ellipsis
}

// sanitizeInline は文字列をプロンプトに埋め込む前の最低限の正規化を行います。
func sanitizeInline(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}
