package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-roomscape-kit/pkg/domain"
)

// NegativeSpritePrompt はスプライト生成から除外したい要素です。
const NegativeSpritePrompt = "background scenery, floor, cast shadow on ground, text, watermark, multiple subjects, cropped body, blurry"

// BuildSpritePrompt はエンティティ単体のスプライト用プロンプトを作ります。
func BuildSpritePrompt(ent domain.Entity, biome *domain.Biome, styleSuffix string) string {
	var sb strings.Builder
	sb.WriteString("# GAME SPRITE REQUEST\n")
	sb.WriteString(fmt.Sprintf("- SUBJECT: %s (%s)\n", sanitizeInline(ent.Name), ent.Kind))
	if ent.Level != nil {
		sb.WriteString(fmt.Sprintf("- THREAT LEVEL: %d\n", *ent.Level))
	}
	if biome != nil {
		sb.WriteString(fmt.Sprintf("- WORLD: %s\n", sanitizeInline(biome.Describe())))
	}
	sb.WriteString("- FRAMING: full body, centered, side view facing right, plain transparent or flat white background.\n")
	if styleSuffix != "" {
		sb.WriteString(fmt.Sprintf("- STYLE: %s\n", styleSuffix))
	}
	return sb.String()
}

// BuildInteractionPrompt はプレイヤーとエンティティの対面シーン用プロンプトを作ります。
func BuildInteractionPrompt(room domain.RoomBase, ent domain.Entity, storyContext string, budget int, hasAnchor bool) string {
	var sb strings.Builder
	sb.WriteString("# INTERACTION SCENE REQUEST\n")
	sb.WriteString(fmt.Sprintf("- LOCATION: %s\n", sanitizeInline(room.Description)))
	sb.WriteString(fmt.Sprintf("- ENCOUNTER: the lantern-bearer meets %s (%s).\n", sanitizeInline(ent.Name), ent.Kind))
	if ent.InteractionText != "" {
		sb.WriteString(fmt.Sprintf("- MOMENT: %s\n", sanitizeInline(ent.InteractionText)))
	}
	if hasAnchor {
		sb.WriteString("- BACKGROUND: reuse the environment of input_file_1 exactly, closer camera.\n")
	}
	if ctx := TruncateContext(sanitizeInline(storyContext), budget); ctx != "" {
		sb.WriteString(fmt.Sprintf("- STORY CONTEXT: %s\n", ctx))
	}
	sb.WriteString("- NO TEXT, NO SPEECH BUBBLES, NO UI.\n")
	return sb.String()
}
