package domain

import (
	"fmt"
	"strings"
)

// Biome は地形とテーマを表す記述子です。レイアウトの重み付けとプロンプト生成の両方に使います。
type Biome struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Tag        BiomeTag `json:"tag" yaml:"tag"`
	Keywords   []string `json:"keywords" yaml:"keywords"`
	VisualTone string   `json:"visual_tone" yaml:"visual_tone"`

	// Meander は1歩ごとに縦方向へ曲がる確率です (0.0-1.0)。
	Meander float64 `json:"meander" yaml:"meander"`
	// WidthVariance は経路が隣接タイルへ広がる確率です (0.0-1.0)。
	WidthVariance float64 `json:"width_variance" yaml:"width_variance"`

	Enemies []string `json:"enemies" yaml:"enemies"`
	NPCs    []string `json:"npcs" yaml:"npcs"`
	Items   []string `json:"items" yaml:"items"`
}

// Validate は生成前に必須項目を確認します。
func (b *Biome) Validate() error {
	if b == nil {
		return ErrMissingBiome
	}
	if b.ID == "" {
		return fmt.Errorf("%w: id is empty", ErrMissingBiome)
	}
	if b.Meander < 0 || b.Meander > 1 {
		return fmt.Errorf("biome %s: meander %.2f out of range [0,1]", b.ID, b.Meander)
	}
	if b.WidthVariance < 0 || b.WidthVariance > 1 {
		return fmt.Errorf("biome %s: width_variance %.2f out of range [0,1]", b.ID, b.WidthVariance)
	}
	return nil
}

// DisplayName は表示用の名前を返します。
func (b *Biome) DisplayName() string {
	if b.Name != "" {
		return b.Name
	}
	return b.ID
}

// Describe はプロンプトに埋め込むための一行説明です。
func (b *Biome) Describe() string {
	parts := []string{b.DisplayName()}
	if len(b.Keywords) > 0 {
		parts = append(parts, strings.Join(b.Keywords, ", "))
	}
	if b.VisualTone != "" {
		parts = append(parts, b.VisualTone)
	}
	return strings.Join(parts, "; ")
}
