package biome

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shouni/go-roomscape-kit/pkg/domain"
	"github.com/shouni/go-roomscape-kit/pkg/rng"

	"gopkg.in/yaml.v3"
)

// Registry は読み込んだバイオーム定義を ID で管理します。
type Registry struct {
	biomes map[string]*domain.Biome
	order  []string
}

// definitionFile はバイオーム定義ファイルの最上位構造です。
type definitionFile struct {
	Biomes []domain.Biome `json:"biomes" yaml:"biomes"`
}

// NewRegistry は定義のスライスから Registry を構築します。ID の重複と不正値はエラーです。
func NewRegistry(defs []domain.Biome) (*Registry, error) {
	r := &Registry{biomes: make(map[string]*domain.Biome, len(defs))}
	for i := range defs {
		b := defs[i]
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("バイオーム定義 %d 件目が不正です: %w", i+1, err)
		}
		if _, exists := r.biomes[b.ID]; exists {
			return nil, fmt.Errorf("バイオーム ID が重複しています: %s", b.ID)
		}
		r.biomes[b.ID] = &b
		r.order = append(r.order, b.ID)
	}
	// マップの順序に依存しないよう ID 順に固定します
	sort.Strings(r.order)
	return r, nil
}

// Parse はバイト列をフォーマット ("yaml" または "json") に従ってパースします。
func Parse(data []byte, format string) (*Registry, error) {
	var file definitionFile
	switch strings.ToLower(format) {
	case "json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("バイオーム定義のJSONパースに失敗しました: %w", err)
		}
	case "yaml", "yml", "":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("バイオーム定義のYAMLパースに失敗しました: %w", err)
		}
	default:
		return nil, fmt.Errorf("未対応のバイオーム定義形式です: %s", format)
	}
	if len(file.Biomes) == 0 {
		return nil, fmt.Errorf("バイオーム定義が空です")
	}
	return NewRegistry(file.Biomes)
}

// LoadFile は拡張子から形式を判定してファイルを読み込みます。
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("バイオーム定義ファイルの読み込みに失敗しました: %w", err)
	}
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	return Parse(data, format)
}

// Get は ID に一致するバイオームを返します。
func (r *Registry) Get(id string) (*domain.Biome, bool) {
	b, ok := r.biomes[id]
	return b, ok
}

// All は ID 順の全バイオームを返します。
func (r *Registry) All() []*domain.Biome {
	out := make([]*domain.Biome, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.biomes[id])
	}
	return out
}

// Len は登録数です。
func (r *Registry) Len() int {
	return len(r.order)
}

// ForRoom はストーリーシードとルーム番号から決定論的にバイオームを選びます。
// 連続するルームで同じバイオームが続きやすいよう、3ルームごとに切り替えます。
func (r *Registry) ForRoom(storySeed int64, roomNumber int) *domain.Biome {
	if len(r.order) == 0 {
		return nil
	}
	seq := rng.New(storySeed + int64(roomNumber/3))
	return r.biomes[r.order[seq.Intn(len(r.order))]]
}
