package biome

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shouni/go-roomscape-kit/examples"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		format  string
		wantLen int
		wantErr bool
	}{
		{"YAML", "biomes:\n  - id: cave\n    meander: 0.5\n  - id: forest\n", "yaml", 2, false},
		{"JSON", `{"biomes":[{"id":"desert","width_variance":0.2}]}`, "json", 1, false},
		{"空の定義", "biomes: []\n", "yaml", 0, true},
		{"ID 重複", "biomes:\n  - id: a\n  - id: a\n", "yml", 0, true},
		{"範囲外の meander", "biomes:\n  - id: a\n    meander: 1.5\n", "yaml", 0, true},
		{"ID なし", "biomes:\n  - name: Nameless\n", "yaml", 0, true},
		{"未対応形式", "biomes: []", "toml", 0, true},
		{"壊れた JSON", "{", "json", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse([]byte(tt.data), tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if err == nil && r.Len() != tt.wantLen {
				t.Errorf("len = %d, want %d", r.Len(), tt.wantLen)
			}
		})
	}
}

func TestEmbeddedBiomes(t *testing.T) {
	r, err := Parse(examples.BiomesYAML, "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if r.Len() < 3 {
		t.Errorf("len = %d", r.Len())
	}
	for _, b := range r.All() {
		if len(b.Enemies) == 0 || len(b.NPCs) == 0 || len(b.Items) == 0 {
			t.Errorf("%s のエンティティ名が不足しています", b.ID)
		}
	}
	if b, ok := r.Get("whispering_forest"); !ok || b.DisplayName() == "" {
		t.Errorf("whispering_forest = %v, %v", b, ok)
	}
}

func TestRegistry_ForRoom(t *testing.T) {
	r, err := Parse(examples.BiomesYAML, "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if r.ForRoom(10, 4) != r.ForRoom(10, 4) {
		t.Error("同じ入力で異なるバイオームになりました")
	}
	if r.ForRoom(10, 3) != r.ForRoom(10, 5) {
		t.Error("3ルーム単位で同じバイオームが続くべきです")
	}
	all := r.All()
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Errorf("All が ID 順ではありません: %s, %s", all[i-1].ID, all[i].ID)
		}
	}

	empty, _ := NewRegistry(nil)
	if empty.ForRoom(1, 1) != nil {
		t.Error("空のレジストリは nil を返すべきです")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "biomes.json")
	if err := os.WriteFile(path, []byte(`{"biomes":[{"id":"snowfield","tag":"snow"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if b, ok := r.Get("snowfield"); !ok || b.Tag != "snow" {
		t.Errorf("snowfield = %+v", b)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("存在しないファイルでエラーになるべきです")
	}
}
