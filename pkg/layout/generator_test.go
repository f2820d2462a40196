package layout

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/shouni/go-roomscape-kit/pkg/domain"
)

func testBiomes() []*domain.Biome {
	return []*domain.Biome{
		{ID: "straight", Tag: domain.TagDesert, Meander: 0, WidthVariance: 0},
		{ID: "forest", Tag: domain.TagForest, Meander: 0.35, WidthVariance: 0.3},
		{ID: "maze", Tag: domain.TagCave, Meander: 1, WidthVariance: 1},
	}
}

func mustGenerator(t *testing.T, opts Options) *Generator {
	t.Helper()
	g, err := NewGenerator(opts)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"標準", Options{Width: 20, Height: 16, TileSize: 50, MinPathLength: 24}, false},
		{"小さすぎるグリッド", Options{Width: 2, Height: 16, TileSize: 50}, true},
		{"タイルサイズ 0", Options{Width: 20, Height: 16, TileSize: 0}, true},
		{"最小長がタイル数超過", Options{Width: 4, Height: 4, TileSize: 10, MinPathLength: 17}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if tt.wantErr && !errors.Is(err, domain.ErrInvalidGrid) {
				t.Errorf("ErrInvalidGrid を期待しました: %v", err)
			}
		})
	}

	t.Run("最小長は幅まで引き上げる", func(t *testing.T) {
		g := mustGenerator(t, Options{Width: 10, Height: 5, TileSize: 10, MinPathLength: 3})
		if g.Options().MinPathLength != 10 {
			t.Errorf("min = %d", g.Options().MinPathLength)
		}
	})
}

func TestGenerate_Deterministic(t *testing.T) {
	g := mustGenerator(t, Options{Width: 20, Height: 16, TileSize: 50, MinPathLength: 24})
	for _, b := range testBiomes() {
		for _, room := range []int{0, 1, 7} {
			a, err := g.Generate(12345, room, b)
			if err != nil {
				t.Fatal(err)
			}
			c, err := g.Generate(12345, room, b)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(a, c) {
				t.Errorf("biome=%s room=%d: 同じ入力で異なるレイアウトになりました", b.ID, room)
			}
		}
	}

	t.Run("ルーム番号が違えば経路も変わる", func(t *testing.T) {
		b := testBiomes()[1]
		a, _ := g.Generate(1, 1, b)
		c, _ := g.Generate(1, 2, b)
		if reflect.DeepEqual(a.PathPoints, c.PathPoints) {
			t.Error("異なるルームで同じ経路になりました")
		}
	})
}

func TestGenerate_PathValidity(t *testing.T) {
	grids := []Options{
		{Width: 20, Height: 16, TileSize: 50, MinPathLength: 24},
		{Width: 5, Height: 5, TileSize: 10, MinPathLength: 20},
		{Width: 3, Height: 3, TileSize: 1},
	}
	for _, opts := range grids {
		g := mustGenerator(t, opts)
		min := g.Options().MinPathLength
		for _, b := range testBiomes() {
			for seed := int64(0); seed < 30; seed++ {
				lay, err := g.Generate(seed, int(seed%5), b)
				if err != nil {
					t.Fatal(err)
				}
				pts := lay.PathPoints
				if len(pts) < min {
					t.Fatalf("%dx%d %s seed=%d: len = %d < %d", opts.Width, opts.Height, b.ID, seed, len(pts), min)
				}
				if lay.SpawnPoint != pts[0] {
					t.Errorf("spawn %v != first %v", lay.SpawnPoint, pts[0])
				}
				ts := float64(opts.TileSize)
				if pts[0].X != ts/2 || pts[len(pts)-1].X != float64(opts.Width-1)*ts+ts/2 {
					t.Errorf("入口 %v / 出口 %v が端にありません", pts[0], pts[len(pts)-1])
				}
				for i, p := range pts {
					if !lay.IsWalkable(p) {
						t.Fatalf("point %d %v が歩行不可能です", i, p)
					}
					if i > 0 && math.Abs(p.DistanceTo(pts[i-1])-ts) > 1e-9 {
						t.Fatalf("point %d が前の点と隣接していません: %v -> %v", i, pts[i-1], p)
					}
					if tile, _ := lay.TileAt(p); tile.BiomeTag != b.Tag {
						t.Errorf("biome tag = %s", tile.BiomeTag)
					}
				}
			}
		}
	}
}

func TestGenerate_NoWidthVarianceOnlyPathWalkable(t *testing.T) {
	g := mustGenerator(t, Options{Width: 20, Height: 16, TileSize: 50, MinPathLength: 24})
	lay, err := g.Generate(99, 3, testBiomes()[0])
	if err != nil {
		t.Fatal(err)
	}
	onPath := map[domain.Position]bool{}
	for _, p := range lay.PathPoints {
		onPath[p] = true
	}
	walkable := 0
	for y := range lay.Tiles {
		for x := range lay.Tiles[y] {
			if lay.Tiles[y][x].Walkable {
				walkable++
				c := domain.Position{X: float64(x*50 + 25), Y: float64(y*50 + 25)}
				if !onPath[c] {
					t.Errorf("経路外のタイル (%d,%d) が歩行可能です", x, y)
				}
			}
		}
	}
	if walkable != len(onPath) {
		t.Errorf("walkable = %d, path tiles = %d", walkable, len(onPath))
	}
}

func TestGenerate_MissingBiome(t *testing.T) {
	g := mustGenerator(t, Options{Width: 20, Height: 16, TileSize: 50})
	if _, err := g.Generate(1, 1, nil); !errors.Is(err, domain.ErrMissingBiome) {
		t.Errorf("err = %v", err)
	}
}
