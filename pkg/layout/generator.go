package layout

import (
	"fmt"

	"github.com/shouni/go-roomscape-kit/pkg/domain"
	"github.com/shouni/go-roomscape-kit/pkg/rng"
)

// forcedTurnChance は最小経路長に届かない見込みのときに使う曲がり確率の下限です。
const forcedTurnChance = 0.6

// veerChance は直進した直後に縦方向の向きを反転する確率です。
const veerChance = 0.3

// Options はタイルグリッドの寸法です。
type Options struct {
	Width         int
	Height        int
	TileSize      int
	MinPathLength int
}

// Generator は入口（左端）から出口（右端）まで蛇行する1本の経路を掘るレイアウト生成器です。
type Generator struct {
	opts Options
}

// NewGenerator は寸法を検証して Generator を作成します。
func NewGenerator(opts Options) (*Generator, error) {
	if opts.Width < 3 || opts.Height < 3 {
		return nil, fmt.Errorf("%w: grid %dx%d is too small", domain.ErrInvalidGrid, opts.Width, opts.Height)
	}
	if opts.TileSize <= 0 {
		return nil, fmt.Errorf("%w: tile size %d", domain.ErrInvalidGrid, opts.TileSize)
	}
	if opts.MinPathLength < opts.Width {
		opts.MinPathLength = opts.Width
	}
	if opts.MinPathLength > opts.Width*opts.Height {
		return nil, fmt.Errorf("%w: min path length %d exceeds %d tiles", domain.ErrInvalidGrid, opts.MinPathLength, opts.Width*opts.Height)
	}
	return &Generator{opts: opts}, nil
}

// Options は検証済みの寸法を返します。
func (g *Generator) Options() Options {
	return g.opts
}

type cell struct{ x, y int }

// Generate はルームのシードから Layout を生成します。
func (g *Generator) Generate(storySeed int64, roomNumber int, biome *domain.Biome) (*domain.Layout, error) {
	return g.GenerateWith(rng.ForRoom(storySeed, roomNumber), biome)
}

// GenerateWith は与えられた乱数列を消費して Layout を生成します。
// 配置エンジンが同じ列の続きを使えるよう、ルーム組み立て時はこちらを呼びます。
func (g *Generator) GenerateWith(seq *rng.Sequence, biome *domain.Biome) (*domain.Layout, error) {
	if err := biome.Validate(); err != nil {
		return nil, err
	}

	path := g.carve(seq, biome)

	w, h := g.opts.Width, g.opts.Height
	walkable := make([][]bool, h)
	for y := range walkable {
		walkable[y] = make([]bool, w)
	}
	for _, c := range path {
		walkable[c.y][c.x] = true
	}
	g.widen(seq, biome, path, walkable)

	tiles := make([][]domain.Tile, h)
	for y := 0; y < h; y++ {
		tiles[y] = make([]domain.Tile, w)
		for x := 0; x < w; x++ {
			tiles[y][x] = domain.Tile{Walkable: walkable[y][x], BiomeTag: biome.Tag}
		}
	}

	points := make([]domain.Position, len(path))
	for i, c := range path {
		points[i] = g.center(c)
	}

	return &domain.Layout{
		Tiles:      tiles,
		TileSize:   g.opts.TileSize,
		Width:      w,
		Height:     h,
		PathPoints: points,
		SpawnPoint: points[0],
		Biome:      biome,
	}, nil
}

// carve は経路のタイル列を入口から順に返します。
func (g *Generator) carve(seq *rng.Sequence, biome *domain.Biome) []cell {
	w, h := g.opts.Width, g.opts.Height
	minLen := g.opts.MinPathLength

	band := h / 2
	if band < 1 {
		band = 1
	}
	cur := cell{x: 0, y: h/4 + seq.Intn(band)}
	vdir := 1
	if seq.Chance(0.5) {
		vdir = -1
	}

	path := []cell{cur}
	lastVertical := false

	for {
		if cur.x == w-1 {
			if len(path) >= minLen {
				break
			}
			// 出口列に早く着いた場合は終了せず、縦に折り返して最小長まで伸ばします
			if cur.y+vdir < 0 || cur.y+vdir >= h {
				vdir = -vdir
			}
			cur.y += vdir
			path = append(path, cur)
			lastVertical = true
			continue
		}

		p := biome.Meander
		need := minLen - len(path) - (w - 1 - cur.x)
		if need > 0 && p < forcedTurnChance {
			p = forcedTurnChance
		}

		turn := seq.Chance(p)
		if turn && (cur.y+vdir < 0 || cur.y+vdir >= h) {
			if lastVertical {
				// 直前が縦移動なら反転すると同じタイルに戻るため、先に横へ進みます
				turn = false
			}
			vdir = -vdir
		}

		if turn {
			cur.y += vdir
			lastVertical = true
		} else {
			cur.x++
			lastVertical = false
			if seq.Chance(veerChance) {
				vdir = -vdir
			}
		}
		path = append(path, cur)
	}
	return path
}

// widen はバイオームの幅揺らぎに従って経路の上下タイルを歩行可能にします。
// PathPoints には影響しません。
func (g *Generator) widen(seq *rng.Sequence, biome *domain.Biome, path []cell, walkable [][]bool) {
	if biome.WidthVariance <= 0 {
		return
	}
	h := g.opts.Height
	for _, c := range path {
		if !seq.Chance(biome.WidthVariance) {
			continue
		}
		dy := 1
		if seq.Chance(0.5) {
			dy = -1
		}
		ny := c.y + dy
		if ny >= 0 && ny < h {
			walkable[ny][c.x] = true
		}
	}
}

func (g *Generator) center(c cell) domain.Position {
	ts := float64(g.opts.TileSize)
	return domain.Position{
		X: float64(c.x)*ts + ts/2,
		Y: float64(c.y)*ts + ts/2,
	}
}
