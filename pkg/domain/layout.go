package domain

import "strings"

// BiomeTag はタイルに付与される地形タグです。
type BiomeTag string

const (
	TagForest  BiomeTag = "forest"
	TagCave    BiomeTag = "cave"
	TagDesert  BiomeTag = "desert"
	TagRuins   BiomeTag = "ruins"
	TagSnow    BiomeTag = "snow"
	TagSwamp   BiomeTag = "swamp"
	TagVolcano BiomeTag = "volcano"
)

// Tile は生成後に変更されない1マスです。
type Tile struct {
	Walkable bool     `json:"walkable"`
	BiomeTag BiomeTag `json:"biome_tag"`
}

// Layout はルームの歩行可能なタイルグリッドと経路を保持します（TileMap とも呼びます）。
// PathPoints の全点は歩行可能タイル上にあり、入口から出口の順に並びます。
// 生成後は読み取り専用です。
type Layout struct {
	Tiles      [][]Tile   `json:"tiles"`
	TileSize   int        `json:"tile_size"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	PathPoints []Position `json:"path_points"`
	SpawnPoint Position   `json:"spawn_point"`
	Biome      *Biome     `json:"biome"`
}

// PixelWidth は横幅をピクセルで返します。
func (l *Layout) PixelWidth() int {
	return l.Width * l.TileSize
}

// PixelHeight は縦幅をピクセルで返します。
func (l *Layout) PixelHeight() int {
	return l.Height * l.TileSize
}

// TileAt はピクセル座標が含まれるタイルを返します。範囲外の場合は false です。
func (l *Layout) TileAt(p Position) (Tile, bool) {
	if l.TileSize <= 0 || p.X < 0 || p.Y < 0 {
		return Tile{}, false
	}
	x := int(p.X) / l.TileSize
	y := int(p.Y) / l.TileSize
	if y >= len(l.Tiles) || x >= len(l.Tiles[y]) {
		return Tile{}, false
	}
	return l.Tiles[y][x], true
}

// IsWalkable はピクセル座標が歩行可能タイル上かどうかを返します。
func (l *Layout) IsWalkable(p Position) bool {
	t, ok := l.TileAt(p)
	return ok && t.Walkable
}

// Entry は経路の始点です。
func (l *Layout) Entry() Position {
	if len(l.PathPoints) == 0 {
		return l.SpawnPoint
	}
	return l.PathPoints[0]
}

// Exit は経路の終点です。
func (l *Layout) Exit() Position {
	if len(l.PathPoints) == 0 {
		return l.SpawnPoint
	}
	return l.PathPoints[len(l.PathPoints)-1]
}

// ASCII はタイルグリッドを文字列で描画します。'#' は壁、'.' は床、'@' はスポーン、'>' は出口です。
func (l *Layout) ASCII() string {
	var sb strings.Builder
	spawnX, spawnY := l.tileIndex(l.SpawnPoint)
	exitX, exitY := l.tileIndex(l.Exit())
	for y, row := range l.Tiles {
		for x, t := range row {
			switch {
			case x == spawnX && y == spawnY:
				sb.WriteByte('@')
			case x == exitX && y == exitY:
				sb.WriteByte('>')
			case t.Walkable:
				sb.WriteByte('.')
			default:
				sb.WriteByte('#')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (l *Layout) tileIndex(p Position) (int, int) {
	if l.TileSize <= 0 {
		return -1, -1
	}
	return int(p.X) / l.TileSize, int(p.Y) / l.TileSize
}
