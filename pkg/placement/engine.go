package placement

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-roomscape-kit/pkg/config"
	"github.com/shouni/go-roomscape-kit/pkg/domain"
	"github.com/shouni/go-roomscape-kit/pkg/rng"
)

// Request は1ルーム分の配置要求です。
type Request struct {
	RoomID     string
	RoomNumber int
	PathPoints []domain.Position
	SpawnPoint domain.Position
	// Anchors は距離判定に含める既存の位置（出口など）です。
	Anchors []domain.Position
	Counts  Counts
	Biome   *domain.Biome
}

// Result はベストエフォート配置の結果です。Placed が Requested より少ないことがあります。
type Result struct {
	Placed    []domain.Entity
	Requested int
}

// Skipped は座標が見つからず配置を諦めた数です。
func (r Result) Skipped() int {
	return r.Requested - len(r.Placed)
}

// Engine は経路上の点にジッターを加えて、最小距離を保ちながらエンティティを配置します。
// 貪欲な乱択配置であり、大域的な最適性は保証しません。
type Engine struct {
	cfg config.PlacementConfig
}

// NewEngine は調整値から Engine を作成します。
// MinDistance と MaxAttempts は 0 以下、Jitter と SpawnClearance は負の場合に既定値を使います。
func NewEngine(cfg config.PlacementConfig) *Engine {
	def := config.DefaultPlacementConfig()
	if cfg.MinDistance <= 0 {
		cfg.MinDistance = def.MinDistance
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = def.Jitter
	}
	if cfg.SpawnClearance < 0 {
		cfg.SpawnClearance = def.SpawnClearance
	}
	return &Engine{cfg: cfg}
}

// Config は使用中の調整値を返します。
func (e *Engine) Config() config.PlacementConfig {
	return e.cfg
}

// Place は要求された敵・NPC・アイテムを順に配置します。
func (e *Engine) Place(seq *rng.Sequence, req Request) Result {
	candidates := e.candidates(req.PathPoints, req.SpawnPoint)

	occupied := make([]domain.Position, 0, len(req.Anchors)+req.Counts.Total())
	occupied = append(occupied, req.Anchors...)

	result := Result{Requested: req.Counts.Total()}
	serial := 0

	place := func(kind domain.EntityKind, n int) {
		for i := 0; i < n; i++ {
			serial++
			pos, ok := e.samplePosition(seq, candidates, occupied)
			if !ok {
				slog.Debug("配置を諦めました", "room_id", req.RoomID, "kind", kind, "attempts", e.cfg.MaxAttempts)
				continue
			}
			occupied = append(occupied, pos)
			result.Placed = append(result.Placed, newEntity(seq, req, kind, serial, pos))
		}
	}

	place(domain.KindEnemy, req.Counts.Enemies)
	place(domain.KindNPC, req.Counts.NPCs)
	place(domain.KindItem, req.Counts.Items)

	if result.Skipped() > 0 {
		slog.Debug("一部のエンティティを配置できませんでした",
			"room_id", req.RoomID, "placed", len(result.Placed), "requested", result.Requested)
	}
	return result
}

// candidates はスポーン付近（両軸とも SpawnClearance 以内）の点を除いた候補を返します。
func (e *Engine) candidates(points []domain.Position, spawn domain.Position) []domain.Position {
	out := make([]domain.Position, 0, len(points))
	for _, p := range points {
		if abs(p.X-spawn.X) <= e.cfg.SpawnClearance && abs(p.Y-spawn.Y) <= e.cfg.SpawnClearance {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (e *Engine) samplePosition(seq *rng.Sequence, candidates, occupied []domain.Position) (domain.Position, bool) {
	if len(candidates) == 0 {
		return domain.Position{}, false
	}
	for attempt := 0; attempt < e.cfg.MaxAttempts; attempt++ {
		base := candidates[seq.Intn(len(candidates))]
		pos := domain.Position{
			X: base.X + seq.Range(-e.cfg.Jitter, e.cfg.Jitter),
			Y: base.Y + seq.Range(-e.cfg.Jitter, e.cfg.Jitter),
		}
		if e.farEnough(pos, occupied) {
			return pos, true
		}
	}
	return domain.Position{}, false
}

func (e *Engine) farEnough(pos domain.Position, occupied []domain.Position) bool {
	for _, o := range occupied {
		if pos.DistanceTo(o) < e.cfg.MinDistance {
			return false
		}
	}
	return true
}

func newEntity(seq *rng.Sequence, req Request, kind domain.EntityKind, serial int, pos domain.Position) domain.Entity {
	var pool []string
	if req.Biome != nil {
		switch kind {
		case domain.KindEnemy:
			pool = req.Biome.Enemies
		case domain.KindNPC:
			pool = req.Biome.NPCs
		case domain.KindItem:
			pool = req.Biome.Items
		}
	}
	name, ok := rng.Pick(seq, pool)
	if !ok {
		name = defaultName(kind)
	}

	ent := domain.Entity{
		ID:              fmt.Sprintf("%s-%s-%d", req.RoomID, kind, serial),
		Name:            name,
		Position:        pos,
		Kind:            kind,
		SpriteRef:       SpriteRef(kind, name),
		InteractionText: interactionText(kind, name),
	}

	if kind == domain.KindEnemy {
		level := 1 + req.RoomNumber/2 + seq.Intn(2)
		ent.Level = &level
		if req.Biome != nil && seq.Chance(0.3) {
			if drop, ok := rng.Pick(seq, req.Biome.Items); ok {
				ent.ItemDrop = &drop
			}
		}
	}
	return ent
}

// SpriteRef はエンティティ名からスプライト参照IDを作ります。
func SpriteRef(kind domain.EntityKind, name string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(name), "_"))
	return fmt.Sprintf("%s/%s", kind, slug)
}

func defaultName(kind domain.EntityKind) string {
	switch kind {
	case domain.KindEnemy:
		return "Shadow"
	case domain.KindNPC:
		return "Traveler"
	case domain.KindItem:
		return "Curious Trinket"
	default:
		return string(kind)
	}
}

func interactionText(kind domain.EntityKind, name string) string {
	switch kind {
	case domain.KindEnemy:
		return fmt.Sprintf("A %s blocks the path.", name)
	case domain.KindNPC:
		return fmt.Sprintf("The %s looks up as you approach.", name)
	case domain.KindItem:
		return fmt.Sprintf("You found a %s.", name)
	default:
		return ""
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
