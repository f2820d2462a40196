package room

import (
	"fmt"
	"strings"

	"github.com/shouni/go-roomscape-kit/pkg/domain"
	"github.com/shouni/go-roomscape-kit/pkg/layout"
	"github.com/shouni/go-roomscape-kit/pkg/placement"
	"github.com/shouni/go-roomscape-kit/pkg/rng"
)

// Spec は1ルームを組み立てるための入力です。
type Spec struct {
	ID         string
	StorySeed  int64
	RoomNumber int
	Biome      *domain.Biome
}

// Assembler はレイアウト生成と配置を1本の乱数列でつなぎ、RoomBase を組み立てます。
// Build は内部状態を持たないため、複数ゴルーチンから同時に呼べます。
type Assembler struct {
	layouts *layout.Generator
	placer  *placement.Engine
}

// NewAssembler は Assembler を作成します。
func NewAssembler(layouts *layout.Generator, placer *placement.Engine) *Assembler {
	return &Assembler{layouts: layouts, placer: placer}
}

// Build は Spec から RoomBase を作ります。アートはまだ含みません。
func (a *Assembler) Build(spec Spec) (domain.RoomBase, error) {
	if spec.ID == "" {
		return domain.RoomBase{}, fmt.Errorf("room id is required")
	}
	if spec.Biome == nil {
		return domain.RoomBase{}, fmt.Errorf("room %s: %w", spec.ID, domain.ErrMissingBiome)
	}

	seq := rng.ForRoom(spec.StorySeed, spec.RoomNumber)

	lay, err := a.layouts.GenerateWith(seq, spec.Biome)
	if err != nil {
		return domain.RoomBase{}, fmt.Errorf("room %s のレイアウト生成に失敗しました: %w", spec.ID, err)
	}

	roomType := placement.ClassifyRoom(seq, spec.RoomNumber)
	counts := placement.CountsFor(seq, roomType)

	entrance := domain.Entity{
		ID:              spec.ID + "-entrance",
		Name:            "Entrance",
		Position:        lay.SpawnPoint,
		Kind:            domain.KindEntrance,
		SpriteRef:       placement.SpriteRef(domain.KindEntrance, "entrance"),
		InteractionText: "The way you came in.",
	}
	exit := domain.Entity{
		ID:              spec.ID + "-exit",
		Name:            "Exit",
		Position:        lay.Exit(),
		Kind:            domain.KindExit,
		SpriteRef:       placement.SpriteRef(domain.KindExit, "exit"),
		InteractionText: "The path continues onward.",
	}

	res := a.placer.Place(seq, placement.Request{
		RoomID:     spec.ID,
		RoomNumber: spec.RoomNumber,
		PathPoints: lay.PathPoints,
		SpawnPoint: lay.SpawnPoint,
		Anchors:    []domain.Position{entrance.Position, exit.Position},
		Counts:     counts,
		Biome:      spec.Biome,
	})

	objects := make([]domain.Entity, 0, len(res.Placed)+2)
	objects = append(objects, entrance)
	objects = append(objects, res.Placed...)
	objects = append(objects, exit)

	return domain.RoomBase{
		ID:          spec.ID,
		Number:      spec.RoomNumber,
		Type:        roomType,
		Description: describe(spec.Biome, roomType),
		Layout:      lay,
		Objects:     objects,
	}, nil
}

func describe(b *domain.Biome, t domain.RoomType) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("A %s area of the %s", t, b.DisplayName()))
	if len(b.Keywords) > 0 {
		sb.WriteString(": ")
		sb.WriteString(strings.Join(b.Keywords, ", "))
	}
	sb.WriteString(".")
	return sb.String()
}
