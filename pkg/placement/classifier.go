package placement

import (
	"github.com/shouni/go-roomscape-kit/pkg/domain"
	"github.com/shouni/go-roomscape-kit/pkg/rng"
)

// Counts はルーム種別ごとに要求するエンティティ数です。
type Counts struct {
	Enemies int
	NPCs    int
	Items   int
}

// Total は要求数の合計です。
func (c Counts) Total() int {
	return c.Enemies + c.NPCs + c.Items
}

type countRange struct{ lo, hi int }

type typeProfile struct {
	enemies, npcs, items countRange
}

var profiles = map[domain.RoomType]typeProfile{
	domain.RoomCombat:   {enemies: countRange{2, 4}, npcs: countRange{0, 0}, items: countRange{0, 1}},
	domain.RoomPeaceful: {enemies: countRange{0, 0}, npcs: countRange{1, 2}, items: countRange{0, 1}},
	domain.RoomTreasure: {enemies: countRange{0, 1}, npcs: countRange{0, 0}, items: countRange{2, 3}},
	domain.RoomPuzzle:   {enemies: countRange{0, 0}, npcs: countRange{1, 1}, items: countRange{1, 2}},
	domain.RoomMixed:    {enemies: countRange{1, 2}, npcs: countRange{0, 1}, items: countRange{1, 1}},
}

// ClassifyRoom はルーム種別を疑似乱数で選びます。ルーム 0 は常に peaceful です。
// ルーム 0 でも乱数を1つ消費し、後続の配置が種別の決まり方に依存しないようにします。
func ClassifyRoom(seq *rng.Sequence, roomNumber int) domain.RoomType {
	t, _ := rng.Pick(seq, domain.AllRoomTypes)
	if roomNumber == 0 {
		return domain.RoomPeaceful
	}
	return t
}

// CountsFor はルーム種別に応じたエンティティ数を決めます。
func CountsFor(seq *rng.Sequence, t domain.RoomType) Counts {
	p, ok := profiles[t]
	if !ok {
		p = profiles[domain.RoomMixed]
	}
	return Counts{
		Enemies: seq.IntRange(p.enemies.lo, p.enemies.hi),
		NPCs:    seq.IntRange(p.npcs.lo, p.npcs.hi),
		Items:   seq.IntRange(p.items.lo, p.items.hi),
	}
}
