package domain

import "math"

// Position はピクセル空間上の座標です。
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// DistanceTo は2点間のユークリッド距離を返します。
func (p Position) DistanceTo(o Position) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// EntityKind はルーム内に配置されるオブジェクトの種別です。
type EntityKind string

const (
	KindNPC      EntityKind = "npc"
	KindEnemy    EntityKind = "enemy"
	KindItem     EntityKind = "item"
	KindExit     EntityKind = "exit"
	KindEntrance EntityKind = "entrance"
)

// Entity は配置エンジンが生成するインタラクティブなゲームオブジェクトです。
// Position は配置後に変更されません。HasInteracted のみ戦闘などの外部処理が更新します。
type Entity struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Position        Position   `json:"position"`
	Kind            EntityKind `json:"kind"`
	SpriteRef       string     `json:"sprite_ref"`
	InteractionText string     `json:"interaction_text"`
	Level           *int       `json:"level,omitempty"`
	ItemDrop        *string    `json:"item_drop,omitempty"`
	HasInteracted   bool       `json:"has_interacted"`
}

// RoomType はルームの性格を表し、配置されるエンティティの数を決めます。
type RoomType string

const (
	RoomCombat   RoomType = "combat"
	RoomPeaceful RoomType = "peaceful"
	RoomTreasure RoomType = "treasure"
	RoomPuzzle   RoomType = "puzzle"
	RoomMixed    RoomType = "mixed"
)

// AllRoomTypes は分類器が選択しうるルーム種別の一覧です。順序は乱数列の消費順に影響するため固定です。
var AllRoomTypes = []RoomType{RoomCombat, RoomPeaceful, RoomTreasure, RoomPuzzle, RoomMixed}

// RoomBase はアートが付与される前のルームです。
type RoomBase struct {
	ID          string   `json:"id"`
	Number      int      `json:"number"`
	Type        RoomType `json:"type"`
	Description string   `json:"description"`
	Layout      *Layout  `json:"layout"`
	Objects     []Entity `json:"objects"`
}

// Room は RoomBase にシーン画像を加えた完成形です。
// SceneImage が空の場合、表示側はタイルマップを直接描画します。
type Room struct {
	RoomBase
	SceneImage        string `json:"scene_image,omitempty"`
	SceneImageLoading bool   `json:"scene_image_loading"`
}

// HasScene はシーン画像が付与済みかどうかを返します。
func (r Room) HasScene() bool {
	return r.SceneImage != ""
}

// ObjectsOfKind は指定種別のエンティティだけを返します。
func (b RoomBase) ObjectsOfKind(kind EntityKind) []Entity {
	var out []Entity
	for _, e := range b.Objects {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
