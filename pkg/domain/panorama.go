package domain

import "fmt"

// MaxBatchRooms は1回のパノラマ要求に含められるルーム数の上限です。
const MaxBatchRooms = 3

// MultiRoomConfig はマルチルームバッチの構成です。
type MultiRoomConfig struct {
	NumRooms       int  `json:"num_rooms"`
	UseAnchorImage bool `json:"use_anchor_image"`
}

// Validate はルーム数とID数の整合性を確認します。
func (c MultiRoomConfig) Validate(roomIDs []string) error {
	if c.NumRooms < 2 || c.NumRooms > MaxBatchRooms {
		return fmt.Errorf("%w: got %d", ErrInvalidRoomCount, c.NumRooms)
	}
	if len(roomIDs) != c.NumRooms {
		return fmt.Errorf("%w: %d ids for %d rooms", ErrRoomIDMismatch, len(roomIDs), c.NumRooms)
	}
	return nil
}

// PanoramaRequest はパノラマ1枚分の画像生成要求です。永続化しません。
type PanoramaRequest struct {
	RoomIDs         []string
	PathDescription string
	Prompt          string
	SystemPrompt    string
	NegativePrompt  string
	ReferenceImages []string
	Width           int
	Height          int
	AspectRatio     string
	CacheKey        string
}

// PanoramaResult は生成されたパノラマとスライス結果です。
type PanoramaResult struct {
	Request   PanoramaRequest
	URL       string
	SliceURLs []string
	CacheHit  bool
}
