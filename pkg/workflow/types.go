package workflow

import (
	"github.com/shouni/go-roomscape-kit/pkg/domain"
)

// BatchRequest はバッチ生成の入力です。
type BatchRequest struct {
	StorySeed int64
	// StartRoomNumber は RoomIDs[0] のルーム番号です。以降は連番になります。
	StartRoomNumber int
	RoomIDs         []string
	// StoryContext が空でナレーターが設定されている場合は、ナレーターから取得します。
	StoryContext string
	// PreviousScene は直前に描画したシーン画像です。アンカー画像として使います。
	PreviousScene string
}

// BatchResult はバッチ生成の結果です。
// アート生成に失敗した場合もルームは返り、Panorama は nil、ArtErr に原因が入ります。
type BatchResult struct {
	BatchID  string
	Rooms    []domain.Room
	Panorama *domain.PanoramaResult
	ArtErr   error
}

// HasArt は全ルームにシーン画像が付与されたかどうかを返します。
func (r *BatchResult) HasArt() bool {
	if r == nil || len(r.Rooms) == 0 {
		return false
	}
	for _, rm := range r.Rooms {
		if !rm.HasScene() {
			return false
		}
	}
	return true
}
