package generator

import (
	"fmt"

	"github.com/shouni/go-roomscape-kit/pkg/domain"
)

// パノラマのアスペクト比です。
const (
	// SingleRoomAspectRatio は単一ルーム（ビューポート 1000x800）の比率です。
	SingleRoomAspectRatio = "5:4"
	// PairAspectRatio は2ルーム分のパノラマの比率です。
	PairAspectRatio = "16:9"
	// TripleAspectRatio は3ルーム分のパノラマの比率です。
	TripleAspectRatio = "21:9"
)

// Dimensions はパノラマ全体のピクセルサイズです。
type Dimensions struct {
	Width       int
	Height      int
	AspectRatio string
}

// panoramaDimensions はルーム数ごとの固定サイズです。
var panoramaDimensions = map[int]Dimensions{
	1: {Width: 1000, Height: 800, AspectRatio: SingleRoomAspectRatio},
	2: {Width: 1920, Height: 1080, AspectRatio: PairAspectRatio},
	3: {Width: 2520, Height: 1080, AspectRatio: TripleAspectRatio},
}

// DimensionsFor はルーム数に対応するパノラマのサイズを返します。
func DimensionsFor(numRooms int) (Dimensions, error) {
	d, ok := panoramaDimensions[numRooms]
	if !ok {
		return Dimensions{}, fmt.Errorf("%w: got %d", domain.ErrInvalidRoomCount, numRooms)
	}
	return d, nil
}
