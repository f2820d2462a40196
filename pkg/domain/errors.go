package domain

import "errors"

// 生成入力のエラーです。外部呼び出しの前に即座に返されます。
var (
	ErrInvalidRoomCount = errors.New("room count must be 2 or 3")
	ErrRoomIDMismatch   = errors.New("room id count does not match configured room count")
	ErrMissingBiome     = errors.New("biome definition is required")
	ErrInvalidGrid      = errors.New("invalid layout grid configuration")
	ErrEmptyPanorama    = errors.New("image provider returned an empty panorama url")
)
