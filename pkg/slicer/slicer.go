// Package slicer は横長のパノラマ画像を部屋ごとの縦帯に分割し、ビューポートサイズへ拡大縮小します。
package slicer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/shouni/go-roomscape-kit/pkg/imageio"
)

// ErrInvalidSliceCount は分割数が不正な場合のエラーです。
var ErrInvalidSliceCount = errors.New("slicer: slice count must be positive")

// ImageFetcher は画像参照からバイナリを取得します。
type ImageFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Slicer はパノラマ画像を N 枚の等幅スライスに分割します。
type Slicer struct {
	fetcher ImageFetcher
	width   int
	height  int
	scaler  draw.Scaler
}

// NewSlicer は Slicer を作成します。width と height は各スライスの出力サイズです。
func NewSlicer(fetcher ImageFetcher, width, height int) *Slicer {
	return &Slicer{
		fetcher: fetcher,
		width:   width,
		height:  height,
		scaler:  draw.CatmullRom,
	}
}

// Slice は panoramaURL の画像を左から右へ n 等分し、それぞれを PNG の data URL で返します。
// 余りのピクセル（画像幅が n で割り切れない場合）は右端で切り捨てられます。
func (s *Slicer) Slice(ctx context.Context, panoramaURL string, n int) ([]string, error) {
	if n <= 0 {
		return nil, ErrInvalidSliceCount
	}
	raw, err := s.fetcher.Fetch(ctx, panoramaURL)
	if err != nil {
		return nil, fmt.Errorf("パノラマ画像の取得に失敗しました: %w", err)
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("パノラマ画像のデコードに失敗しました: %w", err)
	}

	bounds := img.Bounds()
	sliceWidth := bounds.Dx() / n
	if sliceWidth == 0 {
		return nil, fmt.Errorf("パノラマ画像の幅 %d px は %d 分割できません (format=%s)", bounds.Dx(), n, format)
	}

	urls := make([]string, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src := image.Rect(
			bounds.Min.X+i*sliceWidth, bounds.Min.Y,
			bounds.Min.X+(i+1)*sliceWidth, bounds.Max.Y,
		)
		dst := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
		s.scaler.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)

		var buf bytes.Buffer
		if err := png.Encode(&buf, dst); err != nil {
			return nil, fmt.Errorf("スライス %d のエンコードに失敗しました: %w", i, err)
		}
		urls[i] = imageio.EncodeDataURL("image/png", buf.Bytes())
	}
	return urls, nil
}
