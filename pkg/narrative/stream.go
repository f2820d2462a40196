// Package narrative はナラティブ（ストーリーコンテキスト）のテキストストリームを扱います。
package narrative

import (
	"context"
	"errors"
	"io"
	"strings"
)

// Stream は前方向にのみ読めるテキストチャンクの列です。終端では io.EOF を返します。
// 巻き戻しやランダムアクセスはできません。
type Stream interface {
	Next(ctx context.Context) (string, error)
}

// Collect はストリームを最後まで読み、連結したテキストを返します。
// 途中でエラーになった場合は、それまでに受信したテキストとエラーを返します。
func Collect(ctx context.Context, s Stream) (string, error) {
	var sb strings.Builder
	for {
		chunk, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(chunk)
	}
}

// chunkStream は固定のチャンク列を返す Stream です。
type chunkStream struct {
	chunks []string
	pos    int
}

// FromChunks はメモリ上のチャンク列を Stream にします。単発のレスポンスにも使えます。
func FromChunks(chunks ...string) Stream {
	return &chunkStream{chunks: chunks}
}

func (s *chunkStream) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.pos >= len(s.chunks) {
		return "", io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}
