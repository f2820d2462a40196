package imageio

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shouni/go-http-kit/httpkit"
)

// Fetcher は画像の参照（data: URL、http(s) URL、ローカルパス）からバイナリを取得します。
// http(s) の取得は httpkit に任せ、リトライとサイズ制限、SSRF 検証はそちらで行います。
type Fetcher struct {
	requester httpkit.Requester
}

// NewFetcher は Fetcher を作成します。requester が nil の場合は既定のタイムアウトの httpkit クライアントを使います。
func NewFetcher(requester httpkit.Requester) *Fetcher {
	if requester == nil {
		requester = httpkit.New(httpkit.DefaultHTTPTimeout)
	}
	return &Fetcher{requester: requester}
}

// Fetch は参照先のバイナリを返します。
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case IsDataURL(ref):
		_, data, err := DecodeDataURL(ref)
		return data, err
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		data, err := f.requester.FetchBytes(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("imageio: 画像の取得に失敗しました: %w", err)
		}
		return data, nil
	default:
		data, err := os.ReadFile(strings.TrimPrefix(ref, "file://"))
		if err != nil {
			return nil, fmt.Errorf("imageio: ファイルの読み込みに失敗しました: %w", err)
		}
		return data, nil
	}
}
