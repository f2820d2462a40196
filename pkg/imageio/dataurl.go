package imageio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrNotDataURL は文字列が data: URL でない場合のエラーです。
var ErrNotDataURL = errors.New("imageio: not a data URL")

// EncodeDataURL はバイナリを base64 の data: URL に変換します。
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURL は文字列が data: URL かどうかを判定します。
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURL は data: URL から MIME タイプとバイナリを取り出します。
func DecodeDataURL(s string) (string, []byte, error) {
	if !IsDataURL(s) {
		return "", nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return "", nil, fmt.Errorf("imageio: data URL にカンマがありません")
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("imageio: base64 以外の data URL には対応していません")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("imageio: data URL のデコードに失敗しました: %w", err)
	}
	return mimeType, data, nil
}
