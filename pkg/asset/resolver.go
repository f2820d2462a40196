package asset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultImageDir は生成された画像を格納するデフォルトのディレクトリ名です。
	DefaultImageDir = "images"
	// DefaultRoomsJSON はバッチで生成したルームの JSON ファイル名です。
	DefaultRoomsJSON = "rooms.json"
	// DefaultMapFileName はタイルマップの ASCII 描画のファイル名です。
	DefaultMapFileName = "map.txt"
	// DefaultSceneFileName はルームごとのシーン画像の共通のベースファイル名です。
	DefaultSceneFileName = "scene.png"
	// DefaultPanoramaFileName はスライス前のパノラマ画像のファイル名です。
	DefaultPanoramaFileName = "panorama.png"
)

var (
	// SceneFileRegex はシーン画像 (scene_1.png 等) に一致します
	SceneFileRegex = createIndexedRegex(DefaultSceneFileName)
	// MapFileRegex はマップ (map_1.txt 等) に一致します
	MapFileRegex = createIndexedRegex(DefaultMapFileName)
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolveOutputPath(baseDir, fileName)
}

// GenerateIndexedPath は、指定されたベースパスの拡張子の前に連番を挿入し、
// 新しいパス文字列を生成します。index は1以上の整数である必要があります。
// 例: "out/images/scene.png", 1 -> "out/images/scene_1.png"
func GenerateIndexedPath(basePath string, index int) (string, error) {
	return urlpath.GenerateIndexedPath(basePath, index)
}

// ScenePath はバッチ内 index 番目（0 始まり）のルームのシーン画像パスを返します。
func ScenePath(outputDir string, index int) (string, error) {
	imgDir, err := ResolveOutputPath(outputDir, DefaultImageDir)
	if err != nil {
		return "", err
	}
	base, err := ResolveOutputPath(imgDir, DefaultSceneFileName)
	if err != nil {
		return "", err
	}
	return GenerateIndexedPath(base, index+1)
}

// MapPath はバッチ内 index 番目（0 始まり）のルームの ASCII マップのパスを返します。
func MapPath(outputDir string, index int) (string, error) {
	base, err := ResolveOutputPath(outputDir, DefaultMapFileName)
	if err != nil {
		return "", err
	}
	return GenerateIndexedPath(base, index+1)
}

// createIndexedRegex は、ファイル名に基づきインデックス付きファイル用の正規表現を生成します。
// 例: "scene.png" -> ^scene_\d+\.png$
func createIndexedRegex(fileName string) *regexp.Regexp {
	ext := filepath.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)

	// baseName と ext の両方を QuoteMeta でエスケープすることで
	// ドットや特殊文字が含まれていても正しくリテラルとしてマッチします。
	pattern := fmt.Sprintf(`^%s_\d+%s$`, regexp.QuoteMeta(baseName), regexp.QuoteMeta(ext))
	return regexp.MustCompile(pattern)
}
