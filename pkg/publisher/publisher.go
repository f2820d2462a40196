package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shouni/go-roomscape-kit/pkg/asset"
	"github.com/shouni/go-roomscape-kit/pkg/domain"
	"github.com/shouni/go-roomscape-kit/pkg/imageio"
)

// PublishResult は保存したファイルのパスです。
type PublishResult struct {
	RoomsPath    string
	MapPaths     []string
	ScenePaths   []string
	PanoramaPath string
}

// roomDocument は rooms.json に書き出す1ルーム分の内容です。画像本体は別ファイルに保存します。
type roomDocument struct {
	domain.RoomBase
	SceneFile string `json:"scene_file,omitempty"`
}

type batchDocument struct {
	BatchID string         `json:"batch_id"`
	Rooms   []roomDocument `json:"rooms"`
	ArtErr  string         `json:"art_error,omitempty"`
}

// RoomPublisher はルームとシーン画像を出力先へ保存します。
type RoomPublisher struct {
	writer OutputWriter
}

// NewRoomPublisher は RoomPublisher を作成します。
func NewRoomPublisher(writer OutputWriter) *RoomPublisher {
	return &RoomPublisher{writer: writer}
}

// Publish はシーン画像、パノラマ、ASCII マップ、rooms.json を outputDir に保存します。
// panoramaURL と artErr は省略できます。
func (p *RoomPublisher) Publish(ctx context.Context, outputDir, batchID string, rooms []domain.Room, panoramaURL string, artErr error) (PublishResult, error) {
	result := PublishResult{}
	docs := make([]roomDocument, len(rooms))

	for i, r := range rooms {
		docs[i] = roomDocument{RoomBase: r.RoomBase}

		if r.Layout != nil {
			mapPath, err := asset.MapPath(outputDir, i)
			if err != nil {
				return result, err
			}
			if err := p.writer.Write(ctx, mapPath, []byte(r.Layout.ASCII())); err != nil {
				return result, err
			}
			result.MapPaths = append(result.MapPaths, mapPath)
		}

		if !r.HasScene() {
			continue
		}
		scenePath, err := asset.ScenePath(outputDir, i)
		if err != nil {
			return result, err
		}
		if err := p.writeDataURL(ctx, scenePath, r.SceneImage); err != nil {
			return result, fmt.Errorf("ルーム %s のシーン画像の保存に失敗しました: %w", r.ID, err)
		}
		docs[i].SceneFile = scenePath
		result.ScenePaths = append(result.ScenePaths, scenePath)
	}

	if imageio.IsDataURL(panoramaURL) {
		panoPath, err := asset.ResolveOutputPath(outputDir, asset.DefaultPanoramaFileName)
		if err != nil {
			return result, err
		}
		if err := p.writeDataURL(ctx, panoPath, panoramaURL); err != nil {
			return result, fmt.Errorf("パノラマ画像の保存に失敗しました: %w", err)
		}
		result.PanoramaPath = panoPath
	}

	doc := batchDocument{BatchID: batchID, Rooms: docs}
	if artErr != nil {
		doc.ArtErr = artErr.Error()
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return result, fmt.Errorf("rooms.json のエンコードに失敗しました: %w", err)
	}
	roomsPath, err := asset.ResolveOutputPath(outputDir, asset.DefaultRoomsJSON)
	if err != nil {
		return result, err
	}
	if err := p.writer.Write(ctx, roomsPath, raw); err != nil {
		return result, err
	}
	result.RoomsPath = roomsPath

	slog.Info("成果物を保存しました", "dir", outputDir, "rooms", len(rooms), "scenes", len(result.ScenePaths))
	return result, nil
}

func (p *RoomPublisher) writeDataURL(ctx context.Context, path, dataURL string) error {
	_, data, err := imageio.DecodeDataURL(dataURL)
	if err != nil {
		return err
	}
	return p.writer.Write(ctx, path, data)
}
