package builder

import (
	"errors"

	"github.com/shouni/go-roomscape-kit/internal/config"
	"github.com/shouni/go-roomscape-kit/pkg/biome"
	"github.com/shouni/go-roomscape-kit/pkg/cache"
	"github.com/shouni/go-roomscape-kit/pkg/events"
	"github.com/shouni/go-roomscape-kit/pkg/publisher"
	"github.com/shouni/go-roomscape-kit/pkg/room"
	"github.com/shouni/go-roomscape-kit/pkg/speech"
	"github.com/shouni/go-roomscape-kit/pkg/sprite"
	"github.com/shouni/go-roomscape-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各 Build 関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config       *config.Config            // Config は環境変数と CLI フラグから組み立てた設定です。
	Biomes       *biome.Registry           // Biomes はルーム番号からバイオームを選ぶレジストリです。
	Rooms        *room.Assembler           // Rooms はアート無しのルームを組み立てます。
	Cache        *cache.AssetCache         // Cache はパノラマ・スプライト・音声の URL キャッシュです。
	Events       *events.Bus               // Events はバッチの進捗イベントを配信します。
	Orchestrator *workflow.Orchestrator    // Orchestrator はバッチ生成の入口です。API キーが無い場合は nil です。
	Sprites      *sprite.Generator         // Sprites はスプライトと対面シーンの生成器です。API キーが無い場合は nil です。
	Speech       *speech.CachedSynthesizer // Speech はキャッシュ付きの音声合成です。API キーが無い場合は nil です。
	Publisher    *publisher.RoomPublisher  // Publisher は生成結果をファイルに保存します。

	closers []func() error
}

// Close は初期化したリソースを逆順で解放します。
func (a *AppContext) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *AppContext) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}
