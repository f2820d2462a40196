package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shouni/go-roomscape-kit/examples"
	"github.com/shouni/go-roomscape-kit/internal/builder"
	"github.com/shouni/go-roomscape-kit/internal/config"
	"github.com/shouni/go-roomscape-kit/pkg/domain"
	"github.com/shouni/go-roomscape-kit/pkg/events"
	"github.com/shouni/go-roomscape-kit/pkg/room"
	"github.com/shouni/go-roomscape-kit/pkg/workflow"
)

// Mode はバッチ生成の種類です。
type Mode string

const (
	ModeSingle Mode = "single"
	ModePair   Mode = "pair"
	ModeBatch  Mode = "batch"
)

// ExecuteRooms はアートを生成せずにルームを組み立て、ASCII マップまたは JSON を w に書き出します。
func ExecuteRooms(ctx context.Context, cfg *config.Config, w io.Writer) error {
	opts := cfg.Options
	registry, err := builder.BuildRegistry(cfg.BiomeFile)
	if err != nil {
		return err
	}
	assembler, err := builder.BuildAssembler(cfg)
	if err != nil {
		return err
	}

	bases := make([]domain.RoomBase, 0, len(opts.RoomIDs))
	for i, id := range opts.RoomIDs {
		number := opts.StartRoomNumber + i
		b, err := assembler.Build(room.Spec{
			ID:         id,
			StorySeed:  opts.StorySeed,
			RoomNumber: number,
			Biome:      registry.ForRoom(opts.StorySeed, number),
		})
		if err != nil {
			return fmt.Errorf("ルーム %s の構築に失敗しました: %w", id, err)
		}
		bases = append(bases, b)
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(bases)
	}
	for _, b := range bases {
		biomeName := "unknown"
		if b.Layout != nil && b.Layout.Biome != nil {
			biomeName = b.Layout.Biome.Name
		}
		fmt.Fprintf(w, "# %s (room %d, %s, %s)\n", b.ID, b.Number, b.Type, biomeName)
		if b.Layout != nil {
			fmt.Fprint(w, b.Layout.ASCII())
		}
		for _, e := range b.Objects {
			fmt.Fprintf(w, "  - %-8s %-24s (%.0f, %.0f)\n", e.Kind, e.Name, e.Position.X, e.Position.Y)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// ExecuteBatch は Orchestrator でルームとシーン画像を生成し、OutputDir に保存します。
func ExecuteBatch(ctx context.Context, cfg *config.Config, mode Mode) error {
	app, err := builder.BuildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeApp(app)

	_, err = runBatch(ctx, app, mode)
	return err
}

// ServeEvents はイベントストリームを websocket で配信しながらバッチ生成を実行します。
// 生成後も ctx がキャンセルされるまで配信を続けます。
func ServeEvents(ctx context.Context, cfg *config.Config, mode Mode) error {
	app, err := builder.BuildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeApp(app)

	mux := http.NewServeMux()
	mux.Handle("/events", events.NewHub(app.Events))
	srv := &http.Server{Addr: cfg.Options.ListenAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("イベント配信を開始しました", "addr", srv.Addr, "path", "/events")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if _, err := runBatch(ctx, app, mode); err != nil {
		shutdown(srv)
		return err
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("イベント配信サーバーが停止しました: %w", err)
		}
	}
	shutdown(srv)
	return nil
}

// ListCache は永続キャッシュのエントリを古い順に w に書き出します。
func ListCache(ctx context.Context, cfg *config.Config, w io.Writer) error {
	app, err := builder.BuildWorld(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeApp(app)

	entries := app.Cache.Entries(ctx)
	for _, e := range entries {
		state := "fresh"
		if e.Expired {
			state = "expired"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.CreatedAt().Format(time.RFC3339), state, e.Key, e.Identity)
	}
	fmt.Fprintf(w, "%d entries (capacity %d)\n", len(entries), cfg.Kit.CacheCapacity)
	return nil
}

// PurgeCache は期限切れと破損したエントリを削除します。
func PurgeCache(ctx context.Context, cfg *config.Config, w io.Writer) error {
	app, err := builder.BuildWorld(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeApp(app)

	removed := app.Cache.Purge(ctx)
	fmt.Fprintf(w, "%d entries removed, %d remaining\n", removed, app.Cache.Len(ctx))
	return nil
}

// ExecuteSprite は1ルームを生成し、指定エンティティのスプライトと対面シーンを生成します。
func ExecuteSprite(ctx context.Context, cfg *config.Config, entityID string, w io.Writer) error {
	app, err := builder.BuildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeApp(app)

	res, err := runBatch(ctx, app, ModeSingle)
	if err != nil {
		return err
	}
	rm := res.Rooms[0]
	ent, ok := findEntity(rm, entityID)
	if !ok {
		return fmt.Errorf("ルーム %s にエンティティ %q がありません", rm.ID, entityID)
	}

	var biome *domain.Biome
	if rm.Layout != nil {
		biome = rm.Layout.Biome
	}
	spriteURL, err := app.Sprites.Sprite(ctx, ent, biome)
	if err != nil {
		return fmt.Errorf("スプライトの生成に失敗しました: %w", err)
	}
	sceneURL, err := app.Sprites.InteractionScene(ctx, rm, ent, storyContext(cfg))
	if err != nil {
		return fmt.Errorf("対面シーンの生成に失敗しました: %w", err)
	}
	fmt.Fprintf(w, "sprite\t%d bytes\nscene\t%d bytes\n", len(spriteURL), len(sceneURL))
	return nil
}

// ExecuteSpeak はテキストを音声合成し、結果の data URL の長さを w に書き出します。
func ExecuteSpeak(ctx context.Context, cfg *config.Config, text, voice string, w io.Writer) error {
	app, err := builder.BuildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeApp(app)

	audio, err := app.Speech.Synthesize(ctx, text, voice)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "audio\t%d bytes\n", len(audio))
	return nil
}

func runBatch(ctx context.Context, app *builder.AppContext, mode Mode) (*workflow.BatchResult, error) {
	opts := app.Config.Options
	req := workflow.BatchRequest{
		StorySeed:       opts.StorySeed,
		StartRoomNumber: opts.StartRoomNumber,
		RoomIDs:         opts.RoomIDs,
		StoryContext:    storyContext(app.Config),
		PreviousScene:   opts.PreviousScene,
	}

	var (
		res *workflow.BatchResult
		err error
	)
	switch mode {
	case ModeSingle:
		res, err = app.Orchestrator.GenerateRoom(ctx, req)
	case ModePair:
		res, err = app.Orchestrator.GenerateRoomPair(ctx, req)
	default:
		res, err = app.Orchestrator.GenerateMultiRoomBatch(ctx, req, domain.MultiRoomConfig{
			NumRooms:       len(opts.RoomIDs),
			UseAnchorImage: opts.UseAnchor,
		})
	}
	if err != nil {
		return nil, err
	}

	panoramaURL := ""
	if res.Panorama != nil {
		panoramaURL = res.Panorama.URL
	}
	if _, err := app.Publisher.Publish(ctx, opts.OutputDir, res.BatchID, res.Rooms, panoramaURL, res.ArtErr); err != nil {
		return nil, err
	}
	if !res.HasArt() {
		slog.Warn("シーン画像なしでルームを保存しました", "batch_id", res.BatchID, "error", res.ArtErr)
	}
	return res, nil
}

// storyContext は --story-file、または（ナラティブ生成を使わない場合）埋め込みの既定文脈を返します。
func storyContext(cfg *config.Config) string {
	opts := cfg.Options
	if opts.StoryContextFile != "" {
		data, err := os.ReadFile(opts.StoryContextFile)
		if err != nil {
			slog.Warn("ストーリー文脈ファイルを読み込めませんでした", "path", opts.StoryContextFile, "error", err)
			return ""
		}
		return strings.TrimSpace(string(data))
	}
	if opts.Narrate {
		return ""
	}
	return strings.TrimSpace(examples.StoryContext)
}

func findEntity(rm domain.Room, id string) (domain.Entity, bool) {
	for _, e := range rm.Objects {
		if e.ID == id || (id == "" && e.Kind != domain.KindEntrance && e.Kind != domain.KindExit) {
			return e, true
		}
	}
	return domain.Entity{}, false
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("イベント配信サーバーの停止に失敗しました", "error", err)
	}
}

func closeApp(app *builder.AppContext) {
	if err := app.Close(); err != nil {
		slog.Warn("リソースの解放に失敗しました", "error", err)
	}
}
