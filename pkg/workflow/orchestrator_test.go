package workflow

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/shouni/go-roomscape-kit/examples"
	"github.com/shouni/go-roomscape-kit/pkg/biome"
	"github.com/shouni/go-roomscape-kit/pkg/cache"
	"github.com/shouni/go-roomscape-kit/pkg/config"
	"github.com/shouni/go-roomscape-kit/pkg/domain"
	"github.com/shouni/go-roomscape-kit/pkg/events"
	"github.com/shouni/go-roomscape-kit/pkg/generator"
	"github.com/shouni/go-roomscape-kit/pkg/imageio"
	"github.com/shouni/go-roomscape-kit/pkg/layout"
	"github.com/shouni/go-roomscape-kit/pkg/narrative"
	"github.com/shouni/go-roomscape-kit/pkg/placement"
	"github.com/shouni/go-roomscape-kit/pkg/prompts"
	"github.com/shouni/go-roomscape-kit/pkg/room"
	"github.com/shouni/go-roomscape-kit/pkg/slicer"
)

var bands = []color.RGBA{{R: 255, A: 255}, {G: 255, A: 255}, {B: 255, A: 255}}

// bandedProvider は要求されたサイズで、ルーム数分の単色帯を持つパノラマを返します。
type bandedProvider struct {
	mu    sync.Mutex
	calls []generator.ImageRequest
	err   error
	url   string
}

func (p *bandedProvider) Generate(_ context.Context, req generator.ImageRequest) (*generator.ImageResult, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	if p.url != "" {
		return &generator.ImageResult{URL: p.url}, nil
	}

	n := 1
	switch req.AspectRatio {
	case generator.PairAspectRatio:
		n = 2
	case generator.TripleAspectRatio:
		n = 3
	}
	w, h := req.TargetWidth/10, req.TargetHeight/10
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		c := bands[min(x*n/w, n-1)]
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return &generator.ImageResult{URL: imageio.EncodeDataURL("image/png", buf.Bytes())}, nil
}

func (p *bandedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type fakeNarrator struct {
	called bool
}

func (f *fakeNarrator) StreamStoryContext(context.Context, prompts.StoryContextData) (narrative.Stream, error) {
	f.called = true
	return narrative.FromChunks("Fog ", "gathers."), nil
}

type fixture struct {
	orch     *Orchestrator
	provider *bandedProvider
	bus      *events.Bus
	cache    *cache.AssetCache
}

func newFixture(t *testing.T, provider *bandedProvider, narrator StoryNarrator) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()

	registry, err := biome.Parse(examples.BiomesYAML, "yaml")
	if err != nil {
		t.Fatal(err)
	}
	layouts, err := layout.NewGenerator(layout.Options{
		Width: cfg.GridWidth, Height: cfg.GridHeight, TileSize: cfg.TileSize, MinPathLength: cfg.EffectiveMinPathLength(),
	})
	if err != nil {
		t.Fatal(err)
	}
	assetCache := cache.NewAssetCache(cache.NewMemoryStore(), cfg.CacheTTL, cfg.CacheCapacity)
	bus := events.NewBus()

	args := OrchestratorArgs{
		Rooms:    room.NewAssembler(layouts, placement.NewEngine(cfg.Placement)),
		Biomes:   registry,
		Composer: generator.NewPanoramaCompositor(provider, prompts.NewPanoramaPromptBuilder(cfg.StyleSuffix, cfg.StoryContextBudget), assetCache, nil),
		Slicer:   slicer.NewSlicer(imageio.NewFetcher(nil), 100, 80),
		Events:   bus,
	}
	if narrator != nil {
		args.Narrator = narrator
	}
	orch, err := NewOrchestrator(args)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{orch: orch, provider: provider, bus: bus, cache: assetCache}
}

func drain(ch <-chan events.Event) []events.Type {
	var types []events.Type
	for {
		select {
		case ev := <-ch:
			types = append(types, ev.Type)
		case <-time.After(50 * time.Millisecond):
			return types
		}
	}
}

func centerColor(t *testing.T, url string) color.RGBA {
	t.Helper()
	_, data, err := imageio.DecodeDataURL(url)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	r, g, bl, a := img.At(b.Dx()/2, b.Dy()/2).RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: uint8(a >> 8)}
}

func TestGenerateMultiRoomBatch_FailFast(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		ids     []string
		cfg     domain.MultiRoomConfig
		wantErr error
	}{
		{"ID数が不足", []string{"r1", "r2"}, domain.MultiRoomConfig{NumRooms: 3}, domain.ErrRoomIDMismatch},
		{"ID数が過剰", []string{"r1", "r2", "r3"}, domain.MultiRoomConfig{NumRooms: 2}, domain.ErrRoomIDMismatch},
		{"ルーム数が上限超過", []string{"r1", "r2", "r3", "r4"}, domain.MultiRoomConfig{NumRooms: 4}, domain.ErrInvalidRoomCount},
		{"ルーム数が1", []string{"r1"}, domain.MultiRoomConfig{NumRooms: 1}, domain.ErrInvalidRoomCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &bandedProvider{}, nil)
			res, err := f.orch.GenerateMultiRoomBatch(ctx, BatchRequest{StorySeed: 1, RoomIDs: tt.ids}, tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if res != nil {
				t.Error("入力エラーでは結果を返さないべきです")
			}
			if f.provider.callCount() != 0 {
				t.Errorf("外部呼び出しが %d 回行われました", f.provider.callCount())
			}
		})
	}

	t.Run("ペアは2ルーム必須", func(t *testing.T) {
		f := newFixture(t, &bandedProvider{}, nil)
		if _, err := f.orch.GenerateRoomPair(ctx, BatchRequest{RoomIDs: []string{"r1"}}); !errors.Is(err, domain.ErrRoomIDMismatch) {
			t.Errorf("err = %v", err)
		}
		if f.provider.callCount() != 0 {
			t.Error("外部呼び出しが行われました")
		}
	})
}

func TestGenerateMultiRoomBatch_AttachesSlicesInOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &bandedProvider{}, nil)
	sub, cancel := f.bus.Subscribe()
	defer cancel()

	res, err := f.orch.GenerateMultiRoomBatch(ctx, BatchRequest{
		StorySeed: 42, StartRoomNumber: 3, RoomIDs: []string{"r3", "r4", "r5"}, StoryContext: "Ash falls.",
	}, domain.MultiRoomConfig{NumRooms: 3})
	if err != nil {
		t.Fatal(err)
	}
	if res.ArtErr != nil || !res.HasArt() {
		t.Fatalf("artErr = %v", res.ArtErr)
	}
	if f.provider.callCount() != 1 {
		t.Errorf("provider calls = %d, want 1", f.provider.callCount())
	}
	for i, r := range res.Rooms {
		if r.ID != []string{"r3", "r4", "r5"}[i] || r.Number != 3+i {
			t.Errorf("room %d = %s (#%d)", i, r.ID, r.Number)
		}
		if r.SceneImageLoading {
			t.Errorf("room %d がロード中のままです", i)
		}
		if got := centerColor(t, r.SceneImage); got != bands[i] {
			t.Errorf("room %d color = %v, want %v", i, got, bands[i])
		}
	}
	if len(res.Panorama.SliceURLs) != 3 {
		t.Errorf("slices = %d", len(res.Panorama.SliceURLs))
	}

	want := []events.Type{events.RoomsBuilt, events.PanoramaRequested, events.PanoramaGenerated, events.ArtAttached}
	got := drain(sub)
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestGenerateMultiRoomBatch_Deterministic(t *testing.T) {
	ctx := context.Background()
	req := BatchRequest{StorySeed: 7, RoomIDs: []string{"a", "b"}, StoryContext: "x"}

	first, err := newFixture(t, &bandedProvider{}, nil).orch.GenerateRoomPair(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := newFixture(t, &bandedProvider{}, nil).orch.GenerateRoomPair(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if first.BatchID == second.BatchID {
		t.Error("バッチ ID は毎回異なるべきです")
	}
	for i := range first.Rooms {
		a, b := first.Rooms[i], second.Rooms[i]
		if a.Layout.ASCII() != b.Layout.ASCII() || len(a.Objects) != len(b.Objects) {
			t.Fatalf("room %d のレイアウトが一致しません", i)
		}
		for j := range a.Objects {
			if a.Objects[j].Position != b.Objects[j].Position {
				t.Errorf("room %d object %d の位置が一致しません", i, j)
			}
		}
	}
}

func TestGenerateMultiRoomBatch_GracefulDegradation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		provider *bandedProvider
	}{
		{"プロバイダのエラー", &bandedProvider{err: errors.New("service unavailable")}},
		{"デコードできない画像", &bandedProvider{url: imageio.EncodeDataURL("image/png", []byte("not an image"))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.provider, nil)
			sub, cancel := f.bus.Subscribe()
			defer cancel()

			res, err := f.orch.GenerateRoomPair(ctx, BatchRequest{StorySeed: 1, RoomIDs: []string{"r1", "r2"}})
			if err != nil {
				t.Fatalf("アート失敗でエラーを返しました: %v", err)
			}
			if res.ArtErr == nil || res.Panorama != nil || res.HasArt() {
				t.Errorf("artErr = %v, panorama = %v", res.ArtErr, res.Panorama)
			}
			if len(res.Rooms) != 2 {
				t.Fatalf("rooms = %d", len(res.Rooms))
			}
			for _, r := range res.Rooms {
				if r.SceneImage != "" || r.SceneImageLoading || r.Layout == nil {
					t.Errorf("room %s: scene=%q loading=%v", r.ID, r.SceneImage, r.SceneImageLoading)
				}
			}
			got := drain(sub)
			if len(got) == 0 || got[len(got)-1] != events.ArtFailed {
				t.Errorf("events = %v", got)
			}
		})
	}
}

func TestGenerateMultiRoomBatch_Anchor(t *testing.T) {
	ctx := context.Background()
	req := BatchRequest{StorySeed: 1, RoomIDs: []string{"r1", "r2"}, PreviousScene: "data:image/png;base64,UFJFVg=="}

	t.Run("useAnchorImage でアンカーを渡す", func(t *testing.T) {
		f := newFixture(t, &bandedProvider{}, nil)
		if _, err := f.orch.GenerateMultiRoomBatch(ctx, req, domain.MultiRoomConfig{NumRooms: 2, UseAnchorImage: true}); err != nil {
			t.Fatal(err)
		}
		if refs := f.provider.calls[0].ReferenceImages; len(refs) != 1 || refs[0] != req.PreviousScene {
			t.Errorf("refs = %v", refs)
		}
	})

	t.Run("ペアではアンカーを使わない", func(t *testing.T) {
		f := newFixture(t, &bandedProvider{}, nil)
		if _, err := f.orch.GenerateRoomPair(ctx, req); err != nil {
			t.Fatal(err)
		}
		if refs := f.provider.calls[0].ReferenceImages; len(refs) != 0 {
			t.Errorf("refs = %v", refs)
		}
	})
}

func TestGenerateMultiRoomBatch_CacheHit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &bandedProvider{}, nil)
	req := BatchRequest{StorySeed: 5, RoomIDs: []string{"r1", "r2"}, StoryContext: "same"}

	if _, err := f.orch.GenerateRoomPair(ctx, req); err != nil {
		t.Fatal(err)
	}
	res, err := f.orch.GenerateRoomPair(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Panorama.CacheHit || f.provider.callCount() != 1 {
		t.Errorf("cacheHit = %v, calls = %d", res.Panorama.CacheHit, f.provider.callCount())
	}
}

func TestGenerateRoom(t *testing.T) {
	ctx := context.Background()
	narrator := &fakeNarrator{}
	f := newFixture(t, &bandedProvider{}, narrator)

	res, err := f.orch.GenerateRoom(ctx, BatchRequest{StorySeed: 9, RoomIDs: []string{"solo"}})
	if err != nil {
		t.Fatal(err)
	}
	if !res.HasArt() || len(res.Rooms) != 1 {
		t.Fatalf("artErr = %v", res.ArtErr)
	}
	if !narrator.called {
		t.Error("ストーリーコンテキストが空のときはナレーターを使うべきです")
	}
	call := f.provider.calls[0]
	if call.AspectRatio != generator.SingleRoomAspectRatio || call.TargetWidth != 1000 {
		t.Errorf("call = %+v", call)
	}

	if _, err := f.orch.GenerateRoom(ctx, BatchRequest{RoomIDs: []string{"a", "b"}}); !errors.Is(err, domain.ErrRoomIDMismatch) {
		t.Errorf("err = %v", err)
	}
}

func TestNewOrchestrator_RequiresDependencies(t *testing.T) {
	if _, err := NewOrchestrator(OrchestratorArgs{}); err == nil {
		t.Error("依存なしでエラーになるべきです")
	}
}

func TestGenerateMultiRoomBatch_UndecodablePanoramaIsNotCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &bandedProvider{url: imageio.EncodeDataURL("image/png", []byte("garbage"))}, nil)

	res, err := f.orch.GenerateRoomPair(ctx, BatchRequest{StorySeed: 1, RoomIDs: []string{"r1", "r2"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.ArtErr == nil {
		t.Fatal("アート生成の失敗が報告されていません")
	}
	if n := f.cache.Len(ctx); n != 0 {
		t.Errorf("スライスできないパノラマがキャッシュに残っています: %d", n)
	}
}
