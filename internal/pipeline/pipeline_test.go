package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shouni/go-roomscape-kit/internal/config"
	kitconfig "github.com/shouni/go-roomscape-kit/pkg/config"
	"github.com/shouni/go-roomscape-kit/pkg/domain"
)

func testConfig(ids ...string) *config.Config {
	return &config.Config{
		Kit:          kitconfig.DefaultConfig(),
		CacheBackend: "memory",
		Options: config.RunOptions{
			StorySeed:       42,
			StartRoomNumber: 0,
			RoomIDs:         ids,
		},
	}
}

func TestExecuteRooms(t *testing.T) {
	ctx := context.Background()

	t.Run("ASCII マップを書き出す", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ExecuteRooms(ctx, testConfig("r0", "r1"), &buf); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.Contains(out, "# r0 (room 0, peaceful") || !strings.Contains(out, "# r1 (room 1") {
			t.Errorf("unexpected header:\n%s", out)
		}
		if strings.Count(out, "@") != 2 {
			t.Errorf("spawn markers = %d", strings.Count(out, "@"))
		}
	})

	t.Run("JSON は同じ入力で同じ内容になる", func(t *testing.T) {
		cfg := testConfig("r0")
		cfg.Options.Format = "json"
		var a, b bytes.Buffer
		if err := ExecuteRooms(ctx, cfg, &a); err != nil {
			t.Fatal(err)
		}
		if err := ExecuteRooms(ctx, cfg, &b); err != nil {
			t.Fatal(err)
		}
		if a.String() != b.String() {
			t.Error("出力が決定的ではありません")
		}
		var rooms []domain.RoomBase
		if err := json.Unmarshal(a.Bytes(), &rooms); err != nil {
			t.Fatal(err)
		}
		if len(rooms) != 1 || rooms[0].ID != "r0" || rooms[0].Layout == nil {
			t.Errorf("rooms = %+v", rooms)
		}
	})

	t.Run("空の ID はエラー", func(t *testing.T) {
		if err := ExecuteRooms(ctx, testConfig(""), &bytes.Buffer{}); err == nil {
			t.Error("エラーになるべきです")
		}
	})
}

func TestCacheCommands(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	var buf bytes.Buffer
	if err := ListCache(ctx, cfg, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "0 entries (capacity 50)") {
		t.Errorf("list = %q", buf.String())
	}

	buf.Reset()
	if err := PurgeCache(ctx, cfg, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "0 entries removed") {
		t.Errorf("purge = %q", buf.String())
	}
}
