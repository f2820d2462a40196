package imageio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shouni/go-http-kit/httpkit"
)

func TestDataURL(t *testing.T) {
	src := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	url := EncodeDataURL("image/png", src)

	mime, data, err := DecodeDataURL(url)
	if err != nil {
		t.Fatal(err)
	}
	if mime != "image/png" || string(data) != string(src) {
		t.Errorf("mime=%q data=%v", mime, data)
	}

	t.Run("data URL 以外はエラー", func(t *testing.T) {
		if _, _, err := DecodeDataURL("https://example.com/a.png"); err != ErrNotDataURL {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("base64 以外はエラー", func(t *testing.T) {
		if _, _, err := DecodeDataURL("data:text/plain,hello"); err == nil {
			t.Error("エラーになるべきです")
		}
	})
}

func TestFetcher_Fetch(t *testing.T) {
	ctx := context.Background()
	// httptest はループバックで待ち受けるため、ネットワーク検証を外したクライアントを使う
	f := NewFetcher(httpkit.New(5*time.Second, httpkit.WithSkipNetworkValidation(true)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("remote"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "local.bin")
	if err := os.WriteFile(path, []byte("local"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{"data URL", EncodeDataURL("image/png", []byte("inline")), "inline", false},
		{"HTTP", srv.URL + "/a.png", "remote", false},
		{"HTTP 404", srv.URL + "/missing", "", true},
		{"ローカルファイル", path, "local", false},
		{"file スキーム", "file://" + path, "local", false},
		{"存在しないファイル", filepath.Join(t.TempDir(), "none"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Fetch(ctx, tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("got = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetcher_DefaultBlocksLoopback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("internal"))
	}))
	defer srv.Close()

	// 既定のクライアントは SSRF 検証が有効なので、ループバックへの取得は拒否される
	if _, err := NewFetcher(nil).Fetch(context.Background(), srv.URL+"/a.png"); err == nil {
		t.Error("ループバックへのアクセスはエラーになるべきです")
	}
}
