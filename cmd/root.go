package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shouni/go-roomscape-kit/internal/config"
)

var (
	// opts は各サブコマンドが共有する実行時パラメータです。
	opts config.RunOptions

	logFormat string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:           "roomscape",
	Short:         "シード付きのルーム生成とパノラマのシーン画像生成を行うツールです。",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger(logFormat, verbose)
	},
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(roomCmd, batchCmd, pairCmd, eventsCmd, cacheCmd, spriteCmd, speakCmd)
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義します。
func addAppFlags(rootCmd *cobra.Command) {
	pf := rootCmd.PersistentFlags()

	// --- ログ ---
	pf.StringVar(&logFormat, "log-format", "text", "ログの形式（text / json）")
	pf.BoolVarP(&verbose, "verbose", "v", false, "デバッグログを出力します")

	// --- 生成対象 ---
	pf.Int64VarP(&opts.StorySeed, "seed", "s", 1, "ストーリーのシード")
	pf.IntVar(&opts.StartRoomNumber, "start", 0, "最初のルームのルーム番号")
	pf.StringSliceVar(&opts.RoomIDs, "ids", nil, "ルーム ID（カンマ区切り）")

	// --- ストーリー文脈 ---
	pf.StringVar(&opts.StoryContextFile, "story-file", "", "ストーリー文脈を読み込むファイル")
	pf.BoolVar(&opts.Narrate, "narrate", false, "ストーリー文脈を Gemini で生成します")

	// --- 出力 ---
	pf.StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "生成結果を保存するディレクトリ")
}

// setupLogger は、フラグに従って slog のデフォルトハンドラを設定します。
func setupLogger(format string, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "text", "":
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		return fmt.Errorf("未対応のログ形式です: %s", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig は環境変数の設定に CLI フラグを反映します。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.Options = opts
	return cfg
}

// requireAPIKey は Gemini を使うコマンドの実行前チェックです。
func requireAPIKey(cfg *config.Config) error {
	if cfg.Kit.GeminiAPIKey == "" {
		return fmt.Errorf("環境変数 GEMINI_API_KEY が設定されていません。画像生成には必須です")
	}
	return nil
}

// Execute は、アプリケーションのメインエントリポイントです。
// main.go から呼び出されて、cobra のコマンドライン解析を開始します。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("コマンドの実行に失敗しました", "error", err)
		os.Exit(1)
	}
}
