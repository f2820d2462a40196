package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shouni/go-roomscape-kit/internal/config"
	"github.com/shouni/go-roomscape-kit/internal/pipeline"
)

// eventsCmd は生成中の進捗イベントを websocket で配信します。
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "バッチ生成を実行しながら進捗イベントを websocket で配信します。",
	Long: `ws://<listen>/events に接続したクライアントへ rooms.built や art.attached などのイベントを JSON で送ります。
生成が終わっても Ctrl+C で停止するまで配信を続けます。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if err := requireAPIKey(cfg); err != nil {
			return err
		}
		mode := pipeline.ModeBatch
		switch len(cfg.Options.RoomIDs) {
		case 1:
			mode = pipeline.ModeSingle
		case 2:
			mode = pipeline.ModePair
		}
		return pipeline.ServeEvents(cmd.Context(), cfg, mode)
	},
}

func init() {
	eventsCmd.Flags().StringVar(&opts.ListenAddr, "listen", config.DefaultListenAddr, "待ち受けアドレス")
}
