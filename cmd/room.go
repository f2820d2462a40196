package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-roomscape-kit/internal/pipeline"
)

// roomCmd はアートを生成せずにルームを組み立てて表示します。API キーは不要です。
var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "ルームを組み立てて ASCII マップか JSON で表示します。",
	Long: `シードとルーム番号からレイアウトとエンティティ配置を決定的に生成します。
同じ --seed と --start なら何度実行しても同じルームになります。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(opts.RoomIDs) == 0 {
			return fmt.Errorf("ルーム ID（--ids）を1つ以上指定してください")
		}
		if opts.Format != "ascii" && opts.Format != "json" {
			return fmt.Errorf("未対応の出力形式です: %s", opts.Format)
		}
		return pipeline.ExecuteRooms(cmd.Context(), loadConfig(), cmd.OutOrStdout())
	},
}

func init() {
	roomCmd.Flags().StringVarP(&opts.Format, "format", "f", "ascii", "出力形式（ascii / json）")
}
