package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shouni/go-roomscape-kit/internal/pipeline"
)

// batchCmd は 2〜3 ルームを1枚のパノラマから生成します。
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "2〜3 ルームをまとめて生成し、シーン画像を保存します。",
	Long: `ルームを組み立てたあと、全ルームを1枚のパノラマとして生成し、ルームごとにスライスして保存します。
--ids の数がそのままルーム数になります。アート生成に失敗した場合も、ルームは保存されます。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := pipeline.ModeBatch
		if len(opts.RoomIDs) == 1 {
			mode = pipeline.ModeSingle
		}
		return runGenerate(cmd, mode)
	},
}

// pairCmd はちょうど2ルームを生成します。
var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "2ルームを1枚のパノラマから生成します。",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, pipeline.ModePair)
	},
}

func init() {
	batchCmd.Flags().BoolVar(&opts.UseAnchor, "anchor", false, "--previous-scene をスタイルのアンカー画像として使います")
	batchCmd.Flags().StringVar(&opts.PreviousScene, "previous-scene", "", "直前のシーン画像（ファイル / URL / data URL）")
}

func runGenerate(cmd *cobra.Command, mode pipeline.Mode) error {
	cfg := loadConfig()
	if err := requireAPIKey(cfg); err != nil {
		return err
	}
	slog.Info("ルーム生成を開始します",
		"mode", mode,
		"seed", cfg.Options.StorySeed,
		"room_ids", cfg.Options.RoomIDs,
		"output_dir", cfg.Options.OutputDir,
		"image_model", cfg.Kit.ImageModel)
	return pipeline.ExecuteBatch(cmd.Context(), cfg, mode)
}
