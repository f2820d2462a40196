package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-roomscape-kit/internal/pipeline"
)

var (
	entityID string
	voice    string
)

// spriteCmd は1ルームを生成し、エンティティのスプライトと対面シーンを生成します。
var spriteCmd = &cobra.Command{
	Use:   "sprite",
	Short: "ルーム内のエンティティのスプライトと対面シーンを生成します。",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if err := requireAPIKey(cfg); err != nil {
			return err
		}
		if len(cfg.Options.RoomIDs) != 1 {
			return fmt.Errorf("sprite にはルーム ID（--ids）を1つだけ指定してください")
		}
		return pipeline.ExecuteSprite(cmd.Context(), cfg, entityID, cmd.OutOrStdout())
	},
}

// speakCmd はテキストを音声合成します。同じテキストと声の組み合わせはキャッシュから返します。
var speakCmd = &cobra.Command{
	Use:   "speak [text]",
	Short: "テキストを音声合成します。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if err := requireAPIKey(cfg); err != nil {
			return err
		}
		return pipeline.ExecuteSpeak(cmd.Context(), cfg, args[0], voice, cmd.OutOrStdout())
	},
}

func init() {
	spriteCmd.Flags().StringVar(&entityID, "entity", "", "エンティティ ID（省略時は最初の NPC・敵・アイテム）")
	speakCmd.Flags().StringVar(&voice, "voice", "", "音声合成の声（省略時は TTS_VOICE）")
}
