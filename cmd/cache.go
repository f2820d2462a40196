package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shouni/go-roomscape-kit/internal/pipeline"
)

// cacheCmd は CACHE_BACKEND / CACHE_DSN で指定した永続キャッシュを操作します。
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "アセットキャッシュを操作します。",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "キャッシュのエントリを古い順に表示します。",
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.ListCache(cmd.Context(), loadConfig(), cmd.OutOrStdout())
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "期限切れと破損したエントリを削除します。",
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.PurgeCache(cmd.Context(), loadConfig(), cmd.OutOrStdout())
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cachePurgeCmd)
}
