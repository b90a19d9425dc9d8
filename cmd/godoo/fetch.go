package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/godoo/godoo-rpc/internal/objstore"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [prefix] [dir]",
	Short: "Download an import tree from the configured object store",
	Long: `Downloads every object under the given bucket prefix into a local
directory, preserving the key hierarchy, so the tree can be imported
with the import command.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cfg.Store.Store()
		if err != nil {
			return err
		}
		count, err := objstore.FetchTree(cmd.Context(), store, cfg.Store.Bucket, args[0], args[1])
		if err != nil {
			return err
		}
		logger.Info("fetched import tree",
			zap.String("prefix", args[0]),
			zap.String("dir", args[1]),
			zap.Int("objects", count))
		return nil
	},
}
