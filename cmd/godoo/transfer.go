package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/godoo/godoo-rpc/internal/transfer"
)

var (
	transferWait       time.Duration
	transferNoSnapshot bool
)

var transferCmd = &cobra.Command{
	Use:   "transfer [jobfile]",
	Short: "Copy records from the source instance into the main instance",
	Long: `Runs the YAML job list against the ODOO_SOURCE_* instance as source and
the ODOO_* instance as target. Jobs run in order; each job's source-to-
target id map feeds the map_from fields of later jobs. With an object
store configured, source records are snapshotted before any write.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, err := transfer.LoadJobs(args[0])
		if err != nil {
			return err
		}

		source, err := connect(cmd, cfg.Source, transferWait)
		if err != nil {
			return err
		}
		target, err := connectMain(cmd, transferWait)
		if err != nil {
			return err
		}

		runner := transfer.NewRunner(source, target, logger)
		if cfg.Store.Enabled() && !transferNoSnapshot {
			store, err := cfg.Store.Store()
			if err != nil {
				return err
			}
			runner.Snapshots = transfer.NewSnapshotter(store, cfg.Store.Bucket, cfg.Store.Prefix, logger)
		}

		maps, err := runner.Run(cmd.Context(), jobs)
		if err != nil {
			return err
		}
		for name, mapping := range maps {
			logger.Info("job finished", zap.String("job", name), zap.Int("records", len(mapping)))
		}
		return nil
	},
}

func init() {
	transferCmd.Flags().DurationVar(&transferWait, "wait", 10*time.Minute, "how long to wait for the instances to come up")
	transferCmd.Flags().BoolVar(&transferNoSnapshot, "no-snapshot", false, "skip source snapshots even when an object store is configured")
}
