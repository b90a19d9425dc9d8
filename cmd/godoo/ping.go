package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pingWait time.Duration

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connectivity and credentials against the main instance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := connectMain(cmd, pingWait)
		if err != nil {
			return err
		}
		version, err := client.Version(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("instance is up",
			zap.String("database", client.Database()),
			zap.Int64("uid", client.UID()),
			zap.String("server_version", version.ServerVersion))
		return nil
	},
}

func init() {
	pingCmd.Flags().DurationVar(&pingWait, "wait", 30*time.Second, "how long to wait for the instance to come up")
}
