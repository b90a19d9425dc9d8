// godoo is the command line front of the Odoo import and transfer toolkit:
// ping an instance, bulk-import data trees and workbooks, copy records
// between instances with relation remapping.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/godoo/godoo-rpc/internal/config"
	"github.com/godoo/godoo-rpc/internal/odoo"
)

var (
	// Global flags
	verbose     bool
	envFile     string
	envOverride bool

	// Loaded config and logger, set up in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "godoo",
	Short: "Odoo data import and transfer toolkit",
	Long: `godoo imports CSV/JSON/Excel datasets, product images, settings and
translations into an Odoo instance over JSON-RPC, and copies records
between two instances while remapping relational references.

Connection settings come from the environment (ODOO_HOST, ODOO_DB,
ODOO_USER, ODOO_PASSWORD; ODOO_SOURCE_* for the transfer source), with
an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}

		cfg, err = config.Load(envFile, envOverride)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// connectMain logs into the main instance, waiting for it to come up.
func connectMain(cmd *cobra.Command, wait time.Duration) (*odoo.Client, error) {
	return connect(cmd, cfg.Main, wait)
}

func connect(cmd *cobra.Command, instance config.Instance, wait time.Duration) (*odoo.Client, error) {
	clientCfg := instance.ClientConfig(cfg.Tuning)
	clientCfg.Logger = logger
	client, err := odoo.NewClient(clientCfg)
	if err != nil {
		return nil, err
	}
	if err := client.WaitForReady(cmd.Context(), wait); err != nil {
		return nil, err
	}
	return client, nil
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default .env)")
	rootCmd.PersistentFlags().BoolVar(&envOverride, "env-override", false, "let the .env file override existing environment variables")

	rootCmd.AddCommand(pingCmd, importCmd, excelCmd, transferCmd, fetchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
