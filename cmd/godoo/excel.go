package main

import (
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/godoo/godoo-rpc/internal/importer"
)

var (
	excelWait         time.Duration
	excelSheetPattern string
	excelModules      string
	excelSettings     string
	excelTranslations string
	excelBatchSize    int
)

var excelCmd = &cobra.Command{
	Use:   "excel [workbook]",
	Short: "Import an Excel workbook",
	Long: `Imports worksheets whose titles match the sheet pattern into the model
named by the pattern's "model" group. Dedicated sheets install modules,
apply res.config.settings values and write translations; they run in
that order, before the data sheets.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sheetPattern, err := regexp.Compile(excelSheetPattern)
		if err != nil {
			return fmt.Errorf("invalid sheet pattern: %w", err)
		}

		client, err := connectMain(cmd, excelWait)
		if err != nil {
			return err
		}
		wb := importer.New(client, logger).Excel(args[0], excelBatchSize)

		ctx := cmd.Context()
		if excelModules != "" {
			if err := wb.InstallModules(ctx, excelModules); err != nil {
				return err
			}
		}
		if excelSettings != "" {
			if err := wb.ImportSettings(ctx, excelSettings); err != nil {
				return err
			}
		}
		if excelTranslations != "" {
			if err := wb.ImportTranslations(ctx, excelTranslations); err != nil {
				return err
			}
		}
		return wb.ImportSheets(ctx, sheetPattern)
	},
}

func init() {
	excelCmd.Flags().DurationVar(&excelWait, "wait", 10*time.Minute, "how long to wait for the instance to come up")
	excelCmd.Flags().StringVar(&excelSheetPattern, "sheet-pattern", `^(?P<model>[a-z][\w.]+)$`, "worksheet title regex; the named group \"model\" selects the model")
	excelCmd.Flags().StringVar(&excelModules, "modules-sheet", "", "worksheet listing modules to install (column \"Name\")")
	excelCmd.Flags().StringVar(&excelSettings, "settings-sheet", "", "worksheet with Setting/Value/Language columns")
	excelCmd.Flags().StringVar(&excelTranslations, "translations-sheet", "", "worksheet with translation columns")
	excelCmd.Flags().IntVar(&excelBatchSize, "batch-size", importer.DefaultBatchSize, "rows per upload request")
}
