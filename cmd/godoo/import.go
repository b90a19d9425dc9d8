package main

import (
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/godoo/godoo-rpc/internal/dataset"
	"github.com/godoo/godoo-rpc/internal/importer"
)

const (
	defaultDataPattern  = `^(\d+_)?(?P<module>[\w.-]+)\.(csv|json|xlsx)$`
	defaultImagePattern = `^(?P<default_code>[\w.-]+)\.(png|jpe?g)$`
)

var (
	importWait         time.Duration
	importDataPattern  string
	importImagePattern string
	importBatchSize    int
	importSkipExisting bool
	importUseCache     bool
	importSQLDriver    string
	importSQLDSN       string
	importSQLQuery     string
)

var importCmd = &cobra.Command{
	Use:   "import [path|model]",
	Short: "Import a dataset tree, a single data file or a SQL query",
	Long: `Imports a folder of CSV/JSON/Excel datasets ordered by their numeric
folder and file prefixes (001_Base/001_res.partner.csv), or a single
data file. Product images under the tree's img/ folder are imported
when an image pattern is set.

With --sql-query the argument is the target model instead of a path and
the query's result set is imported; the selected column names must
follow the import header conventions (id, field, field/id, ...).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if importSQLQuery != "" {
			return runSQLImport(cmd, args[0])
		}

		dataPattern, err := regexp.Compile(importDataPattern)
		if err != nil {
			return fmt.Errorf("invalid data pattern: %w", err)
		}
		var imagePattern *regexp.Regexp
		if importImagePattern != "" {
			imagePattern, err = regexp.Compile(importImagePattern)
			if err != nil {
				return fmt.Errorf("invalid image pattern: %w", err)
			}
		}

		client, err := connectMain(cmd, importWait)
		if err != nil {
			return err
		}
		return importer.New(client, logger).Tree().ImportPath(cmd.Context(), args[0], importer.TreeOptions{
			DataPattern:    dataPattern,
			ImagePattern:   imagePattern,
			BatchSize:      importBatchSize,
			SkipExisting:   importSkipExisting,
			TimestampCache: importUseCache,
		})
	},
}

// runSQLImport pulls a query result set from a legacy database and feeds it
// to the data importer.
func runSQLImport(cmd *cobra.Command, model string) error {
	if importSQLDSN == "" {
		return fmt.Errorf("--sql-query requires --sql-dsn")
	}
	db, err := dataset.OpenSQL(cmd.Context(), importSQLDriver, importSQLDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := connectMain(cmd, importWait)
	if err != nil {
		return err
	}
	return importer.New(client, logger).Data.UploadSQL(cmd.Context(), db, importSQLQuery, model, importer.UploadOptions{
		BatchSize:    importBatchSize,
		SkipExisting: importSkipExisting,
	})
}

func init() {
	importCmd.Flags().DurationVar(&importWait, "wait", 10*time.Minute, "how long to wait for the instance to come up")
	importCmd.Flags().StringVar(&importDataPattern, "pattern", defaultDataPattern, "data file name regex; the named group \"module\" selects the model")
	importCmd.Flags().StringVar(&importImagePattern, "image-pattern", defaultImagePattern, "product image file regex with a named group \"default_code\"; empty disables image import")
	importCmd.Flags().IntVar(&importBatchSize, "batch-size", importer.DefaultBatchSize, "rows per upload request")
	importCmd.Flags().BoolVar(&importSkipExisting, "skip-existing", false, "drop rows whose external ids already exist")
	importCmd.Flags().BoolVar(&importUseCache, "timestamp-cache", false, "skip files unchanged since the last cached import")
	importCmd.Flags().StringVar(&importSQLDriver, "sql-driver", "postgres", "database/sql driver for --sql-query")
	importCmd.Flags().StringVar(&importSQLDSN, "sql-dsn", "", "database connection string for --sql-query")
	importCmd.Flags().StringVar(&importSQLQuery, "sql-query", "", "SELECT feeding the import instead of a file tree")
}
