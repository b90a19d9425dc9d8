// Package importer pushes tabular data, settings, translations and images
// into an Odoo instance through the base_import and model RPC surfaces.
package importer

import (
	"go.uber.org/zap"

	"github.com/godoo/godoo-rpc/internal/odoo"
)

// Client bundles a logged-in session with the importer family, mirroring
// the one-stop wrapper the CLI and import trees work against.
type Client struct {
	API          *odoo.Client
	Data         *DataImporter
	Settings     *SettingsImporter
	Translations *TranslationImporter
	Images       *ImageImporter

	log *zap.Logger
}

// New wraps a logged-in Odoo client. logger may be nil.
func New(api *odoo.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		API:          api,
		Data:         &DataImporter{api: api, log: logger},
		Settings:     &SettingsImporter{api: api, log: logger},
		Translations: &TranslationImporter{api: api, log: logger},
		Images:       &ImageImporter{api: api, log: logger},
		log:          logger,
	}
}

// Excel returns an Excel importer bound to a workbook path.
func (c *Client) Excel(path string, batchSize int) *ExcelImporter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ExcelImporter{client: c, path: path, batchSize: batchSize, log: c.log}
}

// Tree returns a filesystem tree importer.
func (c *Client) Tree() *TreeImporter {
	return &TreeImporter{client: c, log: c.log}
}
