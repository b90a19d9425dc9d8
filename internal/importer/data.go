package importer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/godoo/godoo-rpc/internal/dataset"
	"github.com/godoo/godoo-rpc/internal/odoo"
)

// DefaultBatchSize is the default number of rows per base_import request.
const DefaultBatchSize = 256

// importCSVOptions is what base_import.import "do" expects for the CSV
// payloads this package generates. Tables read from semicolon CSV keep
// their decimal commas, so the float separators follow the dialect.
func importCSVOptions(decimalComma bool) map[string]any {
	opts := map[string]any{
		"headers":                  true,
		"advanced":                 true,
		"keep_matches":             false,
		"date_format":              "%Y-%m-%d %H:%M:%S",
		"datetime_format":          "%Y-%m-%d %H:%M:%S",
		"encoding":                 "utf-8",
		"separator":                ",",
		"quoting":                  `"`,
		"float_thousand_separator": ",",
		"float_decimal_separator":  ".",
	}
	if decimalComma {
		opts["float_thousand_separator"] = "."
		opts["float_decimal_separator"] = ","
	}
	return opts
}

// =============================================================================
// DATA IMPORTER
// Bulk-loads a table into a model through the base_import.import transient
// model, in id-aware batches, then applies ":lang:" translation columns.
// =============================================================================

// DataImporter writes tables to Odoo models.
type DataImporter struct {
	api *odoo.Client
	log *zap.Logger
}

// UploadOptions tune a bulk upload.
type UploadOptions struct {
	// BatchSize caps rows per request. Zero uploads everything at once.
	BatchSize int

	// Source labels the upload in logs and in the server-side file name.
	Source string

	// SkipExisting drops rows whose external id is already registered in
	// ir.model.data before uploading.
	SkipExisting bool
}

// Upload imports a table into the named model. The table must carry an
// "id" column with external ids; blank ids mark one2many continuation rows.
func (i *DataImporter) Upload(ctx context.Context, t *dataset.Table, model string, opts UploadOptions) error {
	source := opts.Source
	if source == "" {
		source = "internal"
	}

	i.log.Info("starting import",
		zap.String("source", source),
		zap.String("model", model),
		zap.Int("rows", t.Len()))

	if t.IsEmpty() {
		i.log.Error("cannot import, no data provided", zap.String("source", source))
		return nil
	}
	if dupes := t.DuplicateIDs(); len(dupes) > 0 {
		i.log.Error("duplicate ids in dataset",
			zap.String("source", source),
			zap.Strings("ids", dupes))
		return fmt.Errorf("duplicate ids in %s: %s", source, strings.Join(dupes, ", "))
	}

	if opts.SkipExisting {
		stripped, err := i.stripExistingRecords(ctx, t)
		if err != nil {
			return err
		}
		if stripped.IsEmpty() {
			i.log.Info("all ids already exist in Odoo", zap.String("source", source))
			return nil
		}
		t = stripped
	}

	// Spreadsheet exports sometimes ship stray unnamed columns.
	t = t.Select(func(col string) bool { return !strings.HasPrefix(col, "Unnamed") })

	base := dataset.StripLanguage(t).DropEmptyRows()
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = base.Len()
	}
	chunks := dataset.Chunk(base, batchSize)
	for idx, chunk := range chunks {
		i.log.Info("importing batch",
			zap.String("source", source),
			zap.String("model", model),
			zap.Int("batch", idx+1),
			zap.Int("batches", len(chunks)),
			zap.Int("rows", chunk.Len()))
		if err := i.uploadBatch(ctx, chunk, model, source, idx+1); err != nil {
			return err
		}
	}

	return i.applyTranslations(ctx, t)
}

// uploadBatch creates one base_import.import record and executes it.
func (i *DataImporter) uploadBatch(ctx context.Context, t *dataset.Table, model, source string, index int) error {
	payload, err := dataset.WriteCSV(t)
	if err != nil {
		return err
	}

	importModel := i.api.Model("base_import.import")
	impID, err := importModel.Create(ctx, map[string]any{
		"res_model": model,
		"file":      payload,
		"file_type": "text/csv",
		"file_name": fmt.Sprintf("%s-%d", source, index),
	})
	if err != nil {
		return fmt.Errorf("create base_import for %s: %w", source, err)
	}
	i.log.Debug("created base_import.import", zap.Int64("id", impID))

	raw, err := importModel.ExecuteKw(ctx, "do",
		[]any{[]int64{impID}, t.Columns, t.Columns, importCSVOptions(t.DecimalComma)}, nil)
	if err != nil {
		return fmt.Errorf("execute base_import for %s: %w", source, err)
	}

	// "ids" is false rather than a list when the import failed, so it is
	// decoded only after the messages check.
	var result struct {
		IDs      json.RawMessage `json:"ids"`
		Messages []importMessage `json:"messages"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decode base_import response: %w", err)
	}

	if len(result.Messages) > 0 {
		return i.reportMessages(result.Messages, t)
	}

	var createdIDs []int64
	if err := json.Unmarshal(result.IDs, &createdIDs); err != nil {
		return fmt.Errorf("import reported no created ids: %s", result.IDs)
	}

	expected := len(t.UniqueValues("id"))
	if len(createdIDs) != expected {
		i.log.Error("imported record count mismatch",
			zap.Int("expected", expected),
			zap.Int("reported", len(createdIDs)))
	}
	return nil
}

type importMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field"`
	Record  any    `json:"record"`
	Rows    *struct {
		From int `json:"from"`
		To   int `json:"to"`
	} `json:"rows"`
}

// reportMessages logs the server's import diagnostics together with the
// affected slice of the dataset and fails the upload.
func (i *DataImporter) reportMessages(messages []importMessage, t *dataset.Table) error {
	pretty, _ := json.MarshalIndent(messages, "", "  ")
	i.log.Error("odoo import failed", zap.String("messages", string(pretty)))

	affectedRows := map[int]bool{}
	affectedFields := []string{"id"}
	for _, m := range messages {
		if m.Rows != nil {
			for row := m.Rows.From; row <= m.Rows.To; row++ {
				affectedRows[row] = true
			}
		}
		if m.Field != "" {
			affectedFields = append(affectedFields, m.Field)
		}
	}

	// Relational fields appear in the header as field/id or field/name.
	keep := map[string]bool{}
	for _, field := range affectedFields {
		switch {
		case t.HasColumn(field):
			keep[field] = true
		case t.HasColumn(field + "/id"):
			keep[field+"/id"] = true
		case t.HasColumn(field + "/name"):
			keep[field+"/name"] = true
		}
	}

	context := t.Select(func(col string) bool { return keep[col] })
	for row := range affectedRows {
		if row >= 0 && row < context.Len() {
			i.log.Error("affected row", zap.Int("row", row), zap.Any("cells", context.RowMap(row)))
		}
	}
	return fmt.Errorf("odoo responded with %d import error(s), see log", len(messages))
}

// stripExistingRecords drops rows whose external id is already present in
// ir.model.data. Continuation rows follow their parent's id.
func (i *DataImporter) stripExistingRecords(ctx context.Context, t *dataset.Table) (*dataset.Table, error) {
	var modules, names []string
	for _, xmlID := range t.UniqueValues("id") {
		module, name, ok := odoo.SplitXMLID(xmlID)
		if !ok {
			continue
		}
		modules = append(modules, module)
		names = append(names, name)
	}
	if len(names) == 0 {
		return t, nil
	}

	domain, err := odoo.Join("&",
		odoo.C("name", "in", names),
		odoo.C("module", "in", modules))
	if err != nil {
		return nil, err
	}
	records, err := i.api.Model("ir.model.data").SearchRead(ctx, domain, []string{"name", "module"}, nil)
	if err != nil {
		return nil, fmt.Errorf("query existing ids: %w", err)
	}
	if len(records) == 0 {
		return t, nil
	}

	existing := map[string]bool{}
	for _, rec := range records {
		module, _ := rec["module"].(string)
		name, _ := rec["name"].(string)
		existing[module+"."+name] = true
	}
	i.log.Debug("skipping rows with existing ids", zap.Int("existing", len(existing)))

	filled := t.ForwardFilledIDs()
	out := &dataset.Table{Columns: t.Columns, Types: t.Types}
	for idx, row := range t.Rows {
		if !existing[filled[idx]] {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// applyTranslations writes ":lang:" columns row by row under the language
// context of each pair.
func (i *DataImporter) applyTranslations(ctx context.Context, t *dataset.Table) error {
	pairs := dataset.LanguagePairs(t)
	if len(pairs) == 0 {
		return nil
	}
	i.log.Info("applying language columns", zap.Int("columns", len(pairs)))

	for idx, pair := range pairs {
		i.log.Info("processing language column",
			zap.Int("column", idx+1),
			zap.Int("columns", len(pairs)),
			zap.String("lang", pair.Lang),
			zap.String("field", pair.FieldName))
		for row := 0; row < t.Len(); row++ {
			value := strings.TrimSpace(t.Cell(row, pair.ValueColumn))
			if value == "" {
				continue
			}
			xmlID := strings.TrimSpace(t.Cell(row, pair.IDColumn))
			if xmlID == "" {
				continue
			}
			ref, err := i.api.Ref(ctx, xmlID)
			if err != nil {
				return fmt.Errorf("resolve %q for translation: %w", xmlID, err)
			}
			model := i.api.Model(ref.Model).WithLang(pair.Lang)
			if err := model.Write(ctx, []int64{ref.ID}, map[string]any{pair.FieldName: value}); err != nil {
				return fmt.Errorf("write translation %s[%s]: %w", xmlID, pair.Lang, err)
			}
		}
	}
	return nil
}

// UploadCSV reads a CSV file and imports it into the named model.
func (i *DataImporter) UploadCSV(ctx context.Context, path, model string, opts UploadOptions) error {
	t, err := dataset.ReadCSV(path)
	if err != nil {
		return err
	}
	if opts.Source == "" {
		opts.Source = path
	}
	return i.Upload(ctx, t, model, opts)
}

// UploadSQL runs a query and imports its result set into the named model.
// The selected column names must follow the import header conventions
// (id, field, field/id, ...).
func (i *DataImporter) UploadSQL(ctx context.Context, db *sql.DB, query, model string, opts UploadOptions) error {
	t, err := dataset.ReadSQL(ctx, db, query)
	if err != nil {
		return err
	}
	if opts.Source == "" {
		opts.Source = model + "-sql"
	}
	return i.Upload(ctx, t, model, opts)
}
