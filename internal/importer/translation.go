package importer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/godoo/godoo-rpc/internal/dataset"
	"github.com/godoo/godoo-rpc/internal/odoo"
)

// =============================================================================
// TRANSLATION IMPORTER
// Table layout: "id" column first, then "lang/field" columns, e.g.
// "de_DE/name". Values are written under the column's language context.
// =============================================================================

// TranslationImporter writes translated field values.
type TranslationImporter struct {
	api *odoo.Client
	log *zap.Logger
}

// Import applies a translation table.
func (t *TranslationImporter) Import(ctx context.Context, table *dataset.Table) error {
	if !table.HasColumn("id") {
		return fmt.Errorf("translation table needs an id column")
	}

	for row := 0; row < table.Len(); row++ {
		t.log.Info("importing translations",
			zap.Int("row", row+1),
			zap.Int("rows", table.Len()))

		xmlID := strings.TrimSpace(table.Cell(row, "id"))
		if xmlID == "" {
			continue
		}
		ref, err := t.api.Ref(ctx, xmlID)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", xmlID, err)
		}

		for _, col := range table.Columns {
			if col == "id" || !strings.Contains(col, "/") {
				continue
			}
			value := table.Cell(row, col)
			if strings.TrimSpace(value) == "" {
				continue
			}
			parts := strings.Split(col, "/")
			lang := parts[0]
			field := strings.Join(parts[1:], ".")

			model := t.api.Model(ref.Model).WithLang(lang)
			if err := model.Write(ctx, []int64{ref.ID}, map[string]any{field: value}); err != nil {
				return fmt.Errorf("write %s[%s].%s: %w", xmlID, lang, field, err)
			}
		}
	}
	return nil
}
