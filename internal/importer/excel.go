package importer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/godoo/godoo-rpc/internal/dataset"
)

// =============================================================================
// EXCEL IMPORTER
// Imports workbook sheets into models selected by sheet title regex, plus
// dedicated sheets for settings, module lists and translations.
// =============================================================================

// ExcelImporter imports from a single workbook.
type ExcelImporter struct {
	client    *Client
	path      string
	batchSize int
	log       *zap.Logger
}

// ImportSheets imports every worksheet whose title matches the pattern into
// the Odoo model captured by the pattern's named group "model".
func (e *ExcelImporter) ImportSheets(ctx context.Context, pattern *regexp.Regexp) error {
	modelIdx := -1
	for idx, name := range pattern.SubexpNames() {
		if name == "model" {
			modelIdx = idx
		}
	}
	if modelIdx < 0 {
		return fmt.Errorf("sheet pattern %q needs a named group model", pattern)
	}

	wb, err := dataset.OpenWorkbook(e.path)
	if err != nil {
		return err
	}
	defer wb.Close()

	matches := wb.SheetsMatching(pattern)
	idx := 0
	for _, sheet := range wb.Sheets() {
		match, ok := matches[sheet]
		if !ok {
			continue
		}
		idx++
		model := match[modelIdx]
		e.log.Info("importing worksheet",
			zap.Int("sheet", idx),
			zap.Int("sheets", len(matches)),
			zap.String("title", sheet),
			zap.String("model", model))

		table, err := wb.Table(sheet)
		if err != nil {
			return err
		}
		err = e.client.Data.Upload(ctx, table, model, UploadOptions{
			BatchSize: e.batchSize,
			Source:    fmt.Sprintf("%s!%s", workbookStem(e.path), sheet),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ImportSettings applies a settings sheet with Setting/Value/Language
// columns, grouped by language.
func (e *ExcelImporter) ImportSettings(ctx context.Context, sheet string) error {
	table, err := e.readSheet(sheet)
	if err != nil {
		return err
	}
	for _, group := range GroupSettingsByLanguage(table) {
		if err := e.client.Settings.Import(ctx, group.Settings, group.Lang); err != nil {
			return err
		}
	}
	return nil
}

// InstallModules installs the modules listed in the sheet's "Name" column.
func (e *ExcelImporter) InstallModules(ctx context.Context, sheet string) error {
	table, err := e.readSheet(sheet)
	if err != nil {
		return err
	}
	return e.client.Settings.InstallModules(ctx, table.UniqueValues("Name"))
}

// ImportTranslations imports a translation sheet.
func (e *ExcelImporter) ImportTranslations(ctx context.Context, sheet string) error {
	table, err := e.readSheet(sheet)
	if err != nil {
		return err
	}
	return e.client.Translations.Import(ctx, table)
}

func (e *ExcelImporter) readSheet(sheet string) (*dataset.Table, error) {
	wb, err := dataset.OpenWorkbook(e.path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	return wb.Table(sheet)
}

func workbookStem(path string) string {
	base := path
	if idx := strings.LastIndexAny(base, "/\\"); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}

// SettingsGroup is one language's slice of a settings table.
type SettingsGroup struct {
	Lang     string
	Settings map[string]string
}

// GroupSettingsByLanguage splits a Setting/Value/Language table into
// per-language setting maps, preserving first-seen language order. Rows
// without a language land in the "" group.
func GroupSettingsByLanguage(t *dataset.Table) []SettingsGroup {
	var order []string
	byLang := map[string]map[string]string{}
	for row := 0; row < t.Len(); row++ {
		setting := strings.TrimSpace(t.Cell(row, "Setting"))
		if setting == "" {
			continue
		}
		lang := strings.TrimSpace(t.Cell(row, "Language"))
		if _, ok := byLang[lang]; !ok {
			byLang[lang] = map[string]string{}
			order = append(order, lang)
		}
		byLang[lang][setting] = t.Cell(row, "Value")
	}

	groups := make([]SettingsGroup, 0, len(order))
	for _, lang := range order {
		groups = append(groups, SettingsGroup{Lang: lang, Settings: byLang[lang]})
	}
	return groups
}
