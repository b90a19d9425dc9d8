package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/godoo/godoo-rpc/internal/odoo"
)

// =============================================================================
// SETTINGS IMPORTER
// Creates a transient res.config.settings record and executes it.
// =============================================================================

// SettingsImporter applies res.config.settings values and installs modules.
type SettingsImporter struct {
	api *odoo.Client
	log *zap.Logger
}

// Import applies a settings map. Values of relational settings are given
// as external ids and resolved before the create. A non-empty lang applies
// the settings under that language context.
func (s *SettingsImporter) Import(ctx context.Context, settings map[string]string, lang string) error {
	if len(settings) == 0 {
		return nil
	}

	fieldNames := make([]string, 0, len(settings))
	for name := range settings {
		fieldNames = append(fieldNames, name)
	}
	model := s.api.Model("res.config.settings")
	meta, err := model.FieldsGet(ctx, fieldNames...)
	if err != nil {
		return fmt.Errorf("fields_get res.config.settings: %w", err)
	}

	values := make(map[string]any, len(settings))
	for name, raw := range settings {
		fieldMeta, ok := meta[name]
		if !ok {
			return fmt.Errorf("unknown setting %q", name)
		}
		if fieldMeta.IsRelational() {
			ref, err := s.api.Ref(ctx, raw)
			if err != nil {
				return fmt.Errorf("resolve setting %s=%q: %w", name, raw, err)
			}
			values[name] = ref.ID
			continue
		}
		values[name] = coerceSettingValue(raw)
	}

	if lang != "" {
		s.log.Info("setting Odoo settings for language",
			zap.Int("settings", len(values)),
			zap.String("lang", lang))
		model = model.WithLang(lang)
	} else {
		s.log.Info("setting Odoo settings", zap.Int("settings", len(values)))
	}

	settingsID, err := model.Create(ctx, values)
	if err != nil {
		return fmt.Errorf("create res.config.settings: %w", err)
	}

	s.log.Info("committing settings", zap.Int("settings", len(values)))
	if _, err := model.ExecuteKw(ctx, "execute", []any{[]int64{settingsID}}, nil); err != nil {
		return fmt.Errorf("execute res.config.settings: %w", err)
	}
	return nil
}

// coerceSettingValue maps spreadsheet cells to typed setting values.
func coerceSettingValue(raw string) any {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return true
	case "false":
		return false
	}
	trimmed := strings.TrimSpace(raw)
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return raw
}

// InstallModules installs Odoo modules by their internal names, skipping
// ones already installed.
func (s *SettingsImporter) InstallModules(ctx context.Context, modules []string) error {
	moduleModel := s.api.Model("ir.module.module")
	if _, err := moduleModel.ExecuteKw(ctx, "update_list", nil, nil); err != nil {
		return fmt.Errorf("update module list: %w", err)
	}

	s.log.Info("installing Odoo modules", zap.Int("modules", len(modules)))
	for idx, name := range modules {
		ids, err := moduleModel.Search(ctx, odoo.NewDomain(
			odoo.C("state", "!=", "installed"),
			odoo.C("name", "=", name),
		), nil)
		if err != nil {
			return fmt.Errorf("search module %q: %w", name, err)
		}
		if len(ids) == 0 {
			continue
		}
		s.log.Info("installing module",
			zap.Int("module", idx+1),
			zap.Int("modules", len(modules)),
			zap.String("name", name))
		if _, err := moduleModel.ExecuteKw(ctx, "button_immediate_install", []any{ids}, nil); err != nil {
			return fmt.Errorf("install module %q: %w", name, err)
		}
	}
	return nil
}
