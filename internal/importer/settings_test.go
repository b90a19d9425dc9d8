package importer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godoo/godoo-rpc/internal/dataset"
	"github.com/godoo/godoo-rpc/internal/importer"
	"github.com/godoo/godoo-rpc/internal/odoo/odootest"
)

func TestSettingsImport(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()
	srv.Handle("res.config.settings", "fields_get", func(args []any, kw map[string]any) (any, error) {
		return map[string]any{
			"group_multi_currency": map[string]any{"type": "boolean"},
			"company_share_limit":  map[string]any{"type": "integer"},
			"template_id":          map[string]any{"type": "many2one", "relation": "product.template"},
		}, nil
	})
	srv.Handle("ir.model.data", "search_read", func(args []any, kw map[string]any) (any, error) {
		return []any{map[string]any{"model": "product.template", "res_id": float64(9)}}, nil
	})
	srv.Handle("res.config.settings", "create", func(args []any, kw map[string]any) (any, error) {
		return 55, nil
	})
	srv.Handle("res.config.settings", "execute", func(args []any, kw map[string]any) (any, error) {
		return true, nil
	})

	client := newImporter(t, srv)
	err := client.Settings.Import(context.Background(), map[string]string{
		"group_multi_currency": "True",
		"company_share_limit":  "3",
		"template_id":          "product.default_template",
	}, "")
	require.NoError(t, err)

	creates := srv.CallsTo("res.config.settings", "create")
	require.Len(t, creates, 1)
	values, _ := creates[0].Args[0].(map[string]any)
	assert.Equal(t, true, values["group_multi_currency"])
	assert.Equal(t, float64(3), values["company_share_limit"])
	assert.Equal(t, float64(9), values["template_id"])

	executes := srv.CallsTo("res.config.settings", "execute")
	require.Len(t, executes, 1)
	assert.Equal(t, []any{float64(55)}, executes[0].Args[0])
}

func TestSettingsImportWithLanguageContext(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()
	srv.Handle("res.config.settings", "fields_get", func(args []any, kw map[string]any) (any, error) {
		return map[string]any{"group_multi_currency": map[string]any{"type": "boolean"}}, nil
	})
	srv.Handle("res.config.settings", "create", func(args []any, kw map[string]any) (any, error) {
		return 1, nil
	})
	srv.Handle("res.config.settings", "execute", func(args []any, kw map[string]any) (any, error) {
		return true, nil
	})

	client := newImporter(t, srv)
	err := client.Settings.Import(context.Background(),
		map[string]string{"group_multi_currency": "false"}, "de_DE")
	require.NoError(t, err)

	creates := srv.CallsTo("res.config.settings", "create")
	require.Len(t, creates, 1)
	assert.Equal(t, "de_DE", odootest.ContextLang(creates[0].KW))
}

func TestSettingsImportUnknownSetting(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()
	srv.Handle("res.config.settings", "fields_get", func(args []any, kw map[string]any) (any, error) {
		return map[string]any{}, nil
	})

	client := newImporter(t, srv)
	err := client.Settings.Import(context.Background(), map[string]string{"nope": "1"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestInstallModulesSkipsInstalled(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()
	srv.Handle("ir.module.module", "update_list", func(args []any, kw map[string]any) (any, error) {
		return []any{float64(0), float64(0)}, nil
	})
	srv.Handle("ir.module.module", "search", func(args []any, kw map[string]any) (any, error) {
		domain, _ := args[0].([]any)
		nameCond, _ := domain[1].([]any)
		if nameCond[2] == "sale" {
			return []any{float64(12)}, nil
		}
		return []any{}, nil // already installed
	})
	srv.Handle("ir.module.module", "button_immediate_install", func(args []any, kw map[string]any) (any, error) {
		return true, nil
	})

	client := newImporter(t, srv)
	err := client.Settings.InstallModules(context.Background(), []string{"sale", "base"})
	require.NoError(t, err)

	installs := srv.CallsTo("ir.module.module", "button_immediate_install")
	require.Len(t, installs, 1)
	assert.Equal(t, []any{float64(12)}, installs[0].Args[0])
}

func TestGroupSettingsByLanguage(t *testing.T) {
	table := dataset.NewTable([]string{"Setting", "Value", "Language"})
	table.AppendRow([]string{"group_multi_currency", "True", ""})
	table.AppendRow([]string{"template_id", "x.tmpl", "de_DE"})
	table.AppendRow([]string{"company_share_limit", "3", ""})

	groups := importer.GroupSettingsByLanguage(table)
	require.Len(t, groups, 2)
	assert.Equal(t, "", groups[0].Lang)
	assert.Len(t, groups[0].Settings, 2)
	assert.Equal(t, "de_DE", groups[1].Lang)
	assert.Equal(t, "x.tmpl", groups[1].Settings["template_id"])
}
