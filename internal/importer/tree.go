package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/godoo/godoo-rpc/internal/dataset"
	"github.com/godoo/godoo-rpc/internal/odoo"
)

// =============================================================================
// TREE IMPORTER
// Imports a whole folder of datasets. Files are named like
// 001_Base/001_res.partner.csv; the numeric prefixes of folders and files
// fix the import order. Some reserved references dispatch to the settings,
// translation and module installers instead of the data importer.
// =============================================================================

// Reserved dataset references with special handling.
const (
	RefModules   = "odoo-modules"
	RefSettings  = "odoo-settings"
	RefTranslate = "odoo-translate"
	RefArchive   = "odoo-archive"
	RefUnarchive = "odoo-unarchive"
)

// timestampCacheKey is the ir.config_parameter key holding import mtimes.
const timestampCacheKey = "godoo_rpc_import_cache"

// TreeImporter imports datasets from a filesystem tree.
type TreeImporter struct {
	client *Client
	log    *zap.Logger
}

// TreeOptions configure a tree import.
type TreeOptions struct {
	// DataPattern matches data file names and must define a named group
	// "module" holding the target model reference.
	DataPattern *regexp.Regexp

	// ImagePattern optionally matches product image files under the
	// tree's img/ folder; needs a named group "default_code".
	ImagePattern *regexp.Regexp

	// BatchSize caps rows per upload request.
	BatchSize int

	// SkipExisting drops rows whose external ids already exist.
	SkipExisting bool

	// TimestampCache records file mtimes in ir.config_parameter and skips
	// unchanged files on later runs.
	TimestampCache bool
}

// ImportPath imports a tree (directory) or a single data file.
func (t *TreeImporter) ImportPath(ctx context.Context, path string, opts TreeOptions) error {
	if opts.DataPattern == nil {
		return fmt.Errorf("data pattern is required")
	}
	moduleIdx := namedGroupIndex(opts.DataPattern, "module")
	if moduleIdx < 0 {
		return fmt.Errorf("data pattern %q needs a named group module", opts.DataPattern)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var datasets []*dataset.Dataset
	if info.IsDir() {
		datasets, err = t.gather(path, opts.DataPattern, moduleIdx)
		if err != nil {
			return err
		}
	} else {
		match := opts.DataPattern.FindStringSubmatch(filepath.Base(path))
		if match == nil {
			return fmt.Errorf("cannot parse file name %q with data pattern", filepath.Base(path))
		}
		datasets = []*dataset.Dataset{dataset.New(path, match[moduleIdx])}
	}

	t.log.Info("collected import files", zap.Int("files", len(datasets)))
	for idx, ds := range datasets {
		t.log.Info("processing dataset",
			zap.Int("dataset", idx+1),
			zap.Int("datasets", len(datasets)),
			zap.String("reference", ds.Reference),
			zap.String("file", ds.Name()))
		if opts.TimestampCache {
			err = t.importTimestamped(ctx, ds, path, opts)
		} else {
			err = t.importDataset(ctx, ds, opts)
		}
		if err != nil {
			return fmt.Errorf("import %s: %w", ds.Name(), err)
		}
	}

	if opts.ImagePattern != nil && info.IsDir() {
		images, err := t.client.Images.FindImages(filepath.Join(path, "img"), opts.ImagePattern)
		if err != nil {
			return err
		}
		return t.client.Images.Import(ctx, images, !opts.SkipExisting)
	}
	return nil
}

// gather collects matching files below root, ordered by the combined
// folder/file sort key.
func (t *TreeImporter) gather(root string, pattern *regexp.Regexp, moduleIdx int) ([]*dataset.Dataset, error) {
	var out []*dataset.Dataset
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if match := pattern.FindStringSubmatch(d.Name()); match != nil {
			out = append(out, dataset.New(path, match[moduleIdx]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SortKey(root) < out[j].SortKey(root)
	})
	return out, nil
}

// importDataset dispatches one dataset on its reference.
func (t *TreeImporter) importDataset(ctx context.Context, ds *dataset.Dataset, opts TreeOptions) error {
	table, err := ds.Table()
	if err != nil {
		return err
	}

	switch ds.Reference {
	case RefModules:
		t.log.Info("installing modules", zap.String("file", ds.Name()))
		return t.client.Settings.InstallModules(ctx, table.UniqueValues("Name"))

	case RefSettings:
		t.log.Info("importing settings", zap.String("file", ds.Name()))
		for _, group := range GroupSettingsByLanguage(table) {
			if err := t.client.Settings.Import(ctx, group.Settings, group.Lang); err != nil {
				return err
			}
		}
		return nil

	case RefTranslate:
		t.log.Info("importing translations", zap.String("file", ds.Name()))
		return t.client.Translations.Import(ctx, table)

	case RefArchive:
		return t.toggleArchived(ctx, table, ds.Name(), true)

	case RefUnarchive:
		return t.toggleArchived(ctx, table, ds.Name(), false)

	default:
		t.log.Info("importing data",
			zap.String("file", ds.Name()),
			zap.String("model", ds.Reference))
		return t.client.Data.Upload(ctx, table, ds.Reference, UploadOptions{
			BatchSize:    opts.BatchSize,
			Source:       ds.Name(),
			SkipExisting: opts.SkipExisting,
		})
	}
}

// toggleArchived archives or unarchives the records listed in the table's
// id column, skipping records already in the wanted state.
func (t *TreeImporter) toggleArchived(ctx context.Context, table *dataset.Table, source string, archive bool) error {
	ids := table.UniqueValues("id")
	action := "action_unarchive"
	if archive {
		action = "action_archive"
	}
	t.log.Info("toggling archive flag",
		zap.String("action", action),
		zap.Int("records", len(ids)),
		zap.String("file", source))

	for _, xmlID := range ids {
		ref, err := t.client.API.Ref(ctx, xmlID)
		if err != nil {
			return err
		}
		record, err := t.client.API.Model(ref.Model).ReadOne(ctx, ref.ID, []string{"active"})
		if err != nil {
			return err
		}
		active, _ := record["active"].(bool)
		if active != archive {
			continue // already in the wanted state
		}
		t.log.Debug("toggling record",
			zap.String("xml_id", xmlID),
			zap.String("action", action))
		if _, err := t.client.API.Model(ref.Model).ExecuteKw(ctx, action, []any{[]int64{ref.ID}}, nil); err != nil {
			return fmt.Errorf("%s %s: %w", action, xmlID, err)
		}
	}
	return nil
}

// =============================================================================
// TIMESTAMP CACHE
// Import mtimes are kept as a JSON map in ir.config_parameter so unchanged
// files can be skipped across runs.
// =============================================================================

func (t *TreeImporter) importTimestamped(ctx context.Context, ds *dataset.Dataset, root string, opts TreeOptions) error {
	info, err := os.Stat(ds.Path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", ds.Path, err)
	}
	mtime := info.ModTime().UTC()

	relPath, err := filepath.Rel(root, ds.Path)
	if err != nil {
		relPath = ds.Path
	}
	relPath = filepath.ToSlash(relPath)

	params := t.client.API.Model("ir.config_parameter")
	records, err := params.SearchRead(ctx,
		odoo.NewDomain(odoo.C("key", "=", timestampCacheKey)),
		[]string{"value"}, &odoo.SearchOptions{Limit: 1})
	if err != nil {
		return fmt.Errorf("read import cache: %w", err)
	}

	cache := map[string]string{}
	var cacheID int64
	if len(records) > 0 {
		cacheID = odoo.RelationID(records[0]["id"])
		if value, ok := records[0]["value"].(string); ok && value != "" {
			if err := json.Unmarshal([]byte(value), &cache); err != nil {
				t.log.Warn("discarding unreadable import cache", zap.Error(err))
				cache = map[string]string{}
			}
		}
	}

	if stamp, ok := cache[relPath]; ok {
		if cached, err := time.Parse(time.RFC3339Nano, stamp); err == nil && !mtime.After(cached) {
			t.log.Debug("skipping unchanged file", zap.String("file", relPath))
			return nil
		}
	}

	if err := t.importDataset(ctx, ds, opts); err != nil {
		return err
	}

	cache[relPath] = mtime.Format(time.RFC3339Nano)
	payload, err := json.Marshal(cache)
	if err != nil {
		return err
	}
	if cacheID != 0 {
		return params.Write(ctx, []int64{cacheID}, map[string]any{"value": string(payload)})
	}
	_, err = params.Create(ctx, map[string]any{"key": timestampCacheKey, "value": string(payload)})
	return err
}

func namedGroupIndex(pattern *regexp.Regexp, name string) int {
	for idx, n := range pattern.SubexpNames() {
		if n == name {
			return idx
		}
	}
	return -1
}
