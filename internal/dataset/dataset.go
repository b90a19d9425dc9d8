package dataset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// =============================================================================
// DATASET
// A file on disk bound to its target Odoo model plus the lazily read table.
// =============================================================================

// folderOrderRegex matches the "NNN_name" folder convention that fixes
// import order inside a tree.
var folderOrderRegex = regexp.MustCompile(`^(\d+)_.*`)

// Dataset binds an import file to its target model reference.
type Dataset struct {
	// Path is the file location on disk.
	Path string

	// Reference is the target Odoo model name, or one of the special
	// "odoo-*" references handled by the tree importer.
	Reference string

	table *Table
}

// New creates a dataset for the given file and model reference.
func New(path, reference string) *Dataset {
	return &Dataset{Path: path, Reference: reference}
}

// Name returns the file's base name.
func (d *Dataset) Name() string { return filepath.Base(d.Path) }

// Table reads the file into a table, dispatching on the extension. The
// result is cached on the dataset.
func (d *Dataset) Table() (*Table, error) {
	if d.table != nil {
		return d.table, nil
	}
	var (
		t   *Table
		err error
	)
	switch strings.ToLower(filepath.Ext(d.Path)) {
	case ".csv":
		t, err = ReadCSV(d.Path)
	case ".json":
		t, err = ReadJSON(d.Path)
	case ".xlsx":
		t, err = d.readFirstSheet()
	default:
		return nil, fmt.Errorf("no reader for file type %q (%s)", filepath.Ext(d.Path), d.Path)
	}
	if err != nil {
		return nil, err
	}
	d.table = t
	return t, nil
}

// SetTable injects an already loaded table (e.g. from a SQL query).
func (d *Dataset) SetTable(t *Table) { d.table = t }

func (d *Dataset) readFirstSheet() (*Table, error) {
	wb, err := OpenWorkbook(d.Path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return &Table{}, nil
	}
	return wb.Table(sheets[0])
}

// SortKey builds the ordering key for an import tree: the names of all
// "NNN_" prefixed parent folders up to root, outermost first, followed by
// the file name. Sorting datasets by this key yields the combined
// folder/file index order.
func (d *Dataset) SortKey(root string) string {
	parts := []string{filepath.Base(d.Path)}
	dir := filepath.Dir(d.Path)
	rootClean := filepath.Clean(root)
	for {
		dirClean := filepath.Clean(dir)
		if dirClean == rootClean || dirClean == "." || dirClean == string(filepath.Separator) {
			break
		}
		name := filepath.Base(dirClean)
		if folderOrderRegex.MatchString(name) {
			parts = append(parts, name)
		}
		parent := filepath.Dir(dirClean)
		if parent == dirClean {
			break
		}
		dir = parent
	}
	// parts were collected innermost-first
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}
