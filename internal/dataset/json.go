package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// =============================================================================
// JSON TABLE READING
// Accepts the pandas orient="table" layout the original toolchain exported:
// {"schema": {"fields": [{"name": ...}]}, "data": [{col: val, ...}]}.
// =============================================================================

type jsonTableFile struct {
	Schema struct {
		Fields []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"fields"`
	} `json:"schema"`
	Data []map[string]any `json:"data"`
}

// ReadJSON loads a table-oriented JSON file.
func ReadJSON(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open json: %w", err)
	}
	var file jsonTableFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse json table %s: %w", path, err)
	}
	if len(file.Schema.Fields) == 0 {
		return nil, fmt.Errorf("json table %s has no schema fields", path)
	}

	table := &Table{Types: map[string]string{}}
	for _, f := range file.Schema.Fields {
		if f.Name == "index" { // pandas row index, not data
			continue
		}
		table.Columns = append(table.Columns, f.Name)
		if f.Type != "" {
			table.Types[f.Name] = f.Type
		}
	}
	for _, record := range file.Data {
		cells := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			cells[i] = Stringify(record[col])
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}

// Stringify renders a decoded JSON or SQL value as an import cell.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "True"
		}
		return "False"
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
