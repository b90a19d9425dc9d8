package dataset

import (
	"regexp"
	"strings"
)

// =============================================================================
// LANGUAGE COLUMNS
// Columns suffixed ":lang:xx_XX" carry translated values. They are stripped
// from the base upload and written afterwards under a language context.
// =============================================================================

var langColRegex = regexp.MustCompile(`^(?P<col>.*):lang:(?P<lang>.*)$`)

// LangPair links a language column to the id column it belongs to and the
// Odoo field it translates.
type LangPair struct {
	IDColumn    string // column holding the affected external id
	ValueColumn string // column holding the translated value
	FieldName   string // Odoo field name to write
	Lang        string // language context
}

// LanguageColumns returns the table's language columns keyed by column name.
func LanguageColumns(t *Table) map[string]LangPair {
	out := map[string]LangPair{}
	for _, col := range t.Columns {
		match := langColRegex.FindStringSubmatch(col)
		if match == nil {
			continue
		}
		out[col] = LangPair{ValueColumn: col, FieldName: match[1], Lang: match[2]}
	}
	return out
}

// StripLanguage returns a copy of the table without language columns.
func StripLanguage(t *Table) *Table {
	langCols := LanguageColumns(t)
	return t.Select(func(col string) bool {
		_, isLang := langCols[col]
		return !isLang
	})
}

// LanguagePairs resolves each language column to its id column. A header
// like "child_ids/name:lang:de_DE" belongs to the closest "child_ids/id"
// style column; a plain "name:lang:de_DE" belongs to "id". When no nested
// id column exists the pair falls back to the root "id" column.
func LanguagePairs(t *Table) []LangPair {
	var pairs []LangPair
	for _, col := range t.Columns {
		match := langColRegex.FindStringSubmatch(col)
		if match == nil {
			continue
		}
		refCol, lang := match[1], match[2]
		pair := LangPair{ValueColumn: col, Lang: lang, IDColumn: "id", FieldName: refCol}

		if strings.Contains(refCol, "/") {
			splits := strings.Split(refCol, "/")
			for back := 1; back < len(splits); back++ {
				idTry := strings.Join(append(append([]string{}, splits[:len(splits)-back]...), "id"), "/")
				if t.HasColumn(idTry) {
					pair.IDColumn = idTry
					pair.FieldName = strings.Join(splits[len(splits)-back:], ".")
					break
				}
			}
			if pair.IDColumn == "id" {
				pair.FieldName = strings.Join(splits, ".")
			}
		}
		pairs = append(pairs, pair)
	}
	return pairs
}
