package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// =============================================================================
// CSV READING
// The delimiter is sniffed from the header line; ":type:" column suffixes
// become type hints.
// =============================================================================

var typeColRegex = regexp.MustCompile(`^(?P<col>.*):type:(?P<type>.*)$`)

// sniffCandidates are tried in order; ties go to the earlier candidate.
var sniffCandidates = []rune{',', ';', '\t', '|'}

// SniffDelimiter picks the most frequent candidate delimiter outside quoted
// sections of the header line. Defaults to comma.
func SniffDelimiter(header string) rune {
	best := ','
	bestCount := 0
	for _, cand := range sniffCandidates {
		count := 0
		inQuotes := false
		for _, r := range header {
			switch {
			case r == '"':
				inQuotes = !inQuotes
			case r == cand && !inQuotes:
				count++
			}
		}
		if count > bestCount {
			best = cand
			bestCount = count
		}
	}
	return best
}

// ReadCSV loads a CSV file, sniffing the delimiter from the first line.
// A ";" delimiter implies decimal-comma data; the dialect is recorded on the
// table so the upload options can declare the matching float separators.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	buffered := bufio.NewReader(f)
	header, err := buffered.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	delimiter := SniffDelimiter(header)

	reader := csv.NewReader(io.MultiReader(strings.NewReader(header), buffered))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	table := &Table{Types: map[string]string{}}
	for _, col := range records[0] {
		col = strings.TrimSpace(col)
		if match := typeColRegex.FindStringSubmatch(col); match != nil {
			col = match[1]
			table.Types[col] = match[2]
		}
		table.Columns = append(table.Columns, col)
	}
	if delimiter == ';' {
		table.DecimalComma = true
	}
	for _, row := range records[1:] {
		table.AppendRow(row)
	}
	return table, nil
}

// WriteCSV renders the table as a comma separated payload suitable for the
// base_import upload, quoting only where needed.
func WriteCSV(t *Table) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(t.Columns); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		copy(cells, row)
		if err := w.Write(cells); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
