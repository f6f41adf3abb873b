package results

import (
	"bytes"
	"encoding/csv"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// EncodeCSV renders flattened records as CSV. The header is the union of all
// record keys, ordered by first occurrence across the result set; records
// missing a column get an empty cell.
func EncodeCSV(records []Record) ([]byte, error) {
	var columns []string
	seen := map[string]struct{}{}
	for _, record := range records {
		for _, key := range record.Keys() {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			columns = append(columns, key)
		}
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	row := make([]string, len(columns))
	for _, record := range records {
		for i, column := range columns {
			value, ok := record.Get(column)
			if !ok {
				row[i] = ""
				continue
			}
			row[i] = formatCell(value)
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func formatCell(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	default:
		return fmt.Sprint(typed)
	}
}

// CSVFilename returns a short random filename of the form result_a1b2c3d4.csv.
func CSVFilename() string {
	id := uuid.New()
	return "result_" + hex.EncodeToString(id[:4]) + ".csv"
}
