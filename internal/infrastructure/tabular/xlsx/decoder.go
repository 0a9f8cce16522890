package xlsx

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Decoder reads the first sheet of a spreadsheet into a field mapping: the
// header row supplies keys. A single data row maps directly; multiple rows
// become a list of row mappings under "items".
type Decoder struct{}

func New() *Decoder {
	return &Decoder{}
}

func (d *Decoder) DecodeFirstSheet(blob []byte) (map[string]any, error) {
	file, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q has no data rows", sheets[0])
	}

	headers := rows[0]
	dataRows := rows[1:]

	if len(dataRows) == 1 {
		return rowToMap(headers, dataRows[0]), nil
	}

	items := make([]any, 0, len(dataRows))
	for _, row := range dataRows {
		items = append(items, rowToMap(headers, row))
	}
	return map[string]any{"items": items}, nil
}

func rowToMap(headers, row []string) map[string]any {
	out := make(map[string]any, len(headers))
	for i, header := range headers {
		if header == "" {
			continue
		}
		if i < len(row) {
			out[header] = row[i]
		}
	}
	return out
}
