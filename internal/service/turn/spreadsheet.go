package turn

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/xuri/excelize/v2"

	"chatdesk/internal/models"
)

// record is one spreadsheet row keyed by header, in column order.
type record = *orderedmap.OrderedMap[string, any]

// SpreadsheetExtractor reads the first sheet of an .xlsx or .xls workbook
// and serialises it as a JSON array of row records.
type SpreadsheetExtractor struct{}

func (SpreadsheetExtractor) Extract(file UploadedFile) (Extraction, error) {
	var (
		rows [][]cell
		err  error
	)
	if strings.EqualFold(filepath.Ext(file.Name), ".xls") {
		rows, err = readXLS(file.Data)
	} else {
		rows, err = readXLSX(file.Data)
	}
	if err != nil {
		return Extraction{}, err
	}

	payload, err := marshalRecords(toRecords(rows))
	if err != nil {
		return Extraction{}, fmt.Errorf("serialize rows: %w", err)
	}
	text := fmt.Sprintf("--- Content from Excel file: %s ---\n%s", file.Name, payload)
	return Extraction{Part: models.TextPart{Text: text}}, nil
}

type cellKind int

const (
	cellText cellKind = iota
	cellNumber
	cellBool
	// cellGuess is used when the reader only exposes formatted text.
	cellGuess
)

type cell struct {
	text string
	kind cellKind
}

func readXLSX(data []byte) ([][]cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	rows := make([][]cell, len(raw))
	for r, values := range raw {
		cells := make([]cell, len(values))
		for c, value := range values {
			cells[c] = cell{text: value}
			if value == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheet, name)
			if err != nil {
				return nil, err
			}
			cells[c].kind = xlsxKind(typ)
		}
		rows[r] = cells
	}
	return rows, nil
}

// xlsxKind maps the stored cell type. Plain numbers are written without a
// type attribute, so unset counts as numeric.
func xlsxKind(typ excelize.CellType) cellKind {
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		return cellNumber
	case excelize.CellTypeBool:
		return cellBool
	default:
		return cellText
	}
}

func readXLS(data []byte) ([][]cell, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("workbook has no sheets")
	}

	rows := make([][]cell, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row, ok := xlsRow(sheet, i)
		if !ok {
			rows = append(rows, nil)
			continue
		}
		cells := make([]cell, 0, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			for len(cells) < j {
				cells = append(cells, cell{})
			}
			cells = append(cells, cell{text: row.Col(j), kind: cellGuess})
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// xlsRow guards against missing rows; the library dereferences them blindly.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row, ok bool) {
	defer func() {
		if recover() != nil {
			row, ok = nil, false
		}
	}()
	row = sheet.Row(i)
	return row, row != nil
}

// toRecords treats the first row as the header. Empty rows are skipped,
// missing cells become null.
func toRecords(rows [][]cell) []record {
	if len(rows) == 0 {
		return []record{}
	}
	header := headerNames(rows[0])
	records := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := orderedmap.New[string, any]()
		for i, name := range header {
			var c cell
			if i < len(row) {
				c = row[i]
			}
			rec.Set(name, cellValue(c))
		}
		records = append(records, rec)
	}
	return records
}

func headerNames(row []cell) []string {
	names := make([]string, len(row))
	seen := make(map[string]int, len(row))
	for i, c := range row {
		name := strings.TrimSpace(c.text)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		names[i] = name
	}
	return names
}

func isBlankRow(row []cell) bool {
	for _, c := range row {
		if strings.TrimSpace(c.text) != "" {
			return false
		}
	}
	return true
}

// missingValues are the strings read back as null.
var missingValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

func cellValue(c cell) any {
	trimmed := strings.TrimSpace(c.text)
	if _, missing := missingValues[trimmed]; missing {
		return nil
	}
	switch c.kind {
	case cellNumber:
		if v, ok := parseNumber(trimmed); ok {
			return v
		}
	case cellBool:
		return trimmed == "1" || strings.EqualFold(trimmed, "true")
	case cellGuess:
		if plainNumber(trimmed) {
			if v, ok := parseNumber(trimmed); ok {
				return v
			}
		}
	}
	return c.text
}

// parseNumber never yields NaN or an infinity, which JSON cannot carry.
func parseNumber(s string) (any, bool) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return f, true
}

// plainNumber accepts decimal notation only. A leading zero before another
// digit marks an identifier such as "007", not a quantity.
func plainNumber(s string) bool {
	digits := strings.TrimPrefix(s, "-")
	if digits == "" {
		return false
	}
	if len(digits) > 1 && digits[0] == '0' && digits[1] != '.' {
		return false
	}
	seenDigit, seenDot, seenExp := false, false, false
	for i := 0; i < len(digits); i++ {
		switch ch := digits[i]; {
		case ch >= '0' && ch <= '9':
			seenDigit = true
		case ch == '.' && !seenDot && !seenExp:
			seenDot = true
		case (ch == 'e' || ch == 'E') && seenDigit && !seenExp:
			seenExp = true
			seenDigit = false
			if i+1 < len(digits) && (digits[i+1] == '+' || digits[i+1] == '-') {
				i++
			}
		default:
			return false
		}
	}
	return seenDigit
}

func marshalRecords(records []record) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
