package spreadsheet

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/xuri/excelize/v2"
)

// oleHeader starts compound documents: BIFF .xls workbooks and encrypted
// xlsx files
var oleHeader = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// readWorkbook loads the first worksheet of an xlsx workbook. Cells keep
// their raw values; numbers are flagged so amount parsing never runs the
// separator heuristics on them.
func readWorkbook(r io.Reader, maxRows int) (*Sheet, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(oleHeader)); err == nil && bytes.Equal(head, oleHeader) {
		return nil, ErrLegacyWorkbook
	}

	f, err := excelize.OpenReader(br)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	name := sheets[0]

	grid, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	headerIdx := -1
	for i, cols := range grid {
		if !blankRow(cols) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrEmptyFile
	}

	headers := make([]string, len(grid[headerIdx]))
	for i, h := range grid[headerIdx] {
		headers[i] = strings.TrimSpace(h)
	}

	sheet := &Sheet{Headers: headers}
	for i := headerIdx + 1; i < len(grid); i++ {
		cols := grid[i]
		if blankRow(cols) {
			continue
		}
		if maxRows > 0 && len(sheet.Rows) >= maxRows {
			return nil, tooManyRows(maxRows)
		}

		row := &Row{
			LineNumber: i + 1,
			Cells:      make(map[string]marketplace.Cell, len(headers)),
		}
		for j, raw := range cols {
			if j >= len(headers) || headers[j] == "" {
				continue
			}
			v := strings.TrimSpace(raw)
			if v == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(name, axis)
			if err != nil {
				return nil, err
			}
			row.Cells[headers[j]] = marketplace.Cell{Value: v, Numeric: isNumber(typ, v)}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

// isNumber reports numeric cells. Cells without a type attribute are
// numbers in SpreadsheetML.
func isNumber(typ excelize.CellType, v string) bool {
	if typ != excelize.CellTypeNumber && typ != excelize.CellTypeUnset {
		return false
	}
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

func blankRow(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
