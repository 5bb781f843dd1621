package export

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// NoDataText fills the first cell of a sheet without rows.
const NoDataText = "No data available"

const (
	minColWidth = 10
	maxColWidth = 50
	colPadding  = 2
)

// Sheet is one worksheet. Headers and Formatters behave as in Options.
type Sheet struct {
	Name       string
	Rows       []Row
	Headers    []string
	Formatters map[string]Formatter
}

// WriteExcel writes a workbook with one worksheet per sheet, in order.
func WriteExcel(w io.Writer, sheets []Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}

		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}

		if err := fillSheet(f, name, s); err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func fillSheet(f *excelize.File, name string, s Sheet) error {
	if len(s.Rows) == 0 {
		return f.SetCellValue(name, "A1", NoDataText)
	}

	headers := headersFor(s.Rows, s.Headers)
	rows := applyFormatters(s.Rows, s.Formatters)

	widths := make([]int, len(headers))
	for c, h := range headers {
		widths[c] = max(minColWidth, utf8.RuneCountInString(h))
		if err := setCell(f, name, c+1, 1, h); err != nil {
			return err
		}
	}

	for r, row := range rows {
		for c, h := range headers {
			v := row[h]
			if err := setCell(f, name, c+1, r+2, cellValue(v)); err != nil {
				return err
			}
			widths[c] = max(widths[c], utf8.RuneCountInString(text(v)))
		}
	}

	for c, width := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, col, col, float64(min(width+colPadding, maxColWidth))); err != nil {
			return err
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, v)
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return t.InexactFloat64()
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return v
}

// ExcelFile writes sheets to a new timestamped .xlsx in dir and returns its
// path.
func ExcelFile(dir, base string, sheets []Sheet, opts Options, now time.Time) (string, error) {
	return writeFile(dir, Filename(base, "xlsx", opts.NoTimestamp, now), func(w io.Writer) error {
		return WriteExcel(w, sheets)
	})
}
