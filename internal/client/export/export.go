// Package export writes tabular data as CSV files and Excel workbooks.
package export

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one record keyed by column name.
type Row map[string]any

// Formatter rewrites a single value before it is written.
type Formatter func(v any) any

type Options struct {
	// Headers fixes the column order. Without it the first row's keys are
	// used in sorted order.
	Headers []string

	// Delimiter defaults to a comma. CSV only.
	Delimiter rune

	Formatters  map[string]Formatter
	NoTimestamp bool
}

const timestampLayout = "2006-01-02T15-04-05"

// Filename appends a UTC timestamp suffix to base unless noTimestamp is set.
func Filename(base, ext string, noTimestamp bool, now time.Time) string {
	if noTimestamp {
		return base + "." + ext
	}
	return base + "_" + now.UTC().Format(timestampLayout) + "." + ext
}

func headersFor(rows []Row, headers []string) []string {
	if len(headers) > 0 || len(rows) == 0 {
		return headers
	}
	keys := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func applyFormatters(rows []Row, formatters map[string]Formatter) []Row {
	if len(formatters) == 0 {
		return rows
	}
	out := make([]Row, len(rows))
	for i, row := range rows {
		r := make(Row, len(row))
		for k, v := range row {
			if f, ok := formatters[k]; ok && v != nil {
				v = f(v)
			}
			r[k] = v
		}
		out[i] = r
	}
	return out
}

// text renders a value the way it appears in a CSV field or is measured for
// column width.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Celsius formats a temperature with two decimals and a degree suffix.
func Celsius(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		return t.StringFixed(2) + "°C"
	case float64:
		return fmt.Sprintf("%.2f°C", t)
	case float32:
		return fmt.Sprintf("%.2f°C", t)
	case int:
		return fmt.Sprintf("%d.00°C", t)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return t
		}
		return d.StringFixed(2) + "°C"
	}
	return v
}
