package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/dryerwatch/internal/common"
	"github.com/dmitrijs2005/dryerwatch/internal/filex"
)

// WriteCSV writes a header row followed by one line per row. A field is
// quoted when it contains the delimiter, a quote or a line break.
func WriteCSV(w io.Writer, rows []Row, opts Options) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: nothing to export", common.ErrNoData)
	}

	headers := headersFor(rows, opts.Headers)
	rows = applyFormatters(rows, opts.Formatters)

	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}

	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(headers))
	for _, row := range rows {
		for i, h := range headers {
			record[i] = text(row[h])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// CSVFile writes rows to a new timestamped file in dir and returns its path.
func CSVFile(dir, base string, rows []Row, opts Options, now time.Time) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("%w: nothing to export", common.ErrNoData)
	}
	return writeFile(dir, Filename(base, "csv", opts.NoTimestamp, now), func(w io.Writer) error {
		return WriteCSV(w, rows, opts)
	})
}

func writeFile(dir, name string, write func(io.Writer) error) (string, error) {
	f, err := filex.Create(dir, name)
	if err != nil {
		return "", err
	}

	if err := write(f); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return f.Name(), nil
}
