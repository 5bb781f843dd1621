package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dmitrijs2005/dryerwatch/internal/client/models"
	"github.com/dmitrijs2005/dryerwatch/internal/common"
)

var fixedNow = time.Date(2026, 10, 15, 8, 5, 9, 0, time.UTC)

func TestFilename(t *testing.T) {
	assert.Equal(t, "report_2026-10-15T08-05-09.csv", Filename("report", "csv", false, fixedNow))
	assert.Equal(t, "report.xlsx", Filename("report", "xlsx", true, fixedNow))
}

func TestWriteCSV_QuotingAndFormatters(t *testing.T) {
	rows := []Row{
		{"name": "plain", "note": "a,b", "temp": 71.256},
		{"name": `say "hi"`, "note": "line1\nline2", "temp": nil},
		{"name": "zero", "note": "", "temp": 0.0},
	}
	var buf bytes.Buffer

	err := WriteCSV(&buf, rows, Options{
		Headers:    []string{"name", "note", "temp"},
		Formatters: map[string]Formatter{"temp": Celsius},
	})
	require.NoError(t, err)

	want := "name,note,temp\n" +
		"plain,\"a,b\",71.26°C\n" +
		"\"say \"\"hi\"\"\",\"line1\nline2\",\n" +
		"zero,,0.00°C\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_DefaultHeadersAndDelimiter(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []Row{{"b": 2, "a": "x;y"}}, Options{Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, "a;b\n\"x;y\";2\n", buf.String())
}

func TestWriteCSV_NoData(t *testing.T) {
	err := WriteCSV(&bytes.Buffer{}, nil, Options{})
	require.ErrorIs(t, err, common.ErrNoData)

	_, err = CSVFile(t.TempDir(), "empty", nil, Options{}, fixedNow)
	require.ErrorIs(t, err, common.ErrNoData)
}

func TestCSVFile_WritesTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	path, err := CSVFile(dir, "aggregates", []Row{{"a": 1}}, Options{}, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "aggregates_2026-10-15T08-05-09.csv"), path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(b))
}

func TestWriteExcel_SheetsWidthsAndEmptySheet(t *testing.T) {
	long := "a value that is certainly longer than fifty characters in total length"
	sheets := []Sheet{
		{Name: "Overview", Headers: []string{"metric", "value"}, Rows: []Row{
			{"metric": "Backup Date", "value": long},
			{"metric": "User", "value": "op"},
		}},
		{Name: "Empty"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, sheets))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Overview", "Empty"}, f.GetSheetList())

	rows, err := f.GetRows("Overview")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"metric", "value"}, {"Backup Date", long}, {"User", "op"}}, rows)

	w, err := f.GetColWidth("Overview", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(13), w, "longest cell 11 chars + 2")

	w, err = f.GetColWidth("Overview", "B")
	require.NoError(t, err)
	assert.Equal(t, float64(maxColWidth), w)

	empty, err := f.GetRows("Empty")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{NoDataText}}, empty)
}

func TestWriteExcel_MinimumWidth(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, []Sheet{{Name: "S", Rows: []Row{{"a": "x"}}}}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	w, err := f.GetColWidth("S", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(minColWidth+colPadding), w)
}

func TestAggregateExports(t *testing.T) {
	records := []models.AggregateRecord{{
		Date:        "2026-10-15",
		TimeSlot:    "08:00-08:10",
		MeanTemp:    decimal.RequireFromString("71.255"),
		MinTemp:     decimal.RequireFromString("70"),
		MaxTemp:     decimal.RequireFromString("72.5"),
		SampleCount: 60,
		IsExported:  true,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, AggregateRows(records), AggregateOptions()))
	assert.Equal(t,
		"date,timeSlot,meanTemp,minTemp,maxTemp,sampleCount,isExported\n"+
			"2026-10-15,08:00-08:10,71.26°C,70.00°C,72.50°C,60,true\n",
		buf.String())

	dir := t.TempDir()
	path, err := ExcelFile(dir, "aggregates", []Sheet{AggregateSheet("Daily Aggregates", records)}, Options{NoTimestamp: true}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "aggregates.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Daily Aggregates", "C2")
	require.NoError(t, err)
	assert.Equal(t, "71.26°C", v)
}

func TestCelsius(t *testing.T) {
	assert.Equal(t, "65.50°C", Celsius(65.5))
	assert.Equal(t, "65.00°C", Celsius(65))
	assert.Equal(t, "65.13°C", Celsius("65.125"))
	assert.Equal(t, "n/a", Celsius("n/a"))
	assert.Equal(t, true, Celsius(true))
}
