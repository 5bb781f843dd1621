package export

import (
	"github.com/dmitrijs2005/dryerwatch/internal/client/models"
)

// AggregateHeaders is the column order of aggregate exports.
var AggregateHeaders = []string{"date", "timeSlot", "meanTemp", "minTemp", "maxTemp", "sampleCount", "isExported"}

// AggregateFormatters render the temperature columns in degrees Celsius.
func AggregateFormatters() map[string]Formatter {
	return map[string]Formatter{
		"meanTemp": Celsius,
		"minTemp":  Celsius,
		"maxTemp":  Celsius,
	}
}

func AggregateRows(records []models.AggregateRecord) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{
			"date":        r.Date,
			"timeSlot":    r.TimeSlot,
			"meanTemp":    r.MeanTemp,
			"minTemp":     r.MinTemp,
			"maxTemp":     r.MaxTemp,
			"sampleCount": r.SampleCount,
			"isExported":  r.IsExported,
		}
	}
	return rows
}

// AggregateOptions is the preset used for aggregate CSV exports.
func AggregateOptions() Options {
	return Options{Headers: AggregateHeaders, Formatters: AggregateFormatters()}
}

// AggregateSheet is the preset used for aggregate worksheets.
func AggregateSheet(name string, records []models.AggregateRecord) Sheet {
	return Sheet{Name: name, Rows: AggregateRows(records), Headers: AggregateHeaders, Formatters: AggregateFormatters()}
}
