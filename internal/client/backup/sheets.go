package backup

import (
	"cmp"
	"slices"
	"time"

	"github.com/dmitrijs2005/dryerwatch/internal/client/export"
)

const (
	SheetOverview    = "Emergency Overview"
	SheetTemperature = "Current Temperature"
	SheetAggregates  = "Daily Aggregates"
	SheetStats       = "System Statistics"
)

var metricHeaders = []string{"metric", "value"}

// Sheets lays a snapshot out as the four worksheets of an Excel backup.
func Sheets(s *Snapshot) []export.Sheet {
	return []export.Sheet{
		{Name: SheetOverview, Rows: overviewRows(s), Headers: metricHeaders},
		{
			Name:       SheetTemperature,
			Rows:       temperatureRows(s),
			Headers:    []string{"timestamp", "temperature", "status", "type"},
			Formatters: map[string]export.Formatter{"temperature": export.Celsius},
		},
		export.AggregateSheet(SheetAggregates, s.Aggregates),
		{Name: SheetStats, Rows: statsRows(s), Headers: metricHeaders},
	}
}

func overviewRows(s *Snapshot) []export.Row {
	status := "Unknown"
	if s.Health != nil && s.Health.Status != "" {
		status = s.Health.Status
	}
	online := "Offline"
	if s.Online {
		online = "Online"
	}
	user := s.User
	if user == "" {
		user = "Anonymous"
	}

	return []export.Row{
		{"metric": "Backup Date", "value": s.Timestamp.Format(time.DateTime)},
		{"metric": "System Status", "value": status},
		{"metric": "User", "value": user},
		{"metric": "Host", "value": s.Host},
		{"metric": "Online Status", "value": online},
	}
}

func temperatureRows(s *Snapshot) []export.Row {
	if s.Temperature == nil {
		return nil
	}
	t := s.Temperature
	return []export.Row{{
		"timestamp":   t.Timestamp,
		"temperature": t.Temperature,
		"status":      t.Status,
		"type":        "current",
	}}
}

func statsRows(s *Snapshot) []export.Row {
	rows := make([]export.Row, 0, len(s.Stats))
	for k, v := range s.Stats {
		value := any("N/A")
		if v != nil {
			value = v
		}
		rows = append(rows, export.Row{"metric": k, "value": value})
	}
	slices.SortFunc(rows, func(a, b export.Row) int {
		return cmp.Compare(a["metric"].(string), b["metric"].(string))
	})
	return rows
}
