package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/dryerwatch/internal/client/backup"
	"github.com/dmitrijs2005/dryerwatch/internal/client/export"
	"github.com/dmitrijs2005/dryerwatch/internal/client/telemetry"
)

// Export writes today's aggregates to the export directory as CSV or Excel.
func (a *App) Export(ctx context.Context, format string) error {
	f, err := backup.ParseFormat(format)
	if err != nil {
		return err
	}

	return a.protected(ctx, "export", func(ctx context.Context) error {
		records, err := a.data.TodayAggregates(ctx)
		if err != nil {
			return err
		}

		var path string
		if f == backup.FormatCSV {
			path, err = export.CSVFile(a.config.ExportDir, "temperature_aggregates", export.AggregateRows(records), export.AggregateOptions(), a.now())
		} else {
			sheets := []export.Sheet{export.AggregateSheet("Daily Aggregates", records)}
			path, err = export.ExcelFile(a.config.ExportDir, "temperature_aggregates", sheets, export.Options{}, a.now())
		}
		if err != nil {
			return err
		}

		a.printf("Exported %d rows to %s\n", len(records), path)
		return nil
	})
}

// Backup runs an emergency backup in the given format.
func (a *App) Backup(ctx context.Context, format string) error {
	f, err := backup.ParseFormat(format)
	if err != nil {
		return err
	}

	return a.protected(ctx, "backup", func(ctx context.Context) error {
		if !a.backups.ShouldPerform(ctx, a.now()) &&
			!Confirm(a.reader, "A backup was made less than an hour ago. Run another?", a.out) {
			return nil
		}

		res, err := a.backups.Perform(ctx, f)
		if err != nil {
			return err
		}

		a.printf("Backup written to %s (%d data points, %s)\n", res.Filename, res.DataPoints, res.Duration.Round(time.Millisecond))
		if res.Location != "" {
			a.printf("Uploaded to %s\n", res.Location)
		}
		for _, e := range res.Errors {
			a.printf("  warning: %s: %s\n", e.Collector, e.Error)
		}
		return nil
	})
}

// Backups lists the server-side backup files.
func (a *App) Backups(ctx context.Context) error {
	return a.protected(ctx, "backups", func(ctx context.Context) error {
		files, err := a.data.Backups(ctx)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			a.printf("No server backups.\n")
			return nil
		}

		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tTYPE\tSIZE\tFILE")
		for _, f := range files {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", f.Date, orDash(f.Type), f.Size, f.Filename)
		}
		return tw.Flush()
	})
}

// Download saves a server backup into the export directory.
func (a *App) Download(ctx context.Context, kind, date string) error {
	return a.protected(ctx, "download", func(ctx context.Context) error {
		path, err := a.backups.DownloadServerBackup(ctx, kind, date, a.config.ExportDir)
		if err != nil {
			return err
		}
		a.printf("Saved %s\n", path)
		return nil
	})
}

// History prints the local backup history and its summary. With "clear" it
// empties the history after confirmation.
func (a *App) History(ctx context.Context, action string) error {
	if action == "clear" {
		if !Confirm(a.reader, "Clear the backup history?", a.out) {
			return nil
		}
		if err := a.backups.ClearHistory(ctx); err != nil {
			return err
		}
		a.printf("Backup history cleared.\n")
		return nil
	}

	entries, err := a.backups.History(ctx)
	if err != nil {
		return err
	}
	stats, err := a.backups.Stats(ctx, a.now())
	if err != nil {
		return err
	}

	a.printf("Backups: %d total, %d ok, %d failed, %d this week, %d today\n",
		stats.Total, stats.Successful, stats.Failed, stats.RecentWeek, stats.Today)
	if stats.AvgDuration > 0 {
		a.printf("Average duration: %s\n", stats.AvgDuration.Round(time.Millisecond))
	}
	if len(entries) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tFORMAT\tSTATUS\tPOINTS\tFILE")
	for _, e := range entries {
		file := e.Filename
		if e.Status == backup.StatusFailed {
			file = e.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", e.Timestamp.Local().Format(time.DateTime), e.Format, e.Status, e.DataPoints, file)
	}
	return tw.Flush()
}

// Errors shows the telemetry queue. "flush" retries delivery and "clear"
// empties it.
func (a *App) Errors(ctx context.Context, action string) error {
	switch action {
	case "flush":
		n := a.queue.Flush(ctx)
		a.printf("Delivered %d queued reports.\n", n)
		return nil
	case "clear":
		if err := a.queue.Clear(ctx); err != nil {
			return err
		}
		a.printf("Error queue cleared.\n")
		return nil
	case "":
	default:
		return fmt.Errorf("unknown errors action %q", action)
	}

	s := a.queue.Stats(a.now())
	a.printf("Queued reports: %d/%d (%d in the last 24h)\n", s.QueueSize, s.MaxQueueSize, s.RecentCount)
	for _, sev := range []telemetry.Severity{telemetry.SeverityHigh, telemetry.SeverityMedium, telemetry.SeverityLow} {
		if n := s.BySeverity[sev]; n > 0 {
			a.printf("  %-6s %d\n", sev, n)
		}
	}

	pending := a.queue.Pending()
	if len(pending) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tSEVERITY\tMESSAGE")
	for _, e := range pending {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format(time.DateTime), e.Type, e.Severity, truncate(e.Message, 60))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
