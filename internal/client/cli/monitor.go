package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/dryerwatch/internal/client/export"
	"github.com/dmitrijs2005/dryerwatch/internal/client/health"
	"github.com/dmitrijs2005/dryerwatch/internal/client/models"
	"github.com/dmitrijs2005/dryerwatch/internal/client/schedule"
)

const (
	defaultWatchInterval = 5 * time.Second
	defaultWatchCount    = 12
)

// Status runs a health check now and prints every component.
func (a *App) Status(ctx context.Context) error {
	s := a.health.Poll(ctx)
	_, stats := a.health.Last()

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Overall\t%s\t%s\n", s.Overall, health.StatusColor(s.Overall))
	fmt.Fprintf(tw, "API\t%s\t%s\n", s.API.Status, connected(s.API.Connected))
	fmt.Fprintf(tw, "Database\t%s\t%s%s\n", s.Database.Status, connected(s.Database.Connected), latency(s.Database.Latency))
	fmt.Fprintf(tw, "MQTT\t%s\t%s%s\n", s.MQTT.Status, connected(s.MQTT.Connected), broker(s.MQTT))
	if !s.LastCheck.IsZero() {
		fmt.Fprintf(tw, "Checked\t%s\t\n", s.LastCheck.Local().Format(time.DateTime))
	}
	if s.Error != "" {
		fmt.Fprintf(tw, "Error\t%s\t\n", s.Error)
	}

	if len(stats.Values) > 0 {
		fmt.Fprintln(tw, "\t\t")
		printStats(tw, stats.Values)
	}
	return tw.Flush()
}

func printStats(w io.Writer, values models.SystemStats) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%v\t\n", k, values[k])
	}
}

// Info fetches health, statistics and the current reading in one parallel
// round and prints whatever arrived.
func (a *App) Info(ctx context.Context) error {
	return a.protected(ctx, "info", func(ctx context.Context) error {
		info := a.data.BatchSystemInfo(ctx)

		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		if info.HealthErr != nil {
			fmt.Fprintf(tw, "Health\tunavailable\t%v\n", info.HealthErr)
		} else if info.Health != nil {
			fmt.Fprintf(tw, "Health\t%s\t%s\n", info.Health.Status, health.StatusColor(info.Health.Status))
		}
		if info.TemperatureErr != nil {
			fmt.Fprintf(tw, "Temperature\tunavailable\t%v\n", info.TemperatureErr)
		} else if info.Temperature != nil {
			fmt.Fprintf(tw, "Temperature\t%s\t%s\n", export.Celsius(info.Temperature.Temperature), info.Temperature.Timestamp)
		}
		if info.StatsErr != nil {
			fmt.Fprintf(tw, "Stats\tunavailable\t%v\n", info.StatsErr)
		} else {
			printStats(tw, info.Stats)
		}
		fmt.Fprintf(tw, "Fetched\t%s\t\n", info.Timestamp.Local().Format(time.DateTime))
		return tw.Flush()
	})
}

// Users lists the accounts known to the backend.
func (a *App) Users(ctx context.Context) error {
	return a.protected(ctx, "users", func(ctx context.Context) error {
		users, err := a.data.Users(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE")
		for _, u := range users {
			role := orDash(u.Role)
			if u.IsDefaultAdmin {
				role += " (default)"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Username, orDash(u.Email), role)
		}
		return tw.Flush()
	})
}

func connected(ok bool) string {
	if ok {
		return "connected"
	}
	return "disconnected"
}

func latency(ms *int64) string {
	if ms == nil {
		return ""
	}
	return fmt.Sprintf(" (%dms)", *ms)
}

func broker(c health.Component) string {
	if c.Broker == "" {
		return ""
	}
	if c.Topic == "" {
		return " " + c.Broker
	}
	return fmt.Sprintf(" %s %s", c.Broker, c.Topic)
}

// Temperature prints the latest reading.
func (a *App) Temperature(ctx context.Context) error {
	return a.protected(ctx, "temperature", a.printTemperature)
}

func (a *App) printTemperature(ctx context.Context) error {
	r, err := a.data.CurrentTemperature(ctx)
	if err != nil {
		return err
	}
	status := r.Status
	if status == "" {
		status = "-"
	}
	a.printf("%s  %s  %s\n", r.Timestamp, export.Celsius(r.Temperature), status)
	return nil
}

// Today prints today's aggregates as a table.
func (a *App) Today(ctx context.Context) error {
	return a.protected(ctx, "today", func(ctx context.Context) error {
		records, err := a.data.TodayAggregates(ctx)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			a.printf("No data for today.\n")
			return nil
		}

		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SLOT\tMEAN\tMIN\tMAX\tSAMPLES\tEXPORTED")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%t\n",
				r.TimeSlot, export.Celsius(r.MeanTemp), export.Celsius(r.MinTemp), export.Celsius(r.MaxTemp), r.SampleCount, r.IsExported)
		}
		return tw.Flush()
	})
}

// Watch prints the current temperature every interval, count times. Zero
// values pick the defaults.
func (a *App) Watch(ctx context.Context, interval time.Duration, count int) error {
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	if count <= 0 {
		count = defaultWatchCount
	}

	return a.protected(ctx, "watch", func(ctx context.Context) error {
		n := 0
		var lastErr error
		schedule.Run(ctx, 0, func(ctx context.Context) (time.Duration, bool) {
			n++
			if err := a.printTemperature(ctx); err != nil {
				a.printf("reading failed: %v\n", err)
				lastErr = err
			}
			return interval, n < count && a.isLoggedIn()
		})
		if n == 0 {
			return ctx.Err()
		}
		return lastErr
	})
}
