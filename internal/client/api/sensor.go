package api

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/dryerwatch/internal/client/models"
)

func (c *Client) CurrentTemperature(ctx context.Context) (*models.Reading, error) {
	r, err := get[models.Reading](ctx, c, "/sensor/current")
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) TodayAggregates(ctx context.Context) ([]models.AggregateRecord, error) {
	return get[[]models.AggregateRecord](ctx, c, "/sensor/aggregate/today")
}

func (c *Client) SystemStats(ctx context.Context) (models.SystemStats, error) {
	return get[models.SystemStats](ctx, c, "/sensor/stats")
}

func (c *Client) SystemStatus(ctx context.Context) (map[string]any, error) {
	return get[map[string]any](ctx, c, "/system/status")
}

// SystemInfo is the combined outcome of BatchSystemInfo. A nil part has its
// error set alongside.
type SystemInfo struct {
	Health         *models.HealthReport
	HealthErr      error
	Stats          models.SystemStats
	StatsErr       error
	Temperature    *models.Reading
	TemperatureErr error
	Timestamp      time.Time
}

// BatchSystemInfo fetches health, stats and the current temperature in
// parallel. One failing fetch does not cancel the others.
func (c *Client) BatchSystemInfo(ctx context.Context) SystemInfo {
	var info SystemInfo
	var g errgroup.Group

	g.Go(func() error {
		info.Health, info.HealthErr = c.Health(ctx)
		return nil
	})
	g.Go(func() error {
		info.Stats, info.StatsErr = c.SystemStats(ctx)
		return nil
	})
	g.Go(func() error {
		info.Temperature, info.TemperatureErr = c.CurrentTemperature(ctx)
		return nil
	})
	_ = g.Wait()

	info.Timestamp = time.Now()
	return info
}
