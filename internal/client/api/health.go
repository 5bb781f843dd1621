package api

import (
	"context"

	"github.com/dmitrijs2005/dryerwatch/internal/client/models"
)

func (c *Client) Health(ctx context.Context) (*models.HealthReport, error) {
	return c.healthAt(ctx, "/health")
}

func (c *Client) Liveness(ctx context.Context) (*models.HealthReport, error) {
	return c.healthAt(ctx, "/health/live")
}

func (c *Client) Readiness(ctx context.Context) (*models.HealthReport, error) {
	return c.healthAt(ctx, "/health/ready")
}

func (c *Client) healthAt(ctx context.Context, endpoint string) (*models.HealthReport, error) {
	r, err := get[models.HealthReport](ctx, c, endpoint)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// TestConnection reports whether /health answers successfully.
func (c *Client) TestConnection(ctx context.Context) bool {
	if _, err := c.Health(ctx); err != nil {
		c.log.Warn(ctx, "connection test failed", "error", err)
		return false
	}
	return true
}
