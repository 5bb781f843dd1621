package api

import (
	"context"
	"net/http"
)

// Maintenance endpoints exposed by the backend for operators.

func (c *Client) ForceProcessBuffer(ctx context.Context) (map[string]any, error) {
	return call[map[string]any](ctx, c, http.MethodPost, "/sensor/debug/process-buffer", nil)
}

func (c *Client) ForceProcessAggregate(ctx context.Context) (map[string]any, error) {
	return call[map[string]any](ctx, c, http.MethodPost, "/sensor/debug/process-aggregate", nil)
}

func (c *Client) ForceMQTTReconnect(ctx context.Context) (map[string]any, error) {
	return call[map[string]any](ctx, c, http.MethodPost, "/sensor/debug/mqtt-reconnect", nil)
}
