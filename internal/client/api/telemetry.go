package api

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/dryerwatch/internal/common"
)

// SendReport delivers one telemetry entry. A 401 here is an ordinary
// delivery failure and does not clear the session.
func (c *Client) SendReport(ctx context.Context, report any) error {
	h := http.Header{}
	h.Set(common.ErrorReportHeaderName, "true")

	resp, err := c.send(ctx, http.MethodPost, "/errors", report, h, false)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
