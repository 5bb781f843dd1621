package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/dryerwatch/internal/client/models"
)

func (c *Client) Backups(ctx context.Context) ([]models.BackupFile, error) {
	return get[[]models.BackupFile](ctx, c, "/backup")
}

func (c *Client) BackupByDate(ctx context.Context, date string) (map[string]any, error) {
	return get[map[string]any](ctx, c, "/backup/"+url.PathEscape(date))
}

// DownloadBackup streams a server-side backup file. The caller closes the
// returned reader.
func (c *Client) DownloadBackup(ctx context.Context, kind, date string) (io.ReadCloser, error) {
	endpoint := "/backup/download/" + url.PathEscape(kind) + "/" + url.PathEscape(date)
	resp, err := c.send(ctx, http.MethodGet, endpoint, nil, nil, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) ForceExport(ctx context.Context) (map[string]any, error) {
	return call[map[string]any](ctx, c, http.MethodPost, "/backup/export", nil)
}
