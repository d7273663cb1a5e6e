package reader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// retryInterval is the wait between polls of an attachment the service
// has not finished preparing. The caller's context deadline is the only
// bound on the number of attempts.
const retryInterval = time.Second

// DownloadAttachment fetches a page attachment. The service answers 404
// while the file is still being prepared, so 404 responses are retried
// on a fixed interval until the context expires.
func (c *Client) DownloadAttachment(ctx context.Context, url string) ([]byte, error) {
	for {
		data, retry, err := c.fetchAttachment(ctx, url)
		if err != nil {
			return nil, err
		}
		if !retry {
			return data, nil
		}
		c.log.Debug("attachment not ready, retrying", slog.String("url", url))
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("reader: download %s: %w", url, ctx.Err())
		case <-time.After(retryInterval):
		}
	}
}

func (c *Client) fetchAttachment(ctx context.Context, url string) (data []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("reader: download %s: %w", url, err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("reader: download %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return nil, true, nil
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("reader: download %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("reader: download %s: %w", url, err)
	}
	return data, false, nil
}
