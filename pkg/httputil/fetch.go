package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/tilegrid/pkg/errors"
)

// MaxBodySize bounds how much of a response [Fetch] reads.
const MaxBodySize = 32 << 20

// DefaultTimeout is the per-request timeout of [NewClient].
const DefaultTimeout = 15 * time.Second

// NewClient returns an HTTP client for media fetches.
func NewClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// Fetch GETs url and returns at most MaxBodySize bytes of the body.
// Transient failures are retried with [RetryWithBackoff]; a final failure is
// a CONTENT_ERROR.
func Fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	var body []byte
	err := RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &RetryableError{Err: err}
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return &RetryableError{Err: fmt.Errorf("GET %s: %s", url, resp.Status)}
		case resp.StatusCode >= 400:
			return fmt.Errorf("GET %s: %s", url, resp.Status)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
		if err != nil {
			return &RetryableError{Err: err}
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "fetch %s", url)
		}
		return nil, errors.Wrap(errors.ErrCodeContent, err, "fetch %s", url)
	}
	return body, nil
}
