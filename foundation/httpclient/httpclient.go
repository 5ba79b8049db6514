// Package httpclient provides basic http functions
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxErrorBodyBytes limits how much of an error response is kept for messages.
const maxErrorBodyBytes = 512

// StatusError reports a non-2xx response from an upstream service.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.URL, e.StatusCode)
}

// Client issues JSON requests with bounded retries. Responses with a 5xx
// status and transport failures are retried with exponential backoff; 4xx
// responses are returned immediately as a StatusError.
type Client struct {
	HTTP        *http.Client
	Attempts    int
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

// New creates a Client with the default retry policy of 3 attempts backing
// off from 250 milliseconds up to 2 seconds. Request deadlines come from the
// caller's context.
func New() *Client {
	return &Client{
		HTTP:        &http.Client{},
		Attempts:    3,
		BackoffBase: 250 * time.Millisecond,
		BackoffCap:  2 * time.Second,
	}
}

// GetJSON issues a GET request and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, out interface{}) error {
	return c.do(ctx, http.MethodGet, url, header, nil, out)
}

// PostJSON issues a POST request with body marshaled as JSON and decodes the
// response body into out.
func (c *Client) PostJSON(ctx context.Context, url string, header http.Header, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, url, header, payload, out)
}

// PostForm issues a POST request with an already-encoded form body and decodes
// the JSON response into out.
func (c *Client) PostForm(ctx context.Context, url string, header http.Header, form string, out interface{}) error {
	return c.do(ctx, http.MethodPost, url, header, []byte(form), out)
}

func (c *Client) do(ctx context.Context, method string, url string, header http.Header, body []byte, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt < c.Attempts; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return err
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if body != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.HTTP.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = statusError(url, resp)
			continue
		}
		if resp.StatusCode >= 400 {
			return statusError(url, resp)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decoding response from %s: %w", url, err)
		}
		return nil
	}
	return fmt.Errorf("request to %s failed after %d attempts: %w", url, c.Attempts, lastErr)
}

// backoff waits for the attempt's delay or until the context expires.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := c.BackoffBase << (attempt - 1)
	if delay > c.BackoffCap {
		delay = c.BackoffCap
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func statusError(url string, resp *http.Response) *StatusError {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	_ = resp.Body.Close()
	return &StatusError{
		StatusCode: resp.StatusCode,
		URL:        url,
		Body:       string(snippet),
	}
}
