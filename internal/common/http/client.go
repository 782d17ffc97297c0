// internal/common/http/client.go

// Package http holds the shared client for outbound collaborator calls
// (currently only the paraphrasing service).
package http

import (
	"context"
	"net/http"
	"time"
)

// Client wraps http.Client with the pool tuning used for collaborator
// traffic. Every call goes through DoWithContext so cancellation and
// deadlines propagate from the caller.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req.WithContext(ctx))
}
