// Package cdn requests path invalidations from a CDN distribution. A
// successful call means the batch was accepted for propagation, not that
// every edge has been cleared; the service never polls for completion.
package cdn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/artfolio/service/internal/apperror"
)

// Invalidator requests eviction of the given key paths from the edge cache.
type Invalidator interface {
	Invalidate(ctx context.Context, paths []string) error
}

// Client speaks the distribution invalidation HTTP API: one authenticated
// POST per batch, deduplicated by a caller reference.
type Client struct {
	endpoint       string
	distributionID string
	token          string
	httpc          *http.Client
	now            func() time.Time
}

// NewClient creates an invalidation client for one distribution. The
// endpoint is the API base URL, e.g. "https://cdn.example.com/v1".
func NewClient(endpoint, distributionID, token string) *Client {
	return &Client{
		endpoint:       strings.TrimRight(endpoint, "/"),
		distributionID: distributionID,
		token:          token,
		httpc:          &http.Client{Timeout: 10 * time.Second},
		now:            time.Now,
	}
}

type invalidationRequest struct {
	CallerReference string   `json:"callerReference"`
	Paths           []string `json:"paths"`
}

// Invalidate submits one invalidation batch. The caller reference is
// <first key>-<unix timestamp>, unique per key change since a key is only
// invalidated once per mutation.
func (c *Client) Invalidate(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	normalized := make([]string, len(paths))
	for i, p := range paths {
		normalized[i] = "/" + strings.TrimPrefix(p, "/")
	}

	body, err := json.Marshal(invalidationRequest{
		CallerReference: fmt.Sprintf("%s-%d", paths[0], c.now().Unix()),
		Paths:           normalized,
	})
	if err != nil {
		return &apperror.CacheError{Paths: paths, Err: err}
	}

	url := fmt.Sprintf("%s/distributions/%s/invalidations", c.endpoint, c.distributionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &apperror.CacheError{Paths: paths, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &apperror.CacheError{Paths: paths, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &apperror.CacheError{
			Paths: paths,
			Err:   fmt.Errorf("invalidation rejected: %s", resp.Status),
		}
	}
	return nil
}

// Nop is an Invalidator for environments without a CDN in front of the
// bucket (local development). Every call succeeds without doing anything.
type Nop struct{}

// Invalidate does nothing.
func (Nop) Invalidate(context.Context, []string) error { return nil }
