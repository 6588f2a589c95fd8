// Package search is the client for the log store's search API. It sends
// structured queries to an Elasticsearch-compatible endpoint and decodes
// hits, totals, and aggregation buckets.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/soclab/hunter/internal/query"
)

// DefaultIndexPattern is used when a caller does not scope the search.
const DefaultIndexPattern = "*"

// Client executes structured queries against one search backend.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client for the given base URL. timeout 0 uses the
// 30-second default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Execute runs one structured query against indexPattern and returns the
// decoded result. Backend unreachability and non-success statuses are
// returned as errors for the caller to report per-item; nothing here is
// fatal to the process.
func (c *Client) Execute(ctx context.Context, indexPattern string, q *query.StructuredQuery) (*Result, error) {
	if indexPattern == "" {
		indexPattern = DefaultIndexPattern
	}

	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	url := fmt.Sprintf("%s/%s/_search", c.baseURL, indexPattern)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search backend: %w", err)
	}
	defer resp.Body.Close()

	reader := io.Reader(resp.Body)
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip response: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	respBody, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API error %d: %s", resp.StatusCode, truncateAPIError(respBody))
	}

	return parseResponse(respBody)
}

// Ping checks backend connectivity.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("search backend: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search backend status %d", resp.StatusCode)
	}
	return nil
}

// wire shapes for the backend's _search response.
type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Index  string          `json:"_index"`
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []struct {
			Key      interface{} `json:"key"`
			DocCount int64       `json:"doc_count"`
		} `json:"buckets"`
	} `json:"aggregations"`
}

func parseResponse(data []byte) (*Result, error) {
	var wire searchResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	result := &Result{Total: wire.Hits.Total.Value}
	for _, h := range wire.Hits.Hits {
		result.Hits = append(result.Hits, Hit{Index: h.Index, ID: h.ID, Source: h.Source})
	}
	if len(wire.Aggregations) > 0 {
		result.Aggregations = make(map[string][]Bucket, len(wire.Aggregations))
		for name, agg := range wire.Aggregations {
			buckets := make([]Bucket, 0, len(agg.Buckets))
			for _, b := range agg.Buckets {
				buckets = append(buckets, Bucket{Key: fmt.Sprint(b.Key), DocCount: b.DocCount})
			}
			result.Aggregations[name] = buckets
		}
	}
	return result, nil
}

// truncateAPIError caps backend error bodies included in error strings.
func truncateAPIError(body []byte) string {
	const maxLen = 512
	if len(body) <= maxLen {
		return string(body)
	}
	return string(body[:maxLen]) + "... (truncated)"
}
