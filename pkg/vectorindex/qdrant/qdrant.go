// Package qdrant implements the vectorindex.Client contract over the Qdrant
// REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hannesnortje/agentmem/pkg/vectorindex"
)

// Client talks to a remote Qdrant instance over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds connection settings for a Qdrant instance.
type Config struct {
	URL     string        // e.g. http://localhost:6333
	APIKey  string        // optional
	Timeout time.Duration // per-request timeout, defaults to vectorindex.DefaultTimeout
}

// New creates a Qdrant-backed client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = vectorindex.DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	var out struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, "/collections", nil, &out); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.Result.Collections))
	for _, col := range out.Result.Collections {
		names = append(names, col.Name)
	}
	return names, nil
}

func (c *Client) CreateCollection(ctx context.Context, spec vectorindex.CollectionSpec) error {
	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     spec.VectorSize,
			"distance": string(spec.Distance),
		},
	}
	err := c.do(ctx, http.MethodPut, "/collections/"+spec.Name, body, nil)
	if err != nil && isConflict(err) {
		return fmt.Errorf("%q: %w", spec.Name, vectorindex.ErrCollectionExists)
	}
	return err
}

func (c *Client) CollectionInfo(ctx context.Context, name string) (vectorindex.CollectionInfo, error) {
	var out struct {
		Result struct {
			PointsCount int `json:"points_count"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, "/collections/"+name, nil, &out); err != nil {
		if isNotFound(err) {
			return vectorindex.CollectionInfo{}, fmt.Errorf("%q: %w", name, vectorindex.ErrCollectionNotFound)
		}
		return vectorindex.CollectionInfo{}, err
	}
	return vectorindex.CollectionInfo{Name: name, PointCount: out.Result.PointsCount}, nil
}

func (c *Client) Upsert(ctx context.Context, collection string, points []vectorindex.Point) error {
	type wirePoint struct {
		ID      string                 `json:"id"`
		Vector  []float32              `json:"vector"`
		Payload map[string]interface{} `json:"payload,omitempty"`
	}
	wire := make([]wirePoint, len(points))
	for i, p := range points {
		wire[i] = wirePoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}
	body := map[string]interface{}{"points": wire}
	return c.do(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", body, nil)
}

func (c *Client) Search(ctx context.Context, collection string, vector []float32, limit int) ([]vectorindex.ScoredPoint, error) {
	body := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	var out struct {
		Result []struct {
			ID      interface{}            `json:"id"`
			Score   float32                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, "/collections/"+collection+"/points/search", body, &out); err != nil {
		return nil, err
	}
	hits := make([]vectorindex.ScoredPoint, len(out.Result))
	for i, h := range out.Result {
		hits[i] = vectorindex.ScoredPoint{
			ID:      fmt.Sprint(h.ID),
			Score:   h.Score,
			Payload: h.Payload,
		}
	}
	return hits, nil
}

func (c *Client) Scroll(ctx context.Context, collection string, req vectorindex.ScrollRequest) (vectorindex.ScrollPage, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	body := map[string]interface{}{
		"limit":        limit,
		"with_payload": req.WithPayload,
		"with_vector":  req.WithVector,
	}
	if req.Offset != "" {
		body["offset"] = req.Offset
	}
	if len(req.Filter) > 0 {
		var must []map[string]interface{}
		for k, v := range req.Filter {
			must = append(must, map[string]interface{}{
				"key":   k,
				"match": map[string]interface{}{"value": v},
			})
		}
		body["filter"] = map[string]interface{}{"must": must}
	}

	var out struct {
		Result struct {
			Points []struct {
				ID      interface{}            `json:"id"`
				Vector  []float32              `json:"vector"`
				Payload map[string]interface{} `json:"payload"`
			} `json:"points"`
			NextPageOffset interface{} `json:"next_page_offset"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, "/collections/"+collection+"/points/scroll", body, &out); err != nil {
		return vectorindex.ScrollPage{}, err
	}

	page := vectorindex.ScrollPage{Points: make([]vectorindex.Point, len(out.Result.Points))}
	for i, p := range out.Result.Points {
		page.Points[i] = vectorindex.Point{
			ID:      fmt.Sprint(p.ID),
			Vector:  p.Vector,
			Payload: p.Payload,
		}
	}
	if out.Result.NextPageOffset != nil {
		page.NextOffset = fmt.Sprint(out.Result.NextPageOffset)
	}
	return page, nil
}

func (c *Client) Healthy(ctx context.Context) bool {
	err := c.do(ctx, http.MethodGet, "/collections", nil, nil)
	return err == nil
}

// apiError carries the HTTP status so conflict and not-found responses can be
// distinguished from transport failures.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("qdrant API error (status %d): %s", e.status, e.body)
}

func isConflict(err error) bool {
	ae, ok := err.(*apiError)
	if !ok {
		return false
	}
	return ae.status == http.StatusConflict || strings.Contains(strings.ToLower(ae.body), "already exists")
}

func isNotFound(err error) bool {
	ae, ok := err.(*apiError)
	return ok && ae.status == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call qdrant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apiError{status: resp.StatusCode, body: string(data)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
