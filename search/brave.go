// Package search wraps the Brave web-search API behind a single call used by
// the turn pipeline's tool step.
package search

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotConfigured is returned when the subscription token is absent. The
// caller must surface this rather than retry.
var ErrNotConfigured = errors.New("BRAVE_API_KEY not configured")

const (
	defaultBaseURL = "https://api.search.brave.com"
	defaultCount   = 5
	maxBodyBytes   = 2 * 1024 * 1024
)

type Result struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type Client struct {
	APIKey  string
	BaseURL string
	Count   int
	Timeout time.Duration
	HTTP    *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:  strings.TrimSpace(apiKey),
		BaseURL: defaultBaseURL,
		Count:   defaultCount,
		Timeout: 20 * time.Second,
	}
}

type searchResponse struct {
	Web struct {
		Results []Result `json:"results"`
	} `json:"web"`
}

// Search runs one web search and returns up to Count results in provider
// order.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	if c.APIKey == "" {
		return nil, ErrNotConfigured
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("brave search: empty query")
	}

	count := c.Count
	if count <= 0 {
		count = defaultCount
	}
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	u := fmt.Sprintf("%s/res/v1/web/search?q=%s&count=%d", strings.TrimRight(base, "/"), url.QueryEscape(query), count)

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	// Setting Accept-Encoding explicitly disables the transport's automatic
	// gunzip, so the compressed body has to be handled below.
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("X-Subscription-Token", c.APIKey)

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("brave search read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("brave search http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("brave search decode: %w", err)
	}

	results := out.Web.Results
	if len(results) > count {
		results = results[:count]
	}
	return results, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(io.LimitReader(reader, maxBodyBytes))
}
