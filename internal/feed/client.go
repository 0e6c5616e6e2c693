package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/five82/wayfinder/internal/waypoint"
)

// Client talks to the game's HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBind   = "127.0.0.1:7480"
	defaultUserAgent = "wayfinder/0.1"
	requestTimeout   = 5 * time.Second
	maxBodyBytes     = 8 << 20
)

// NewClient builds a Client using the provided host:port or URL.
func NewClient(apiBind string) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// FetchWaypoints retrieves the full waypoint list.
func (c *Client) FetchWaypoints(ctx context.Context) ([]waypoint.Record, waypoint.Report, error) {
	if c == nil {
		return nil, waypoint.Report{}, fmt.Errorf("client is nil")
	}
	body, err := c.do(ctx, http.MethodGet, "/api/waypoints", nil)
	if err != nil {
		return nil, waypoint.Report{}, err
	}
	return DecodeBatch(body)
}

// Save creates or updates a waypoint in the game.
func (c *Client) Save(ctx context.Context, rec waypoint.Record) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	payload, err := json.Marshal(FromRecord(rec))
	if err != nil {
		return fmt.Errorf("encode waypoint: %w", err)
	}
	_, err = c.do(ctx, http.MethodPut, "/api/waypoints/"+strconv.Itoa(int(rec.ID)), payload)
	return err
}

// Delete removes a waypoint from the game.
func (c *Client) Delete(ctx context.Context, id waypoint.ID) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	_, err := c.do(ctx, http.MethodDelete, "/api/waypoints/"+strconv.Itoa(int(id)), nil)
	return err
}

// Recenter points the in-game map at rec.
func (c *Client) Recenter(ctx context.Context, rec waypoint.Record) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	payload, err := json.Marshal(struct {
		ID int `json:"id"`
	}{ID: int(rec.ID)})
	if err != nil {
		return fmt.Errorf("encode recenter: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "/api/map/recenter", payload)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, body)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body []byte) ([]byte, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse feed url %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
