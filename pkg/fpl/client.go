package fpl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL      = "https://fantasy.premierleague.com/api"
	DefaultPhotoBaseURL = "https://resources.premierleague.com/premierleague/photos/players/110x140"
	DefaultUserAgent    = "go-fpl/1.0"

	// bootstrap-static 大约 2MB
	maxBodySize = 16 << 20
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	BaseURL      string
	PhotoBaseURL string
	UserAgent    string
	Timeout      time.Duration
	// RatePerSec 主动限速，<=0 不限
	RatePerSec float64
	Burst      int
	HTTPClient *http.Client
}

// Client FPL 公开 API 客户端。不做重试，限流错误交给调用方的重试策略
type Client struct {
	httpClient   *http.Client
	baseURL      string
	photoBaseURL string
	userAgent    string
	limiter      *rate.Limiter
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	photoBaseURL := strings.TrimRight(strings.TrimSpace(cfg.PhotoBaseURL), "/")
	if photoBaseURL == "" {
		photoBaseURL = DefaultPhotoBaseURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		photoBaseURL: photoBaseURL,
		userAgent:    userAgent,
		limiter:      rate.NewLimiter(limit, burst),
	}
}

func (c *Client) GetBootstrap(ctx context.Context) (*Bootstrap, []byte, error) {
	var out Bootstrap
	raw, err := c.getJSON(ctx, "/bootstrap-static/", nil, &out)
	if err != nil {
		return nil, nil, err
	}
	return &out, raw, nil
}

func (c *Client) GetFixtures(ctx context.Context) ([]Fixture, []byte, error) {
	var out []Fixture
	raw, err := c.getJSON(ctx, "/fixtures/", nil, &out)
	if err != nil {
		return nil, nil, err
	}
	return out, raw, nil
}

// GetLeagueStandings 页码从 1 开始
func (c *Client) GetLeagueStandings(ctx context.Context, leagueID, page int) (*LeagueStandings, []byte, error) {
	if page < 1 {
		page = 1
	}
	var out LeagueStandings
	query := url.Values{"page_standings": []string{strconv.Itoa(page)}}
	raw, err := c.getJSON(ctx, fmt.Sprintf("/leagues-classic/%d/standings/", leagueID), query, &out)
	if err != nil {
		return nil, nil, err
	}
	return &out, raw, nil
}

func (c *Client) GetEntryTransfers(ctx context.Context, entryID int) ([]Transfer, []byte, error) {
	var out []Transfer
	raw, err := c.getJSON(ctx, fmt.Sprintf("/entry/%d/transfers/", entryID), nil, &out)
	if err != nil {
		return nil, nil, err
	}
	return out, raw, nil
}

func (c *Client) GetEventLive(ctx context.Context, eventID int) (*EventLive, []byte, error) {
	var out EventLive
	raw, err := c.getJSON(ctx, fmt.Sprintf("/event/%d/live/", eventID), nil, &out)
	if err != nil {
		return nil, nil, err
	}
	return &out, raw, nil
}

// GetPlayerPhoto 下载球员头像 PNG，code 是 Element.Code
func (c *Client) GetPlayerPhoto(ctx context.Context, code int) ([]byte, error) {
	return c.get(ctx, fmt.Sprintf("%s/p%d.png", c.photoBaseURL, code), "image/png")
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) ([]byte, error) {
	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	raw, err := c.get(ctx, fullURL, "application/json")
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, parseError(endpointOf(fullURL), err)
	}
	return raw, nil
}

func (c *Client) get(ctx context.Context, fullURL, accept string) ([]byte, error) {
	endpoint := endpointOf(fullURL)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Endpoint: endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &APIError{Endpoint: endpoint, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Endpoint: endpoint, Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(endpoint, resp.StatusCode, raw)
	}
	return raw, nil
}

func endpointOf(fullURL string) string {
	u, err := url.Parse(fullURL)
	if err != nil {
		return fullURL
	}
	return u.Path
}
