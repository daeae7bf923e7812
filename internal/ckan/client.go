package ckan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ausdata/pkg/utils"
)

const (
	defaultRows    = 100
	defaultTimeout = 30 * time.Second
	userAgent      = "ausdata-import/1.0"
	// maxPageBytes bounds one package_search response body.
	maxPageBytes = 64 << 20
)

// Client fetches package_search pages from a CKAN API.
type Client struct {
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a client. A nil httpClient gets a 30 second timeout.
func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{http: httpClient, logger: utils.OrNop(logger)}
}

// FetchPage fetches and decodes the package_search response at rawURL.
func (c *Client) FetchPage(ctx context.Context, rawURL string) ([]Package, *int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid CKAN URL: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("CKAN request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("CKAN request failed: %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CKAN response: %w", err)
	}
	return ParsePage(body)
}

// FetchAll pages through a package_search URL using its rows and start
// parameters (rows defaults to 100) until the reported count is reached or a
// page comes back empty. Without a reported count only the first page is read.
func (c *Client) FetchAll(ctx context.Context, rawURL string) ([]Package, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid CKAN URL: %w", err)
	}
	pkgs, total, err := c.FetchPage(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if total == nil {
		return pkgs, nil
	}

	params := base.Query()
	rows := intParam(params, "rows", defaultRows)
	start := intParam(params, "start", 0)
	for len(pkgs) < *total {
		start += rows
		params.Set("start", strconv.Itoa(start))
		base.RawQuery = params.Encode()

		page, _, err := c.FetchPage(ctx, base.String())
		if err != nil {
			return nil, fmt.Errorf("page at start=%d: %w", start, err)
		}
		if len(page) == 0 {
			break
		}
		pkgs = append(pkgs, page...)
		c.logger.Debug("fetched CKAN page", zap.Int("start", start), zap.Int("packages", len(pkgs)), zap.Int("total", *total))
	}
	c.logger.Info("fetched CKAN packages", zap.String("url", rawURL), zap.Int("packages", len(pkgs)))
	return pkgs, nil
}

func intParam(v url.Values, name string, def int) int {
	n, err := strconv.Atoi(v.Get(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
