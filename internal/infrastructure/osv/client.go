// Package osv queries the OSV vulnerability database for single package
// versions and caches the answers on disk.
package osv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/khanhnv2901/assess/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
	"go.uber.org/zap"
)

const maxResponseBytes = 16 << 20

// Config controls where the client sends queries and how answers are cached.
// An empty CacheDir disables the disk cache.
type Config struct {
	URL      string
	Timeout  time.Duration
	CacheDir string
	CacheTTL time.Duration
}

// Client performs OSV lookups. It is safe for concurrent use.
type Client struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
	cache      *Cache
	logger     *zap.SugaredLogger
	failures   atomic.Int64
}

type query struct {
	Package queryPackage `json:"package"`
	Version string       `json:"version"`
}

type queryPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

type response struct {
	Vulns json.RawMessage `json:"vulns"`
}

// NewClient builds a client from cfg, filling unset fields with defaults.
func NewClient(cfg Config, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.URL == "" {
		cfg.URL = constants.OSVQueryURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.OSVRequestTimeout
	}

	c := &Client{
		url:        cfg.URL,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
	if cfg.CacheDir != "" {
		c.cache = NewCache(cfg.CacheDir, cfg.CacheTTL)
	}
	return c
}

// Failures reports how many lookups degraded to an empty answer.
func (c *Client) Failures() int64 {
	return c.failures.Load()
}

// Query returns the known vulnerabilities of one exact package version.
// It never fails: any problem is logged, counted and answered with an empty
// list.
func (c *Client) Query(ctx context.Context, name, version, ecosystem string) []Vulnerability {
	key := Key(ecosystem, name, version)
	if c.cache != nil {
		vulns, err := c.cache.Get(key)
		if err == nil {
			c.logger.Debugw("vulnerability cache hit", "package", name, "version", version, "ecosystem", ecosystem)
			return vulns
		}
		c.logger.Debugw("vulnerability cache miss", "package", name, "version", version, "reason", err)
	}

	vulns, raw, err := c.lookup(ctx, name, version, ecosystem)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled by the caller, not a database outage.
			c.logger.Debugw("vulnerability lookup cancelled", "package", name, "version", version, "error", err)
			return nil
		}
		c.failures.Add(1)
		c.logger.Warnw("vulnerability lookup failed; treating package as clean",
			"package", name, "version", version, "ecosystem", ecosystem, "error", err)
		return nil
	}

	if c.cache != nil {
		if err := c.cache.Put(key, raw); err != nil {
			c.logger.Warnw("could not write vulnerability cache", "package", name, "error", err)
		}
	}
	return vulns
}

// lookup performs the network round trip and returns both the decoded list
// and the raw vulns array that gets cached.
func (c *Client) lookup(ctx context.Context, name, version, ecosystem string) ([]Vulnerability, []byte, error) {
	body, err := json.Marshal(query{
		Package: queryPackage{Name: name, Ecosystem: ecosystem},
		Version: version,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, nil, fmt.Errorf("%w: %s", sharedErrors.ErrVulnDBStatus, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	var decoded response
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", sharedErrors.ErrVulnDBDecode, err)
	}

	raw := []byte(decoded.Vulns)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("[]")
	}
	var vulns []Vulnerability
	if err := json.Unmarshal(raw, &vulns); err != nil {
		return nil, nil, fmt.Errorf("%w: vulns: %v", sharedErrors.ErrVulnDBDecode, err)
	}
	return vulns, raw, nil
}
