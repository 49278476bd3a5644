package ecfr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"ecfr-dashboard/internal/telemetry"
)

// Resource kinds, also used as the metrics label.
const (
	KindTitles    = "titles"
	KindAgencies  = "agencies"
	KindVersions  = "versions"
	KindStructure = "structure"
)

const userAgent = "ecfr-dashboard/1.0"

// FetchError reports a failed GET: transport error, non-200 status, or a body
// that is not valid JSON. It is never retried.
type FetchError struct {
	Kind   string
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: GET %s: status=%d body=%q", e.Kind, e.URL, e.Status, e.Body)
	}
	return fmt.Sprintf("fetch %s: GET %s: %v", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Client struct {
	base    string
	hc      *http.Client
	limiter *rate.Limiter
}

type Option func(*Client)

// WithRateLimit paces outbound requests. A zero limit disables pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

func NewClient(base string, timeout time.Duration, opts ...Option) *Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		MaxConnsPerHost:       20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	c := &Client{
		base: base,
		hc:   &http.Client{Timeout: timeout, Transport: tr},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Titles lists every CFR title from the versioner service.
func (c *Client) Titles(ctx context.Context) ([]Title, error) {
	u := c.base + "/api/versioner/v1/titles.json"
	var resp struct {
		Titles []Title `json:"titles"`
	}
	if err := c.getJSON(ctx, KindTitles, u, &resp); err != nil {
		return nil, err
	}
	return resp.Titles, nil
}

// Agencies returns the admin agency directory.
func (c *Client) Agencies(ctx context.Context) ([]Agency, error) {
	u := c.base + "/api/admin/v1/agencies.json"
	var resp struct {
		Agencies []Agency `json:"agencies"`
	}
	if err := c.getJSON(ctx, KindAgencies, u, &resp); err != nil {
		return nil, err
	}
	return resp.Agencies, nil
}

// SectionVersions returns the content version history of a title.
func (c *Client) SectionVersions(ctx context.Context, title string) ([]VersionRecord, error) {
	u := fmt.Sprintf("%s/api/versioner/v1/versions/title-%s.json", c.base, url.PathEscape(title))
	var resp struct {
		ContentVersions []VersionRecord `json:"content_versions"`
	}
	if err := c.getJSON(ctx, KindVersions, u, &resp); err != nil {
		return nil, err
	}
	return resp.ContentVersions, nil
}

// FullStructure returns the structure tree of a title as of date (YYYY-MM-DD).
func (c *Client) FullStructure(ctx context.Context, title, date string) (*TitleNode, error) {
	u := fmt.Sprintf("%s/api/versioner/v1/structure/%s/title-%s.json", c.base, url.PathEscape(date), url.PathEscape(title))
	var root TitleNode
	if err := c.getJSON(ctx, KindStructure, u, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

func (c *Client) getJSON(ctx context.Context, kind, u string, out any) (err error) {
	start := time.Now()
	defer func() {
		telemetry.RecordFetch(kind, err == nil, time.Since(start).Seconds())
	}()

	if c.limiter != nil {
		if werr := c.limiter.Wait(ctx); werr != nil {
			return &FetchError{Kind: kind, URL: u, Err: werr}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &FetchError{Kind: kind, URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	res, err := c.hc.Do(req)
	if err != nil {
		return &FetchError{Kind: kind, URL: u, Err: err}
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &FetchError{
			Kind:   kind,
			URL:    u,
			Status: res.StatusCode,
			Body:   string(b),
			Err:    fmt.Errorf("unexpected status %d", res.StatusCode),
		}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &FetchError{Kind: kind, URL: u, Err: fmt.Errorf("decode json: %w", err)}
	}
	return nil
}
