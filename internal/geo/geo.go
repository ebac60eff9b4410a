// Package geo resolves IP addresses to human-readable locations.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Resolver maps an IP address to a location such as
// "Philadelphia, Pennsylvania, US".
type Resolver interface {
	Locate(ctx context.Context, ip string) (string, error)
}

// ErrNotRoutable is returned for addresses that have no public location.
var ErrNotRoutable = errors.New("geo: address is not publicly routable")

// Config configures an HTTP resolver.
type Config struct {
	// BaseURL of an ip-api compatible service; the IP is appended as a path segment.
	BaseURL string `yaml:"base_url"`
	// RequestsPerMinute caps outgoing lookups.
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
}

// DefaultConfig targets the free ip-api.com endpoint and its published limit.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "http://ip-api.com/json",
		RequestsPerMinute: 45,
		Timeout:           10 * time.Second,
	}
}

// HTTPResolver looks addresses up over HTTP.
type HTTPResolver struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewHTTPResolver creates a resolver for cfg.
func NewHTTPResolver(cfg Config) *HTTPResolver {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	return &HTTPResolver{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
	}
}

type lookupResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	City        string `json:"city"`
	RegionName  string `json:"regionName"`
	CountryCode string `json:"countryCode"`
}

// Locate returns "City, Region, CC" for ip. Empty components are omitted.
func (r *HTTPResolver) Locate(ctx context.Context, ip string) (string, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "", fmt.Errorf("geo: parse ip %q: %w", ip, err)
	}
	if !Routable(addr) {
		return "", ErrNotRoutable
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("geo: rate limit: %w", err)
	}

	endpoint := r.baseURL + "/" + url.PathEscape(addr.String()) + "?fields=status,message,city,regionName,countryCode"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("geo: create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("geo: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("geo: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return "", fmt.Errorf("geo: decode response: %w", err)
	}
	if out.Status != "" && out.Status != "success" {
		return "", fmt.Errorf("geo: lookup failed: %s", out.Message)
	}

	return Format(out.City, out.RegionName, out.CountryCode), nil
}

// Format joins the non-empty location components with ", ".
func Format(city, region, countryCode string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{city, region, countryCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Routable reports whether addr can have a public location.
func Routable(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsPrivate() &&
		!addr.IsLoopback() &&
		!addr.IsUnspecified() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsMulticast()
}
