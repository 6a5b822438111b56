// Package geo locates communes through the geo.api.gouv.fr commune API.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"golang.org/x/time/rate"

	"github.com/jengzang/mobility-backend-go/internal/spatial"
)

// ErrNoCentre is returned when the API knows no centre for the commune
var ErrNoCentre = errors.New("commune has no centre")

// Client wraps the commune endpoint of geo.api.gouv.fr
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      gcache.Cache
}

// NewClient creates a client; results are cached for a day
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		// the public API allows 50 requests per second per IP
		limiter: rate.NewLimiter(rate.Limit(40), 10),
		cache:   gcache.New(50000).LRU().Expiration(24 * time.Hour).Build(),
	}
}

type communeResponse struct {
	Code   string `json:"code"`
	Nom    string `json:"nom"`
	Centre *struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"` // lon, lat
	} `json:"centre"`
}

// Locate returns the centre of a commune
func (c *Client) Locate(ctx context.Context, code string) (spatial.Point, error) {
	if v, err := c.cache.Get(code); err == nil {
		return v.(spatial.Point), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return spatial.Point{}, err
	}

	q := url.Values{}
	q.Set("fields", "nom,code,centre")
	q.Set("format", "json")
	q.Set("geometry", "centre")
	u := fmt.Sprintf("%s/communes/%s?%s", c.baseURL, url.PathEscape(code), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return spatial.Point{}, fmt.Errorf("geocoding API returned HTTP %d for %s", resp.StatusCode, code)
	}

	var body communeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return spatial.Point{}, fmt.Errorf("decoding response: %w", err)
	}
	if body.Centre == nil || len(body.Centre.Coordinates) != 2 {
		return spatial.Point{}, fmt.Errorf("%w: %s", ErrNoCentre, code)
	}

	p := spatial.Point{Lat: body.Centre.Coordinates[1], Lon: body.Centre.Coordinates[0]}
	_ = c.cache.Set(code, p)
	return p, nil
}

// Locator places communes on the map
type Locator interface {
	Locate(ctx context.Context, code string) (spatial.Point, bool)
}

// DepartmentLocator places communes around their department centre
type DepartmentLocator struct{}

func (DepartmentLocator) Locate(_ context.Context, code string) (spatial.Point, bool) {
	return spatial.CommunePoint(code)
}

// FallbackLocator asks the API first and falls back to the department centre
type FallbackLocator struct {
	Client  *Client
	OnError func(code string, err error)
}

func (l FallbackLocator) Locate(ctx context.Context, code string) (spatial.Point, bool) {
	p, err := l.Client.Locate(ctx, code)
	if err == nil {
		return p, true
	}
	if l.OnError != nil {
		l.OnError(code, err)
	}
	return spatial.CommunePoint(code)
}
