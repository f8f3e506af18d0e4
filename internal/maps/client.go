// Package maps is the client for the hosted geocoding and routing provider.
package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/evcraddock/courier-site/internal/geo"
)

const (
	defaultGeocodeURL = "https://nominatim.openstreetmap.org/search"
	defaultRouteURL   = "https://router.project-osrm.org"
	defaultUserAgent  = "courier-site/1.0"
)

// ErrNotFound is returned when the provider answered but had no match.
// Any other error from this package is a transport or provider failure.
var ErrNotFound = errors.New("no match found")

// Place is a geocoding match.
type Place struct {
	Label    string         `json:"label"`
	Location geo.Coordinate `json:"location"`
	Bounds   geo.Bounds     `json:"bounds"`
}

// Route is a drivable path between two points.
type Route struct {
	Path            []geo.Coordinate `json:"path"`
	DistanceMeters  float64          `json:"distance_meters"`
	DurationSeconds float64          `json:"duration_seconds"`
}

// Options configures a Client. Zero values fall back to the public endpoints.
type Options struct {
	GeocodeURL string
	RouteURL   string
	UserAgent  string
	// RequestsPerSecond caps outbound calls; 0 means 1 per second.
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client geocodes addresses and builds driving routes.
type Client struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	inflight   singleflight.Group

	// Overridable URLs for testing.
	geocodeURL string
	routeURL   string
}

// NewClient creates a provider client.
func NewClient(opts Options) *Client {
	if opts.GeocodeURL == "" {
		opts.GeocodeURL = defaultGeocodeURL
	}
	if opts.RouteURL == "" {
		opts.RouteURL = defaultRouteURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		userAgent:  opts.UserAgent,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		geocodeURL: opts.GeocodeURL,
		routeURL:   strings.TrimSuffix(opts.RouteURL, "/"),
	}
}

// nominatimResult mirrors the relevant parts of the jsonv2 search payload.
type nominatimResult struct {
	DisplayName string   `json:"display_name"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"` // south, north, west, east
}

// Geocode resolves free text to the provider's best match.
// Identical concurrent queries share one upstream request.
func (c *Client) Geocode(ctx context.Context, query string) (Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Place{}, fmt.Errorf("query is required")
	}

	// The shared lookup outlives any one caller: a caller that goes away
	// must not fail the others waiting on the same query. The request
	// itself is still bounded by the http client timeout.
	ch := c.inflight.DoChan(strings.ToLower(query), func() (interface{}, error) {
		return c.geocode(context.WithoutCancel(ctx), query)
	})

	select {
	case <-ctx.Done():
		return Place{}, fmt.Errorf("geocoder: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Place{}, res.Err
		}
		return res.Val.(Place), nil
	}
}

func (c *Client) geocode(ctx context.Context, query string) (Place, error) {
	params := url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}

	var results []nominatimResult
	status, err := c.getJSON(ctx, c.geocodeURL+"?"+params.Encode(), &results)
	if err != nil {
		return Place{}, fmt.Errorf("geocoder: %w", err)
	}
	if status != http.StatusOK {
		return Place{}, fmt.Errorf("geocoder: unexpected status %d", status)
	}

	if len(results) == 0 {
		return Place{}, ErrNotFound
	}

	return parsePlace(results[0])
}

func parsePlace(r nominatimResult) (Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("geocoder: invalid latitude %q", r.Lat)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("geocoder: invalid longitude %q", r.Lon)
	}

	p := Place{
		Label:    r.DisplayName,
		Location: geo.Coordinate{Lat: lat, Lng: lng},
	}

	// A missing or malformed box degrades to a point.
	p.Bounds = geo.BoundsOf(p.Location)
	if len(r.BoundingBox) == 4 {
		var box [4]float64
		ok := true
		for i, s := range r.BoundingBox {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				ok = false
				break
			}
			box[i] = f
		}
		if ok {
			p.Bounds = geo.Bounds{South: box[0], North: box[1], West: box[2], East: box[3]}
		}
	}

	return p, nil
}

// osrmResponse is the response from the OSRM route service.
type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][2]float64 `json:"coordinates"` // lng, lat
		} `json:"geometry"`
	} `json:"routes"`
}

// Route requests a driving route from one point to another.
func (c *Client) Route(ctx context.Context, from, to geo.Coordinate) (Route, error) {
	reqURL := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.routeURL, from.Lng, from.Lat, to.Lng, to.Lat)

	var resp osrmResponse
	status, err := c.getJSON(ctx, reqURL, &resp)
	if err != nil {
		return Route{}, fmt.Errorf("router: %w", err)
	}

	switch resp.Code {
	case "NoRoute", "NoSegment":
		return Route{}, ErrNotFound
	case "Ok":
	default:
		if status != http.StatusOK {
			return Route{}, fmt.Errorf("router: unexpected status %d", status)
		}
		return Route{}, fmt.Errorf("router: provider code %q: %s", resp.Code, resp.Message)
	}

	if len(resp.Routes) == 0 || len(resp.Routes[0].Geometry.Coordinates) == 0 {
		return Route{}, ErrNotFound
	}

	best := resp.Routes[0]
	path := make([]geo.Coordinate, len(best.Geometry.Coordinates))
	for i, pt := range best.Geometry.Coordinates {
		path[i] = geo.Coordinate{Lat: pt[1], Lng: pt[0]}
	}

	return Route{
		Path:            path,
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
	}, nil
}

// getJSON performs a throttled GET and decodes the body into v.
// The status code is returned even when it is not 200 so callers can
// inspect provider error payloads.
func (c *Client) getJSON(ctx context.Context, reqURL string, v interface{}) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending request: %w", err)
	}
	// The payload is already decoded by the time the body is closed.
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, nil
		}
		return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
	}

	return resp.StatusCode, nil
}
