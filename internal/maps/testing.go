package maps

import "golang.org/x/time/rate"

// SetTestURLs overrides the provider URLs on a client and lifts the rate
// limit. This should only be used in tests.
func SetTestURLs(c *Client, geocodeURL, routeURL string) {
	if geocodeURL != "" {
		c.geocodeURL = geocodeURL
	}
	if routeURL != "" {
		c.routeURL = routeURL
	}
	c.limiter = rate.NewLimiter(rate.Inf, 1)
}
