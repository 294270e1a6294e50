package realtime

import (
	"fmt"
	"net/url"
)

// EndpointURL derives a websocket endpoint from the page URL: same host,
// ws/wss per the page scheme, path replaced.
func EndpointURL(pageURL, path string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("realtime: parse page url: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("realtime: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("realtime: page url %q has no host", pageURL)
	}
	u.Path = path
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// DashboardEndpoint returns the dashboard feed endpoint for a page URL.
func DashboardEndpoint(pageURL string) (string, error) {
	return EndpointURL(pageURL, "/ws/dashboard/")
}

// OrderEndpoint returns the driver location endpoint for an order.
func OrderEndpoint(pageURL, orderID string) (string, error) {
	return EndpointURL(pageURL, "/ws/order/"+orderID+"/")
}
