package domain

import "strings"

const (
	trackingPagePath = "/order/tracking/"
	trackingAPIPath  = "/order-details/tracking/"
)

// TrackingAPIURL maps a human-facing dispatch tracking page URL to the
// machine endpoint serving its JSON payload:
//
//	https://host/order/tracking/AA/BB → https://host/order-details/tracking/AA/BB
//
// Everything after the path prefix is preserved. URLs without the page
// prefix are returned unchanged, including URLs that already point at the API.
func TrackingAPIURL(trackingURL string) string {
	return strings.Replace(trackingURL, trackingPagePath, trackingAPIPath, 1)
}
