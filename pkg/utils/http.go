// Package utils provides common utility functions.
package utils

import "net/http"

// HTTPHelper provides HTTP utility functions.
type HTTPHelper struct {
	userAgent string
	referer   string
}

// NewHTTPHelper creates a new HTTP helper identifying requests with userAgent and referer.
func NewHTTPHelper(userAgent, referer string) *HTTPHelper {
	return &HTTPHelper{
		userAgent: userAgent,
		referer:   referer,
	}
}

// BuildHeaders creates JSON request headers with defaults. Custom headers override defaults.
func (h *HTTPHelper) BuildHeaders(customHeaders map[string]string) http.Header {
	headers := http.Header{}

	headers.Set("User-Agent", h.userAgent)
	headers.Set("Accept", "application/json")
	headers.Set("Content-Type", "application/json")

	if h.referer != "" {
		headers.Set("Referer", h.referer)
	}

	for key, value := range customHeaders {
		headers.Set(key, value)
	}

	return headers
}
