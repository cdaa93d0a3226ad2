package utils

import (
	"net/http"
	"time"
)

// NewHTTPClient returns the shared client for outbound calls, with a bounded
// timeout so a stuck collaborator cannot hold a request hostage.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
	}
}
