package httputil

import (
	"net/http"
	"time"
)

// Short enough that the retry layer above gets multiple attempts within
// one weather fetch.
const DefaultTimeout = 10 * time.Second

// NewClient returns an HTTP client with standard timeout configuration
// for external API calls.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
	}
}
