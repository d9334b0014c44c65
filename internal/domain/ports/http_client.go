package ports

import "net/http"

// HTTPClient is a minimal HTTP client interface used by provider adapters,
// kept narrow so tests can substitute canned responses
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
