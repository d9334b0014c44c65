// Package http builds the tuned HTTP client used for payment provider
// API calls.
package http

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/seatflow/checkout-service/pkg/resilience"
)

// ClientConfig holds transport tuning for outbound HTTP
type ClientConfig struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration

	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration

	KeepAlive     time.Duration
	MinTLSVersion uint16
}

// ProviderClientConfig returns the transport tuning for provider API
// traffic. All requests go to a small fixed set of provider hosts, so the
// pool keeps warm connections per host instead of spreading them wide.
func ProviderClientConfig() *ClientConfig {
	return &ClientConfig{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 25,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		DialTimeout:           10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,

		KeepAlive:     60 * time.Second,
		MinTLSVersion: tls.VersionTLS12,
	}
}

// NewClient builds an *http.Client from the config. timeout bounds one
// call end to end, response body included.
func NewClient(cfg *ClientConfig, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		TLSClientConfig:       &tls.Config{MinVersion: cfg.MinTLSVersion},
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Doer is the transport dependency the provider adapters accept
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryingClient retries idempotent provider reads on transport errors
// and 5xx responses. Anything with a body is passed through untouched:
// a re-sent transaction creation could double-charge, a re-read cannot.
type RetryingClient struct {
	client      Doer
	backoff     resilience.BackoffStrategy
	maxAttempts int
}

// NewRetryingClient wraps client with GET retry behavior
func NewRetryingClient(client Doer, backoff resilience.BackoffStrategy, maxAttempts int) *RetryingClient {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryingClient{
		client:      client,
		backoff:     backoff,
		maxAttempts: maxAttempts,
	}
}

// Do executes the request, retrying GETs up to maxAttempts times
func (rc *RetryingClient) Do(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return rc.client.Do(req)
	}

	var (
		resp *http.Response
		err  error
	)
	for attempt := 0; attempt < rc.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(rc.backoff.NextDelay(attempt - 1)):
			}
		}

		resp, err = rc.client.Do(req)
		if err != nil {
			continue
		}
		if resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}
		// 5xx: release the connection before retrying
		if attempt < rc.maxAttempts-1 {
			resp.Body.Close()
		}
	}
	return resp, err
}
