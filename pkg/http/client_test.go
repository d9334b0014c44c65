package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatflow/checkout-service/pkg/resilience"
)

// scriptedDoer serves responses in order, then repeats the last one
type scriptedDoer struct {
	responses []*http.Response
	errs      []error
	calls     int
}

func (s *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	return s.responses[i], s.errs[i]
}

func response(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(nil)),
		Header:     make(http.Header),
	}
}

func noDelay() resilience.BackoffStrategy {
	return &resilience.FixedBackoff{Delay: time.Millisecond}
}

func TestRetryingClient_RetriesServerErrors(t *testing.T) {
	doer := &scriptedDoer{
		responses: []*http.Response{response(502), response(500), response(200)},
		errs:      []error{nil, nil, nil},
	}
	client := NewRetryingClient(doer, noDelay(), 3)

	req, _ := http.NewRequest(http.MethodGet, "https://api.example.com/v1/transactions/txn-1", nil)
	resp, err := client.Do(req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, doer.calls)
}

func TestRetryingClient_RetriesTransportErrors(t *testing.T) {
	doer := &scriptedDoer{
		responses: []*http.Response{nil, response(200)},
		errs:      []error{errors.New("connection reset"), nil},
	}
	client := NewRetryingClient(doer, noDelay(), 3)

	req, _ := http.NewRequest(http.MethodGet, "https://api.example.com/v1/transactions/txn-1", nil)
	resp, err := client.Do(req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, doer.calls)
}

func TestRetryingClient_ClientErrorsAreNotRetried(t *testing.T) {
	doer := &scriptedDoer{
		responses: []*http.Response{response(404)},
		errs:      []error{nil},
	}
	client := NewRetryingClient(doer, noDelay(), 3)

	req, _ := http.NewRequest(http.MethodGet, "https://api.example.com/v1/transactions/txn-1", nil)
	resp, err := client.Do(req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1, doer.calls)
}

func TestRetryingClient_ExhaustedRetriesReturnLastResponse(t *testing.T) {
	doer := &scriptedDoer{
		responses: []*http.Response{response(500)},
		errs:      []error{nil},
	}
	client := NewRetryingClient(doer, noDelay(), 3)

	req, _ := http.NewRequest(http.MethodGet, "https://api.example.com/v1/transactions/txn-1", nil)
	resp, err := client.Do(req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, 3, doer.calls)
}

func TestRetryingClient_PostIsNeverRetried(t *testing.T) {
	doer := &scriptedDoer{
		responses: []*http.Response{response(502)},
		errs:      []error{nil},
	}
	client := NewRetryingClient(doer, noDelay(), 3)

	req, _ := http.NewRequest(http.MethodPost, "https://api.example.com/v1/payment", strings.NewReader("x_amount=1"))
	resp, err := client.Do(req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, 1, doer.calls)
}
