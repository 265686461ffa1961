package retry_test

import (
	"io"
	"net/http"
	"structural-diff/internal/retry"
	"testing"
)

type temporaryError struct {
	s string
}

func (te *temporaryError) Error() string {
	return te.s
}

func (te *temporaryError) Temporary() bool {
	return true
}

func TestOnCheckResponse(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		o := retry.NewDefaultRetryOn()

		tests := []struct {
			statusCode int
			want       bool
		}{
			{http.StatusOK, false},
			{http.StatusNotFound, false},
			{http.StatusConflict, true},
			{http.StatusInternalServerError, false},
			{http.StatusBadGateway, true},
			{http.StatusServiceUnavailable, true},
			{http.StatusGatewayTimeout, true},
		}
		for _, tt := range tests {
			got := o.CheckResponse(&http.Response{StatusCode: tt.statusCode})
			if got != tt.want {
				t.Errorf("Expected %v for status %d, got %v", tt.want, tt.statusCode, got)
			}
		}
	})

	t.Run("5xx", func(t *testing.T) {
		o, err := retry.NewRetryOnFromString("5xx")
		if err != nil {
			t.Fatalf("NewRetryOnFromString failed: %v", err)
		}
		if !o.CheckResponse(&http.Response{StatusCode: http.StatusInternalServerError}) {
			t.Errorf("Expected 500 to be retriable under 5xx")
		}
	})

	t.Run("ExplicitStatusCodes", func(t *testing.T) {
		o, err := retry.NewRetryOnFromString("429")
		if err != nil {
			t.Fatalf("NewRetryOnFromString failed: %v", err)
		}
		if !o.CheckResponse(&http.Response{StatusCode: http.StatusTooManyRequests}) {
			t.Errorf("Expected 429 to be retriable when listed")
		}
		if o.CheckResponse(&http.Response{StatusCode: http.StatusBadGateway}) {
			t.Errorf("Expected 502 not to be retriable without gateway-error")
		}
	})

	t.Run("InvalidSpecFails", func(t *testing.T) {
		if _, err := retry.NewRetryOnFromString("reset-before-request"); err == nil {
			t.Errorf("Expected an error for an unsupported retry-on value")
		}
	})
}

func TestOnCheckError(t *testing.T) {
	t.Run("TemporaryErrorWithConnectFailure", func(t *testing.T) {
		o := retry.NewDefaultRetryOn()
		if !o.CheckError(&temporaryError{s: "connection reset"}) {
			t.Errorf("Expected a temporary error to be retriable")
		}
		if !o.CheckError(io.EOF) {
			t.Errorf("Expected io.EOF to be retriable")
		}
	})

	t.Run("WithoutConnectFailure", func(t *testing.T) {
		o, err := retry.NewRetryOnFromString("retriable-4xx")
		if err != nil {
			t.Fatalf("NewRetryOnFromString failed: %v", err)
		}
		if o.CheckError(&temporaryError{s: "connection reset"}) {
			t.Errorf("Expected errors not to be retriable without connect-failure")
		}
	})
}
