package retry_test

import (
	"io"
	"net/http"
	"strings"
	"structural-diff/internal/retry"
	"testing"
	"time"
)

type transportMock struct {
	fakeRoundTrip func(*http.Request) (*http.Response, error)
}

func (m *transportMock) RoundTrip(request *http.Request) (*http.Response, error) {
	return m.fakeRoundTrip(request)
}

func fakeResponse(statusCode int) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader("fake")),
	}
}

func TestTransportRoundTrip(t *testing.T) {
	t.Run("RetriesUntilSuccess", func(t *testing.T) {
		calls := 0
		client := &http.Client{
			Transport: &retry.Transport{
				Base: &transportMock{
					fakeRoundTrip: func(request *http.Request) (*http.Response, error) {
						calls++
						if calls < 3 {
							return fakeResponse(http.StatusServiceUnavailable), nil
						}
						return fakeResponse(http.StatusOK), nil
					},
				},
				RetryStrategy: retry.NewExponentialBackOff(time.Millisecond, 10*time.Millisecond, 5, nil),
				RetryOn:       retry.NewDefaultRetryOn(),
			},
		}

		request, err := http.NewRequest(http.MethodGet, "http://example.invalid/", nil)
		if err != nil {
			t.Fatalf("NewRequest failed: %v", err)
		}
		response, err := client.Do(request)
		if err != nil {
			t.Fatalf("Do failed: %v", err)
		}
		defer response.Body.Close()

		if response.StatusCode != http.StatusOK {
			t.Errorf("Expected status 200 after retries, got %d", response.StatusCode)
		}
		if calls != 3 {
			t.Errorf("Expected 3 attempts, got %d", calls)
		}
	})

	t.Run("ReturnsLastResponseWhenBudgetExceeded", func(t *testing.T) {
		calls := 0
		transport := &retry.Transport{
			Base: &transportMock{
				fakeRoundTrip: func(request *http.Request) (*http.Response, error) {
					calls++
					return fakeResponse(http.StatusServiceUnavailable), nil
				},
			},
			RetryStrategy: retry.NewExponentialBackOff(time.Millisecond, 10*time.Millisecond, 2, nil),
			RetryOn:       retry.NewDefaultRetryOn(),
		}

		request, err := http.NewRequest(http.MethodGet, "http://example.invalid/", nil)
		if err != nil {
			t.Fatalf("NewRequest failed: %v", err)
		}
		response, err := transport.RoundTrip(request)
		if err != nil {
			t.Fatalf("RoundTrip failed: %v", err)
		}
		defer response.Body.Close()

		if response.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("Expected the last 503 response, got %d", response.StatusCode)
		}
		if calls != 3 {
			t.Errorf("Expected 3 attempts, got %d", calls)
		}
	})

	t.Run("NonRetriableResponsePassesThrough", func(t *testing.T) {
		calls := 0
		transport := &retry.Transport{
			Base: &transportMock{
				fakeRoundTrip: func(request *http.Request) (*http.Response, error) {
					calls++
					return fakeResponse(http.StatusNotFound), nil
				},
			},
			RetryStrategy: retry.NewExponentialBackOff(time.Millisecond, 10*time.Millisecond, 5, nil),
			RetryOn:       retry.NewDefaultRetryOn(),
		}

		request, err := http.NewRequest(http.MethodGet, "http://example.invalid/", nil)
		if err != nil {
			t.Fatalf("NewRequest failed: %v", err)
		}
		response, err := transport.RoundTrip(request)
		if err != nil {
			t.Fatalf("RoundTrip failed: %v", err)
		}
		defer response.Body.Close()

		if response.StatusCode != http.StatusNotFound {
			t.Errorf("Expected the 404 response untouched, got %d", response.StatusCode)
		}
		if calls != 1 {
			t.Errorf("Expected a single attempt, got %d", calls)
		}
	})
}
