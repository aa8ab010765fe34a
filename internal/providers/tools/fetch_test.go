package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/lensbot/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRetryConfig() *retry.Config {
	return &retry.Config{
		MaxRetries:    2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
		BackoffFactor: 1.0,
	}
}

func TestFetch_FetchURL(t *testing.T) {
	tests := []struct {
		name            string
		args            json.RawMessage
		mockServer      func() *httptest.Server
		useShortTimeout bool
		wantErr         bool
		wantContains    string
		wantErrMsg      string
	}{
		{
			name: "successful HTML fetch",
			args: json.RawMessage(`{"url": "REPLACE_URL"}`),
			mockServer: func() *httptest.Server {
				return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "text/html")
					fmt.Fprint(w, `<html><body><h1>Test Page</h1><p>Hello World</p></body></html>`)
				}))
			},
			wantContains: "Test Page",
		},
		{
			name: "successful JSON fetch",
			args: json.RawMessage(`{"url": "REPLACE_URL"}`),
			mockServer: func() *httptest.Server {
				return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					fmt.Fprint(w, `{"message": "Hello JSON"}`)
				}))
			},
			wantContains: `{"message": "Hello JSON"}`,
		},
		{
			name: "404 error",
			args: json.RawMessage(`{"url": "REPLACE_URL"}`),
			mockServer: func() *httptest.Server {
				return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusNotFound)
				}))
			},
			wantErr:    true,
			wantErrMsg: "HTTP 404",
		},
		{
			name:       "invalid JSON args",
			args:       json.RawMessage(`{"invalid`),
			wantErr:    true,
			wantErrMsg: "invalid arguments",
		},
		{
			name:       "missing URL",
			args:       json.RawMessage(`{}`),
			wantErr:    true,
			wantErrMsg: "failed to fetch url",
		},
		{
			name: "timeout handling",
			args: json.RawMessage(`{"url": "REPLACE_URL"}`),
			mockServer: func() *httptest.Server {
				return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					time.Sleep(500 * time.Millisecond)
				}))
			},
			useShortTimeout: true,
			wantErr:         true,
			wantErrMsg:      "failed to fetch url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if tt.mockServer != nil {
				server := tt.mockServer()
				defer server.Close()
				args = json.RawMessage(strings.Replace(string(tt.args), "REPLACE_URL", server.URL, 1))
			}

			timeout := defaultFetchTimeout
			if tt.useShortTimeout {
				timeout = 100 * time.Millisecond
			}
			fetch := NewFetchWithTimeout(timeout, testRetryConfig())

			result, err := fetch.FetchURL(context.Background(), args)

			if tt.wantErr {
				require.Error(t, err)
				if tt.wantErrMsg != "" {
					assert.Contains(t, err.Error(), tt.wantErrMsg)
				}
			} else {
				require.NoError(t, err)
				if tt.wantContains != "" {
					assert.Contains(t, result, tt.wantContains)
				}
			}
		})
	}
}

func TestFetch_RetryBehavior(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "Success after retries")
	}))
	defer server.Close()

	fetch := NewFetchWithTimeout(defaultFetchTimeout, testRetryConfig())
	args := json.RawMessage(fmt.Sprintf(`{"url": "%s"}`, server.URL))

	result, err := fetch.FetchURL(context.Background(), args)

	require.NoError(t, err)
	assert.Contains(t, result, "Success after retries")
	assert.Equal(t, 3, attempts, "should retry failed requests")
}

func TestFetch_ClientErrorNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetch := NewFetchWithTimeout(defaultFetchTimeout, testRetryConfig())
	args := json.RawMessage(fmt.Sprintf(`{"url": "%s"}`, server.URL))

	_, err := fetch.FetchURL(context.Background(), args)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Equal(t, 1, attempts, "4xx responses must not be retried")
}

func TestFetch_UserAgent(t *testing.T) {
	var receivedUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUA = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	fetch := NewFetch()
	args := json.RawMessage(fmt.Sprintf(`{"url": "%s"}`, server.URL))

	_, err := fetch.FetchURL(context.Background(), args)

	require.NoError(t, err)
	assert.Contains(t, receivedUA, "LensBot", "should set custom user agent")
}
