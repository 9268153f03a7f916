// Package testutil provides testing utilities for the ingest pipeline.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock upstream API for testing. Besides
// per-path responses it tracks the number of concurrent in-flight
// requests so tests can assert the admission gate holds.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount   int
	inFlight       int
	peakInFlight   int
	LastUserAgent  string
	requestedPaths []string
}

// NewMockAPI creates a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.inFlight++
		if mock.inFlight > mock.peakInFlight {
			mock.peakInFlight = mock.inFlight
		}
		mock.LastUserAgent = r.Header.Get("User-Agent")
		mock.requestedPaths = append(mock.requestedPaths, r.URL.Path)
		mock.mu.Unlock()

		defer func() {
			mock.mu.Lock()
			mock.inFlight--
			mock.mu.Unlock()
		}()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server base URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.peakInFlight = 0
	m.LastUserAgent = ""
	m.requestedPaths = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetDefaultDelay makes every path without a custom handler respond
// after the given delay. Used by wave-timing tests.
func (m *MockAPI) SetDefaultDelay(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers["*"] = func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	}
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// PeakInFlight returns the maximum number of requests the server was
// handling at the same time.
func (m *MockAPI) PeakInFlight() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.peakInFlight
}

// RequestedPaths returns a copy of all request paths seen so far.
func (m *MockAPI) RequestedPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, len(m.requestedPaths))
	copy(paths, m.requestedPaths)
	return paths
}

// defaultHandler provides JSON responses for unconfigured paths.
func (m *MockAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	wildcard, exists := m.handlers["*"]
	m.mu.RUnlock()

	if exists {
		wildcard(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

// NewJSONResponse creates a standard 200 OK response with a JSON body.
func NewJSONResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": "not found"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewSlowResponse creates a 200 OK response delivered after the delay.
func NewSlowResponse(data string, delay time.Duration) MockResponse {
	resp := NewJSONResponse(data)
	resp.Delay = delay
	return resp
}
