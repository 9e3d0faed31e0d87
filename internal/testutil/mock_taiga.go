// Package testutil provides testing utilities for the Taiga client.
package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// MockResponse defines the behavior for a mock Taiga endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// MockTaiga is a configurable mock Taiga server for testing. Paths are
// registered with a leading slash and matched without their query; page
// selection happens through the page query parameter.
type MockTaiga struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	LastAuthorization string
	LastLoginBody     []byte
}

// NewMockTaiga creates a new mock Taiga server.
func NewMockTaiga() *MockTaiga {
	mock := &MockTaiga{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastAuthorization = r.Header.Get("Authorization")
		mock.mu.Unlock()

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
func (m *MockTaiga) URL() string {
	return m.server.URL + "/"
}

// Close shuts down the mock server.
func (m *MockTaiga) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockTaiga) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastAuthorization = ""
	m.LastLoginBody = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockTaiga) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockTaiga) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetAuth configures the auth endpoint to grant the given token to any
// credential exchange. The posted body is recorded in LastLoginBody.
func (m *MockTaiga) SetAuth(token string) {
	m.SetHandler("/auth", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		body, _ := io.ReadAll(r.Body)
		m.mu.Lock()
		m.LastLoginBody = body
		m.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"auth_token":%q}`, token)
	})
}

// SetAuthFailure configures the auth endpoint to reject every exchange.
func (m *MockTaiga) SetAuthFailure(status int, body string) {
	m.SetResponse("/auth", MockResponse{StatusCode: status, Body: body})
}

// SetPagedList serves a list resource page by page. Each element of
// pages is one page of raw JSON items. Responses carry the
// X-Pagination-Next header while further pages remain, mirroring Taiga's
// pagination convention.
func (m *MockTaiga) SetPagedList(path string, pages [][]string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"_error_message":"Invalid page"}`))
				return
			}
			page = parsed
		}

		if page > len(pages) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"_error_message":"Not found"}`))
			return
		}

		total := 0
		for _, p := range pages {
			total += len(p)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Paginated", "true")
		w.Header().Set("X-Pagination-Count", strconv.Itoa(total))
		w.Header().Set("X-Pagination-Current", strconv.Itoa(page))
		if page < len(pages) {
			w.Header().Set("X-Pagination-Next", fmt.Sprintf("%s%s?page=%d", m.URL(), path[1:], page+1))
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("[" + joinItems(pages[page-1]) + "]"))
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockTaiga) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetLastAuthorization returns the Authorization header of the last request.
func (m *MockTaiga) GetLastAuthorization() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastAuthorization
}

// defaultHandler answers unregistered paths the way Taiga reports a
// missing resource.
func (m *MockTaiga) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"_error_message":"Not found","_error_type":"taiga.base.exceptions.NotFound"}`))
}

// Pages builds page slices of synthetic {"id":N} items: total items split
// into pages of perPage.
func Pages(total, perPage int) [][]string {
	var pages [][]string
	id := 1
	for id <= total {
		var page []string
		for len(page) < perPage && id <= total {
			page = append(page, fmt.Sprintf(`{"id":%d}`, id))
			id++
		}
		pages = append(pages, page)
	}
	return pages
}

// joinItems concatenates raw JSON items with commas.
func joinItems(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ","
		}
		out += item
	}
	return out
}
