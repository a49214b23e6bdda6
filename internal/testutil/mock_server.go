package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockServer is a test backend that routes on "METHOD /path".
// Unregistered routes return 404.
type MockServer struct {
	*httptest.Server
	t        *testing.T
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    map[string]int
}

// NewMockServer starts a mock server that is closed when the test finishes.
func NewMockServer(t *testing.T) *MockServer {
	t.Helper()

	ms := &MockServer{
		t:        t,
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", ms.handleRequest)

	ms.Server = httptest.NewServer(mux)
	t.Cleanup(ms.Server.Close)
	return ms
}

// On registers a handler for a specific method and path.
func (ms *MockServer) On(method, path string, handler http.HandlerFunc) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.handlers[method+" "+path] = handler
}

// OnJSON registers a handler that returns JSON for a specific method and path.
func (ms *MockServer) OnJSON(method, path string, statusCode int, response interface{}) {
	ms.On(method, path, WithJSONResponse(statusCode, response))
}

// Calls returns how many requests hit method+path.
func (ms *MockServer) Calls(method, path string) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.calls[method+" "+path]
}

func (ms *MockServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	ms.mu.Lock()
	handler, ok := ms.handlers[key]
	ms.calls[key]++
	ms.mu.Unlock()

	if !ok {
		ms.t.Logf("no handler registered for %s", key)
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

// WithJSONResponse creates an HTTP handler that returns a JSON response.
func WithJSONResponse(statusCode int, body interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}
}

// WithErrorResponse returns the backend's error envelope.
func WithErrorResponse(statusCode int, message string, details map[string][]string) http.HandlerFunc {
	body := map[string]interface{}{"error": message}
	if len(details) > 0 {
		body["details"] = details
	}
	return WithJSONResponse(statusCode, body)
}

// AssertHeader asserts that a request header has the expected value.
func AssertHeader(t *testing.T, r *http.Request, key, expected string) {
	t.Helper()
	actual := r.Header.Get(key)
	if actual != expected {
		t.Errorf("expected header %s=%q, got %q", key, expected, actual)
	}
}

// AssertJSONBody decodes the request body and compares it to expected.
func AssertJSONBody(t *testing.T, r *http.Request, expected interface{}) {
	t.Helper()
	var actual interface{}
	if err := json.NewDecoder(r.Body).Decode(&actual); err != nil {
		t.Fatalf("failed to decode request body: %v", err)
	}

	// Round-trip expected so structs and maps compare with the same key order.
	raw, _ := json.Marshal(expected)
	var normalized interface{}
	_ = json.Unmarshal(raw, &normalized)

	expectedJSON, _ := json.Marshal(normalized)
	actualJSON, _ := json.Marshal(actual)

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("expected body %s, got %s", string(expectedJSON), string(actualJSON))
	}
}
