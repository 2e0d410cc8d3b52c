package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// MockFilePlayer records played files instead of producing sound
type MockFilePlayer struct {
	mu     sync.Mutex
	Err    error
	Errors map[string]error // per file suffix
	Calls  []string

	// Block makes PlayFile wait for context cancellation
	Block bool
}

// PlayFile records the call and returns the configured error
func (m *MockFilePlayer) PlayFile(ctx context.Context, file string) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, file)
	err := m.Err
	for suffix, e := range m.Errors {
		if strings.HasSuffix(file, suffix) {
			err = e
		}
	}
	block := m.Block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

// Played returns the recorded files
func (m *MockFilePlayer) Played() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Calls))
	copy(out, m.Calls)
	return out
}

// AssetServer serves fake audio bytes for a fixed set of paths and records
// every request as "METHOD /path"
type AssetServer struct {
	*httptest.Server

	mu       sync.Mutex
	existing map[string]bool
	requests []string
}

// NewAssetServer starts a server answering 200 for paths and 404 otherwise.
// It is closed when the test ends.
func NewAssetServer(t *testing.T, paths ...string) *AssetServer {
	t.Helper()

	s := &AssetServer{existing: make(map[string]bool)}
	for _, p := range paths {
		s.existing[p] = true
	}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, fmt.Sprintf("%s %s", r.Method, r.URL.Path))
		ok := s.existing[r.URL.Path]
		s.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Write(MP3Header())
	}))
	t.Cleanup(s.Close)

	return s
}

// Requests returns the recorded requests
func (s *AssetServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

// VerseResponse is the payload a VerseServer answers with
type VerseResponse struct {
	StatusCode int
	Status     string
	Audio      string
}

// VerseServer mimics the alquran.cloud ayah endpoint
type VerseServer struct {
	*httptest.Server

	mu       sync.Mutex
	response VerseResponse
	paths    []string
}

// NewVerseServer starts a fake verse API. It is closed when the test ends.
func NewVerseServer(t *testing.T, response VerseResponse) *VerseServer {
	t.Helper()

	s := &VerseServer{response: response}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.paths = append(s.paths, r.URL.Path)
		resp := s.response
		s.mu.Unlock()

		code := resp.StatusCode
		if code == 0 {
			code = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]any{
			"code":   code,
			"status": resp.Status,
			"data": map[string]any{
				"number": 1,
				"audio":  resp.Audio,
			},
		})
	}))
	t.Cleanup(s.Close)

	return s
}

// SetResponse changes what the server answers with
func (s *VerseServer) SetResponse(response VerseResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.response = response
}

// Paths returns the requested URL paths
func (s *VerseServer) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// StallServer accepts requests and never answers them. Each request path
// is announced on Requested; the handler returns once the client gives up.
type StallServer struct {
	*httptest.Server
	Requested chan string
}

// NewStallServer starts a StallServer that is closed when the test ends
func NewStallServer(t *testing.T) *StallServer {
	t.Helper()

	s := &StallServer{Requested: make(chan string, 16)}
	release := make(chan struct{})
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case s.Requested <- r.URL.Path:
		default:
		}
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(s.Close)
	t.Cleanup(func() { close(release) })

	return s
}

// MP3Header returns a few bytes that look like the start of an MP3 frame
func MP3Header() []byte {
	return []byte{0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00, 0x00, 0x00}
}
