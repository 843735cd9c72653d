// Package mockblob implements a minimal object-store HTTP surface for tests
// and the local harness.
package mockblob

import (
	"io"
	"net/http"
	"strings"
	"sync"
)

// Call records a request made to the mock service.
type Call struct {
	Method string
	Path   string
}

// Server serves GET/PUT/HEAD/DELETE /{container}/{object...} over an
// in-memory object map.
type Server struct {
	container string

	mu      sync.Mutex
	objects map[string][]byte
	calls   []Call

	expectedAuthorization string
}

// New constructs a mock server for one container.
func New(container string) *Server {
	return &Server{
		container: strings.Trim(container, "/"),
		objects:   make(map[string][]byte),
	}
}

// RequireBearerToken enforces that requests include an Authorization header
// matching the token. If token is empty, authorization is not enforced.
func (s *Server) RequireBearerToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token = strings.TrimSpace(token)
	if token == "" {
		s.expectedAuthorization = ""
		return
	}
	s.expectedAuthorization = "Bearer " + token
}

// Seed stores object bytes directly, bypassing HTTP.
func (s *Server) Seed(name string, b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[strings.Trim(name, "/")] = append([]byte(nil), b...)
}

// Object returns a stored object's bytes, if present.
func (s *Server) Object(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[strings.Trim(name, "/")]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// ObjectNames returns the names of all stored objects.
func (s *Server) ObjectNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for name := range s.objects {
		out = append(out, name)
	}
	return out
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Handler returns an http.Handler that serves the mock API.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handle)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path})
	expected := s.expectedAuthorization
	s.mu.Unlock()

	if expected != "" && r.Header.Get("Authorization") != expected {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	name, ok := s.objectName(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		b, ok := s.Object(name)
		if !ok {
			http.Error(w, `{"code":"BlobNotFound","message":"object does not exist"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(b)
	case http.MethodHead:
		if _, ok := s.Object(name); !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		b, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		s.Seed(name, b)
		w.WriteHeader(http.StatusCreated)
	case http.MethodDelete:
		s.mu.Lock()
		_, ok := s.objects[name]
		delete(s.objects, name)
		s.mu.Unlock()
		if !ok {
			http.Error(w, `{"code":"BlobNotFound","message":"object does not exist"}`, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) objectName(path string) (string, bool) {
	rest := strings.Trim(path, "/")
	prefix := s.container + "/"
	if !strings.HasPrefix(rest, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(rest, prefix)
	if name == "" || strings.Contains(name, "..") {
		return "", false
	}
	return name, true
}
