// Package testutil provides an in-process stand-in for the legacy quote service.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Request is one call received by a LegacyServer.
type Request struct {
	Endpoint string
	Query    url.Values
	// Names lists the query parameter names in the order they were sent.
	Names []string
}

// LegacyServer answers every endpoint with a ResultInfo envelope. Endpoints
// succeed with empty Selections unless configured otherwise.
type LegacyServer struct {
	*httptest.Server

	mu         sync.Mutex
	selections map[string]string
	failures   map[string]string
	broken     map[string]bool
	requests   []Request
}

func NewLegacyServer(t testing.TB) *LegacyServer {
	t.Helper()
	s := &LegacyServer{
		selections: make(map[string]string),
		failures:   make(map[string]string),
		broken:     make(map[string]bool),
	}
	r := chi.NewRouter()
	r.Get("/{endpoint}", s.handle)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// SetSelections makes endpoint succeed with inner as the Selections content.
func (s *LegacyServer) SetSelections(endpoint, inner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections[endpoint] = inner
	delete(s.failures, endpoint)
	delete(s.broken, endpoint)
}

// Fail makes endpoint answer with a non-success Result and message.
func (s *LegacyServer) Fail(endpoint, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[endpoint] = message
}

// Break makes endpoint answer with a body that is not XML.
func (s *LegacyServer) Break(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken[endpoint] = true
}

// Requests returns the calls received for endpoint, or every call when
// endpoint is empty.
func (s *LegacyServer) Requests(endpoint string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, req := range s.requests {
		if endpoint == "" || req.Endpoint == endpoint {
			out = append(out, req)
		}
	}
	return out
}

func (s *LegacyServer) handle(w http.ResponseWriter, r *http.Request) {
	endpoint := chi.URLParam(r, "endpoint")

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Endpoint: endpoint,
		Query:    r.URL.Query(),
		Names:    queryNames(r.URL.RawQuery),
	})
	message, failed := s.failures[endpoint]
	broken := s.broken[endpoint]
	inner := s.selections[endpoint]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	switch {
	case broken:
		_, _ = w.Write([]byte("<html><body>Fatal error"))
	case failed:
		_, _ = w.Write([]byte(Failure(message)))
	default:
		_, _ = w.Write([]byte(Success(inner)))
	}
}

// Success wraps inner in a successful envelope.
func Success(inner string) string {
	return fmt.Sprintf("<ResultInfo><Result>Success</Result><Selections>%s</Selections></ResultInfo>", inner)
}

// Failure builds a rejected envelope; an empty message is omitted.
func Failure(message string) string {
	if message == "" {
		return "<ResultInfo><Result>Failure</Result></ResultInfo>"
	}
	return fmt.Sprintf("<ResultInfo><Result>Failure</Result><Message>%s</Message></ResultInfo>", message)
}

func queryNames(raw string) []string {
	var names []string
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		name, _, _ := strings.Cut(pair, "=")
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		names = append(names, name)
	}
	return names
}
