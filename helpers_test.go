package goSession

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/navigation"
)

// fakeBackend serves the three auth endpoints. Handlers can be swapped per test.
type fakeBackend struct {
	mu       sync.Mutex
	refresh  http.HandlerFunc
	logout   http.HandlerFunc
	login    http.HandlerFunc
	calls    map[string]int
	lastAuth atomic.Value
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{
		refresh: respondJSON(http.StatusOK, ""),
		logout:  respondJSON(http.StatusNoContent, ""),
		login:   respondJSON(http.StatusOK, `{"url":"https://idp.example/authorize"}`),
		calls:   map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", fb.route("refresh", func() http.HandlerFunc { return fb.refresh }))
	mux.HandleFunc("POST /auth/logout", fb.route("logout", func() http.HandlerFunc { return fb.logout }))
	mux.HandleFunc("GET /auth/{provider}/login", fb.route("login", func() http.HandlerFunc { return fb.login }))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) route(name string, pick func() http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.calls[name+" "+r.URL.Path]++
		h := pick()
		fb.mu.Unlock()
		fb.lastAuth.Store(r.Header.Get("Authorization"))
		h(w, r)
	}
}

func (fb *fakeBackend) set(fn func(fb *fakeBackend)) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fn(fb)
}

func (fb *fakeBackend) count(key string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.calls[key]
}

func (fb *fakeBackend) authorization() string {
	v, _ := fb.lastAuth.Load().(string)
	return v
}

func respondJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		if body != "" {
			_, _ = w.Write([]byte(body))
		}
	}
}

func userJSON(id string) string {
	data, _ := json.Marshal(User{ID: id, Email: id + "@example.com", Name: "User " + id, Provider: ProviderGoogle})
	return string(data)
}

// gated blocks until release is closed and signals arrival on arrived.
func gated(arrived chan<- struct{}, release <-chan struct{}, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		<-release
		next(w, r)
	}
}

type storeFixture struct {
	store   *Store
	backend *fakeBackend
	nav     *navigation.Location
	carrier *credential.Memory
}

func newStoreFixture(t *testing.T, configure ...func(*Builder)) *storeFixture {
	t.Helper()
	fb, srv := newFakeBackend(t)

	cfg := DefaultConfig()
	cfg.API.BaseURL = srv.URL
	cfg.Metrics.Enabled = true

	nav := navigation.NewLocation("/")
	carrier := credential.NewMemory()
	b := New().WithConfig(cfg).WithNavigator(nav).WithCarrier(carrier)
	for _, fn := range configure {
		fn(b)
	}

	s, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return &storeFixture{store: s, backend: fb, nav: nav, carrier: carrier}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// assertConsistent may run on subscriber goroutines, so it never calls FailNow.
func assertConsistent(t *testing.T, s Session) {
	t.Helper()
	if s.IsLoading {
		return
	}
	if s.IsAuthenticated != (s.User != nil) {
		t.Errorf("inconsistent session: authenticated=%v user=%+v", s.IsAuthenticated, s.User)
	}
}
