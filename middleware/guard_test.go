package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/navigation"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend struct {
	refresh http.HandlerFunc
	logout  http.HandlerFunc
}

func newStore(t *testing.T, be *backend) *goSession.Store {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) { be.refresh(w, r) })
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) { be.logout(w, r) })
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := goSession.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	s, err := goSession.New().WithConfig(cfg).WithNavigator(navigation.NewLocation("/")).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func status(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		if body != "" {
			_, _ = w.Write([]byte(body))
		}
	}
}

const userBody = `{"id":"u1","email":"u1@example.com","name":"U","provider":"google"}`

func TestDecide(t *testing.T) {
	protected, _ := url.Parse("/protected?tab=2")

	t.Run("loading never redirects", func(t *testing.T) {
		d := Decide(goSession.Session{IsLoading: true}, protected)
		assert.Equal(t, Loading, d.Outcome)
		assert.Empty(t, d.Location)
	})

	t.Run("authenticated is admitted", func(t *testing.T) {
		d := Decide(goSession.Session{User: &goSession.User{ID: "u"}, IsAuthenticated: true}, protected)
		assert.Equal(t, Admit, d.Outcome)
	})

	t.Run("unauthenticated redirects with return-to", func(t *testing.T) {
		d := Decide(goSession.Session{}, protected)
		require.Equal(t, Redirect, d.Outcome)
		assert.Equal(t, "/protected", d.ReturnTo.Path)
		assert.Equal(t, "tab=2", d.ReturnTo.Query)
		assert.Equal(t, "/login?from=%2Fprotected%3Ftab%3D2", d.Location)
	})

	t.Run("nil url returns home", func(t *testing.T) {
		d := Decide(goSession.Session{}, nil)
		assert.Equal(t, "/", d.ReturnTo.Path)
	})
}

func TestDecisionFollow(t *testing.T) {
	nav := navigation.NewLocation("/")
	protected, _ := url.Parse("/protected")

	Decide(goSession.Session{IsLoading: true}, protected).Follow(nav, "")
	assert.Equal(t, "/", nav.Href())

	Decide(goSession.Session{}, protected).Follow(nav, "")
	assert.Equal(t, "/login", nav.Href())
	assert.Equal(t, "/protected", nav.State().From)
}

func TestReturnToFromRequest(t *testing.T) {
	tests := []struct {
		query string
		want  ReturnTo
		ok    bool
	}{
		{"from=%2Fprotected", ReturnTo{Path: "/protected"}, true},
		{"from=%2Freports%3Fyear%3D2024", ReturnTo{Path: "/reports", Query: "year=2024"}, true},
		{"", ReturnTo{}, false},
		{"from=https%3A%2F%2Fevil.example%2F", ReturnTo{}, false},
		{"from=%2F%2Fevil.example", ReturnTo{}, false},
		{"from=relative", ReturnTo{}, false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/login?"+tt.query, nil)
		got, ok := ReturnToFromRequest(r)
		assert.Equal(t, tt.ok, ok, tt.query)
		assert.Equal(t, tt.want, got, tt.query)
	}
}

func protectedRouter(store *goSession.Store, opts ...GuardOption) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(Guard(store, opts...))
		r.Get("/protected", func(w http.ResponseWriter, r *http.Request) {
			h := goSession.MustUse(r.Context())
			_, _ = w.Write([]byte("hello " + h.User.ID))
		})
	})
	return r
}

func TestGuardWhileLoading(t *testing.T) {
	store := newStore(t, &backend{refresh: status(http.StatusOK, userBody)})
	router := protectedRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.Contains(t, rec.Body.String(), "Loading")
}

func TestGuardCustomLoadingHandler(t *testing.T) {
	store := newStore(t, &backend{refresh: status(http.StatusOK, "")})
	router := protectedRouter(store, WithLoadingHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestGuardAdmitsAuthenticated(t *testing.T) {
	store := newStore(t, &backend{refresh: status(http.StatusOK, userBody)})
	store.CheckSession(context.Background())
	router := protectedRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello u1", rec.Body.String())
}

func TestGuardRedirectsUnauthenticated(t *testing.T) {
	store := newStore(t, &backend{refresh: status(http.StatusUnauthorized, "")})
	store.CheckSession(context.Background())
	router := protectedRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "/protected", loc.Query().Get(ReturnToParam))
}

func TestGuardWaitsForSettle(t *testing.T) {
	store := newStore(t, &backend{refresh: status(http.StatusOK, userBody)})
	store.Mount(context.Background())
	router := protectedRouter(store, WithWait(2*time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello u1", rec.Body.String())
}

func TestGuardWithoutStore(t *testing.T) {
	router := protectedRouter(nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestProvideInjectsStore(t *testing.T) {
	store := newStore(t, &backend{refresh: status(http.StatusOK, "")})

	r := chi.NewRouter()
	r.Use(Provide(store))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		h, err := goSession.Use(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(h.Status().String()))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "initializing", rec.Body.String())
}
