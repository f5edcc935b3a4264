package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/navigation"
)

// DefaultLoginPath is used when no login path is configured.
const DefaultLoginPath = "/login"

// ReturnToParam carries the return-to hint on the login redirect.
const ReturnToParam = "from"

// Outcome is the route-guard verdict.
type Outcome uint8

const (
	Loading Outcome = iota + 1
	Admit
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Admit:
		return "admit"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// ReturnTo is where the user was headed before being sent to login.
type ReturnTo struct {
	Path  string
	Query string
}

// String renders the path with its query, if any.
func (r ReturnTo) String() string {
	if r.Query == "" {
		return r.Path
	}
	return r.Path + "?" + r.Query
}

// Decision is the result of Decide. Location and ReturnTo are set only for Redirect.
type Decision struct {
	Outcome  Outcome
	Location string
	ReturnTo ReturnTo
}

// Decide applies the guard rules to a session snapshot. It never redirects while the
// session is loading.
func Decide(session goSession.Session, requested *url.URL) Decision {
	return decide(session, DefaultLoginPath, requested)
}

func decide(session goSession.Session, loginPath string, requested *url.URL) Decision {
	switch {
	case session.IsLoading:
		return Decision{Outcome: Loading}
	case session.IsAuthenticated:
		return Decision{Outcome: Admit}
	}

	rt := ReturnTo{Path: "/"}
	if requested != nil {
		if p := requested.EscapedPath(); p != "" {
			rt.Path = p
		}
		rt.Query = requested.RawQuery
	}
	return Decision{
		Outcome:  Redirect,
		Location: LoginLocation(loginPath, rt),
		ReturnTo: rt,
	}
}

// LoginLocation builds "<loginPath>?from=<escaped return-to>".
func LoginLocation(loginPath string, rt ReturnTo) string {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	if rt.Path == "" {
		return loginPath
	}
	return loginPath + "?" + url.Values{ReturnToParam: {rt.String()}}.Encode()
}

// Follow performs the decision on n as an in-app navigation carrying the return-to state.
// It does nothing unless the outcome is Redirect.
func (d Decision) Follow(n navigation.Navigator, loginPath string) {
	if d.Outcome != Redirect || n == nil {
		return
	}
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	n.Navigate(loginPath, navigation.State{From: d.ReturnTo.String()})
}

// ReturnToFromRequest reads the return-to hint of a login page request. Hints that are not
// same-site absolute paths are discarded.
func ReturnToFromRequest(r *http.Request) (ReturnTo, bool) {
	raw := r.URL.Query().Get(ReturnToParam)
	if raw == "" {
		return ReturnTo{}, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return ReturnTo{}, false
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || strings.Contains(u.Path, `\`) {
		return ReturnTo{}, false
	}
	return ReturnTo{Path: u.EscapedPath(), Query: u.RawQuery}, true
}

type guardOptions struct {
	loginPath string
	loading   http.Handler
	wait      time.Duration
}

// GuardOption customizes Guard.
type GuardOption func(*guardOptions)

// WithLoginPath overrides the store's configured login route.
func WithLoginPath(path string) GuardOption {
	return func(o *guardOptions) { o.loginPath = path }
}

// WithLoadingHandler replaces the default loading placeholder.
func WithLoadingHandler(h http.Handler) GuardOption {
	return func(o *guardOptions) { o.loading = h }
}

// WithWait makes the guard block up to d for the session to settle before falling back
// to the placeholder.
func WithWait(d time.Duration) GuardOption {
	return func(o *guardOptions) { o.wait = d }
}

// LoadingPlaceholder is the default response while the session check is in flight.
var LoadingPlaceholder = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Loading...\n"))
})

// Guard protects next: loading renders the placeholder, an authenticated session is
// admitted with the store in its context, anything else is redirected to login with a
// return-to hint.
func Guard(store *goSession.Store, opts ...GuardOption) func(http.Handler) http.Handler {
	o := guardOptions{loading: LoadingPlaceholder}
	if store != nil {
		o.loginPath = store.Config().Routes.LoginPath
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil {
				http.Error(w, "session store not configured", http.StatusInternalServerError)
				return
			}

			session := store.Snapshot()
			if session.IsLoading && o.wait > 0 {
				ctx, cancel := context.WithTimeout(r.Context(), o.wait)
				if settled, err := store.Wait(ctx); err == nil {
					session = settled
				}
				cancel()
			}

			d := decide(session, o.loginPath, r.URL)
			switch d.Outcome {
			case Loading:
				o.loading.ServeHTTP(w, r)
			case Admit:
				next.ServeHTTP(w, r.WithContext(goSession.WithStore(r.Context(), store)))
			default:
				http.Redirect(w, r, d.Location, http.StatusFound)
			}
		})
	}
}

// Provide injects store into every request context so handlers can call goSession.Use.
func Provide(store *goSession.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(goSession.WithStore(r.Context(), store)))
		})
	}
}
