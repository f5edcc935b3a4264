package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/MrEthical07/goSession/navigation"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	var (
		addr string
		wait time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo front end",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(os.Stderr)
			if err != nil {
				return err
			}
			cfg, err := goSession.LoadConfigFromEnv()
			if err != nil {
				return err
			}
			store, err := goSession.New().WithConfig(cfg).WithLogger(logger).Build()
			if err != nil {
				return fmt.Errorf("build store: %w", err)
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store.Mount(ctx)

			srv := &http.Server{
				Addr:              addr,
				Handler:           newRouter(store, wait),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("listening", "addr", addr, "api", cfg.API.BaseURL)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":3000", "listen address")
	cmd.Flags().DurationVar(&wait, "guard-wait", 2*time.Second, "how long protected routes wait for the session check")
	return cmd
}

var loginPage = template.Must(template.New("login").Parse(`<!doctype html>
<title>Sign in</title>
{{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
<ul>
{{range .Providers}}<li><a href="{{.Href}}">Continue with {{.Name}}</a></li>
{{end}}</ul>
`))

var homePage = template.Must(template.New("home").Parse(`<!doctype html>
<title>Home</title>
<p>Signed in as {{.Name}} ({{.Email}}) via {{.Provider}}</p>
<p><a href="{{.LogoutPath}}">Sign out</a></p>
`))

type providerLink struct {
	Name string
	Href string
}

func newRouter(store *goSession.Store, wait time.Duration) http.Handler {
	routes := store.Config().Routes

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Provide(store))

	r.Get(routes.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		var from string
		if rt, ok := middleware.ReturnToFromRequest(r); ok {
			from = rt.String()
		}
		data := struct {
			Error     string
			Providers []providerLink
		}{Error: store.Snapshot().Error}
		for _, p := range goSession.Providers() {
			href := routes.LoginPath + "/" + p.String()
			if from != "" {
				href += "?" + url.Values{middleware.ReturnToParam: {from}}.Encode()
			}
			data.Providers = append(data.Providers, providerLink{Name: p.String(), Href: href})
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = loginPage.Execute(w, data)
	})
	r.Get(routes.LoginPath+"/{provider}", loginStartHandler(store))
	r.Method(http.MethodGet, routes.CallbackPath, middleware.CallbackHandler(store))
	r.Method(http.MethodGet, routes.LogoutPath, middleware.LogoutHandler(store))
	r.Method(http.MethodPost, routes.LogoutPath, middleware.LogoutHandler(store))
	r.Method(http.MethodGet, "/metrics", prometheus.Handler(store))
	r.Get("/session", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, store.Snapshot())
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Guard(store, middleware.WithWait(wait)))
		r.Get(routes.HomePath, func(w http.ResponseWriter, r *http.Request) {
			h := goSession.MustUse(r.Context())
			data := struct {
				goSession.User
				LogoutPath string
			}{LogoutPath: routes.LogoutPath}
			if h.User != nil {
				data.User = *h.User
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_ = homePage.Execute(w, data)
		})
	})

	return r
}

// loginStartHandler asks the backend for the provider's authorization URL and sends the
// browser there. A failed initiation lands back on the login page with the error set.
func loginStartHandler(store *goSession.Store) http.HandlerFunc {
	loginPath := store.Config().Routes.LoginPath
	return func(w http.ResponseWriter, r *http.Request) {
		provider, err := goSession.ParseProvider(chi.URLParam(r, "provider"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		loc, ok := store.Navigator().(*navigation.Location)
		if !ok {
			http.Error(w, "login requires a location navigator", http.StatusInternalServerError)
			return
		}
		// A successful login replaces this entry with the provider URL.
		loc.Navigate(loginPath, navigation.State{})
		store.Login(r.Context(), provider)

		http.Redirect(w, r, loc.Href(), http.StatusFound)
	}
}
