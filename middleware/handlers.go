package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// CallbackHandler completes an OAuth round trip: it refreshes the session and redirects
// home, or to login when the refresh was rejected.
func CallbackHandler(store *goSession.Store) http.Handler {
	routes := store.Config().Routes
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := store.RefreshToken(r.Context()); err != nil {
			store.Logger().WarnContext(r.Context(), "callback refresh failed", "error", err)
			http.Redirect(w, r, routes.LoginPath, http.StatusFound)
			return
		}
		http.Redirect(w, r, routes.HomePath, http.StatusFound)
	})
}

// LogoutHandler logs out and redirects home whatever the outcome. A failed logout leaves
// its message on the session for the next view to show.
func LogoutHandler(store *goSession.Store) http.Handler {
	home := store.Config().Routes.HomePath
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store.Logout(r.Context())
		http.Redirect(w, r, home, http.StatusFound)
	})
}
