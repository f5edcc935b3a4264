package gateway

import (
	"log/slog"
	"net/http"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/navigation"
)

// DefaultLoginPath is where a 401 sends the client.
const DefaultLoginPath = "/login"

// UnauthorizedOptions configures the Unauthorized interceptor.
type UnauthorizedOptions struct {
	Carrier   credential.Carrier
	Navigator navigation.Navigator
	LoginPath string
	Logger    *slog.Logger
	// OnRevoke runs after the credential has been cleared and the navigation issued.
	OnRevoke func(req *http.Request)
}

// Unauthorized handles credential expiry globally: any 401 from the gateway's own host
// clears the credential slot and hard-navigates to the login page. The response itself passes through untouched, so the
// caller still sees the failure.
func Unauthorized(opts UnauthorizedOptions) Interceptor {
	logger := orDiscard(opts.Logger)
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}

	return InterceptorFuncs{
		After: func(req *http.Request, resp *http.Response, err error) {
			if err != nil || resp == nil || resp.StatusCode != http.StatusUnauthorized || !OnOrigin(req) {
				return
			}
			if opts.Carrier != nil {
				if clearErr := opts.Carrier.Clear(req.Context()); clearErr != nil {
					logger.WarnContext(req.Context(), "credential clear after 401 failed", "error", clearErr)
				}
			}
			if opts.Navigator != nil {
				opts.Navigator.Assign(loginPath)
			}
			logger.InfoContext(req.Context(), "credential rejected; redirecting to login",
				"method", req.Method,
				"path", req.URL.Path,
			)
			if opts.OnRevoke != nil {
				opts.OnRevoke(req)
			}
		},
	}
}
