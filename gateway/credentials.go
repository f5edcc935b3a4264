package gateway

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/jwt"
)

const bearerPrefix = "Bearer "

// Bearer attaches the stored credential to every outbound request to the gateway's own
// host. Redirect hops to other hosts go out without it.
//
// An empty slot, or a slot that cannot be read, produces an uncredentialed request; read
// errors are logged and otherwise ignored.
func Bearer(carrier credential.Carrier, logger *slog.Logger) Interceptor {
	logger = orDiscard(logger)
	return InterceptorFuncs{
		Before: func(req *http.Request) *http.Request {
			if carrier == nil || !OnOrigin(req) {
				return req
			}
			token, ok, err := carrier.Get(req.Context())
			if err != nil {
				logger.WarnContext(req.Context(), "credential read failed; sending without credential", "error", err)
				return req
			}
			if ok && token != "" {
				req.Header.Set("Authorization", bearerPrefix+token)
			}
			return req
		},
	}
}

// CaptureCredential stores the value of header from any successful response of the
// gateway's own host into the carrier. The gateway is the only component that writes a fresh credential.
func CaptureCredential(carrier credential.Carrier, header string, logger *slog.Logger) Interceptor {
	logger = orDiscard(logger)
	header = strings.TrimSpace(header)
	return InterceptorFuncs{
		After: func(req *http.Request, resp *http.Response, err error) {
			if carrier == nil || header == "" || err != nil || resp == nil || !OnOrigin(req) {
				return
			}
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				return
			}
			value := strings.TrimSpace(resp.Header.Get(header))
			value = strings.TrimPrefix(value, bearerPrefix)
			if value == "" {
				return
			}
			if err := carrier.Set(req.Context(), value); err != nil {
				logger.WarnContext(req.Context(), "credential capture failed", "error", err)
			}
		},
	}
}

// DropExpired clears a JWT credential whose exp has already passed, so the request goes out
// uncredentialed instead of provoking a 401. It must precede Bearer in the chain.
// Opaque credentials are left alone.
func DropExpired(carrier credential.Carrier, inspector *jwt.Inspector, logger *slog.Logger) Interceptor {
	logger = orDiscard(logger)
	return InterceptorFuncs{
		Before: func(req *http.Request) *http.Request {
			if carrier == nil || inspector == nil {
				return req
			}
			token, ok, err := carrier.Get(req.Context())
			if err != nil || !ok {
				return req
			}
			if !inspector.Expired(token) {
				return req
			}
			if err := carrier.Clear(req.Context()); err != nil {
				logger.WarnContext(req.Context(), "expired credential clear failed", "error", err)
				return req
			}
			logger.DebugContext(req.Context(), "dropped expired credential before send")
			return req
		},
	}
}
