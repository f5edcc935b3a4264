package goSession

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/gateway"
	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/navigation"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

// Builder assembles a Store. Every With* method is optional; Build fills the gaps from
// Config.
type Builder struct {
	config Config

	carrier        credential.Carrier
	navigator      navigation.Navigator
	transport      http.RoundTripper
	logger         *slog.Logger
	auditSink      AuditSink
	tracerProvider trace.TracerProvider
	redis          redis.UniversalClient
	interceptors   []gateway.Interceptor

	built bool
}

func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithCarrier overrides the credential slot selected by Config.Credential.Backend.
func (b *Builder) WithCarrier(c credential.Carrier) *Builder {
	b.carrier = c
	return b
}

// WithNavigator sets the navigation target. The default is a navigation.Location that
// only records navigations.
func (b *Builder) WithNavigator(n navigation.Navigator) *Builder {
	b.navigator = n
	return b
}

// WithTransport sets the RoundTripper under the interceptor chain.
func (b *Builder) WithTransport(rt http.RoundTripper) *Builder {
	b.transport = rt
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit destination. Events flow only when Config.Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithTracerProvider sets the provider for the gateway tracing stage. Without it the otel
// global is used when Config.Tracing.Enabled.
func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	b.config.Tracing.Enabled = true
	return b
}

// WithRedis supplies the client for the redis credential backend. A client passed here is
// not closed by Store.Close.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithInterceptors appends gateway stages that run after the bearer stage.
func (b *Builder) WithInterceptors(ics ...gateway.Interceptor) *Builder {
	b.interceptors = append(b.interceptors, ics...)
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the gateway, flows and store. The returned
// Store is alive but not mounted.
func (b *Builder) Build() (*Store, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// -------- STORE SHELL --------
	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	s := newStore(cfg, logger, NewMetrics(cfg.Metrics), dispatcher)

	// -------- CREDENTIAL SLOT --------
	carrier := b.carrier
	if carrier == nil {
		c, closer, err := b.newCarrier(cfg.Credential)
		if err != nil {
			dispatcher.Close()
			return nil, err
		}
		carrier = c
		if closer != nil {
			s.closers = append(s.closers, closer)
		}
	}
	s.carrier = carrier

	s.navigator = b.navigator
	if s.navigator == nil {
		s.navigator = navigation.NewLocation(cfg.Routes.HomePath)
	}

	// -------- GATEWAY --------
	chain, err := b.interceptorChain(cfg, s)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	headers := http.Header{}
	for k, v := range cfg.API.Headers {
		headers.Set(k, v)
	}
	gw, err := gateway.New(gateway.Options{
		BaseURL:      cfg.API.BaseURL,
		Timeout:      cfg.API.Timeout,
		Headers:      headers,
		Transport:    b.transport,
		Interceptors: chain,
		Logger:       logger.With("component", "gateway"),
	})
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.gateway = gw

	// -------- FLOWS --------
	s.flows = flows.Deps{
		Refresh: flows.RefreshDeps{Caller: gw, Path: cfg.API.RefreshPath},
		Login:   flows.LoginDeps{Caller: gw, PathTemplate: cfg.API.LoginPathTemplate},
		Logout: flows.LogoutDeps{
			Caller:          gw,
			Path:            cfg.API.LogoutPath,
			ClearCredential: carrier.Clear,
		},
	}

	b.built = true
	return s, nil
}

// interceptorChain orders the gateway stages. BeforeSend runs top to bottom,
// AfterReceive bottom to top.
func (b *Builder) interceptorChain(cfg Config, s *Store) ([]gateway.Interceptor, error) {
	logger := s.logger.With("component", "gateway")

	chain := []gateway.Interceptor{gateway.RequestID()}
	if cfg.Tracing.Enabled {
		chain = append(chain, gateway.Tracing(b.tracerProvider))
	}
	chain = append(chain, metricsInterceptor(s.metrics))

	if cfg.Credential.DropExpired {
		inspector, err := jwt.NewInspector(cfg.Credential.ExpiryLeeway)
		if err != nil {
			return nil, fmt.Errorf("credential expiry inspector: %w", err)
		}
		chain = append(chain, gateway.DropExpired(s.carrier, inspector, logger))
	}
	chain = append(chain, gateway.Bearer(s.carrier, logger))
	chain = append(chain, b.interceptors...)

	if cfg.Credential.CaptureHeader != "" {
		chain = append(chain, gateway.CaptureCredential(s.carrier, cfg.Credential.CaptureHeader, logger))
	}
	chain = append(chain, gateway.Unauthorized(gateway.UnauthorizedOptions{
		Carrier:   s.carrier,
		Navigator: s.navigator,
		LoginPath: cfg.Routes.LoginPath,
		Logger:    logger,
		OnRevoke:  s.credentialRevoked,
	}))
	return chain, nil
}

func (b *Builder) newCarrier(cfg CredentialConfig) (credential.Carrier, func() error, error) {
	switch cfg.Backend {
	case CredentialFile:
		c, err := credential.NewFile(cfg.FilePath)
		return c, nil, err
	case CredentialRedis:
		client := b.redis
		var closer func() error
		if client == nil {
			if cfg.RedisAddr == "" {
				return nil, nil, ErrRedisRequired
			}
			owned := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			client, closer = owned, owned.Close
		}
		c, err := credential.NewRedis(client, cfg.RedisKey, cfg.TTL)
		if err != nil {
			if closer != nil {
				_ = closer()
			}
			return nil, nil, err
		}
		return c, closer, nil
	default:
		return credential.NewMemory(), nil, nil
	}
}
