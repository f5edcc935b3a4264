package goSession

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/gateway"
	"github.com/alicebob/miniredis/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestBuilderCannotBeReused(t *testing.T) {
	b := New()
	s, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer s.Close()

	if _, err := b.Build(); !errors.Is(err, ErrBuilderUsed) {
		t.Fatalf("expected ErrBuilderUsed, got %v", err)
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.BaseURL = "not a url"
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuildDefaultsToMemoryCarrier(t *testing.T) {
	s, err := New().Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer s.Close()

	if _, ok := s.Carrier().(*credential.Memory); !ok {
		t.Fatalf("expected memory carrier, got %T", s.Carrier())
	}
	if s.Navigator() == nil || s.Gateway() == nil || s.Logger() == nil {
		t.Fatal("expected navigator, gateway and logger to be wired")
	}
}

func TestBuildFileCarrier(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Credential.Backend = CredentialFile
	cfg.Credential.FilePath = filepath.Join(t.TempDir(), "credential")

	s, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer s.Close()

	f, ok := s.Carrier().(*credential.File)
	if !ok {
		t.Fatalf("expected file carrier, got %T", s.Carrier())
	}
	if f.Path() != cfg.Credential.FilePath {
		t.Fatalf("unexpected path %q", f.Path())
	}
}

func TestBuildRedisCarrierWithClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cfg := DefaultConfig()
	cfg.Credential.Backend = CredentialRedis
	cfg.Credential.RedisKey = "test:credential"

	s, err := New().WithConfig(cfg).WithRedis(client).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := s.Carrier().Set(context.Background(), "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("test:credential"); got != "abc" {
		t.Fatalf("expected credential in redis, got %q", got)
	}

	// A caller-supplied client outlives the store.
	_ = s.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("client must stay open: %v", err)
	}
}

func TestBuildRedisCarrierOwnsClientFromAddr(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.Credential.Backend = CredentialRedis
	cfg.Credential.RedisAddr = mr.Addr()

	s, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := s.Carrier().Set(context.Background(), "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, _, err := s.Carrier().Get(context.Background()); !errors.Is(err, credential.ErrSlotUnavailable) {
		t.Fatalf("expected the owned client to be closed, got %v", err)
	}
}

func TestBuildRedisCarrierRequiresClient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Credential.Backend = CredentialRedis
	if _, err := New().WithConfig(cfg).Build(); !errors.Is(err, ErrRedisRequired) {
		t.Fatalf("expected ErrRedisRequired, got %v", err)
	}
}

func TestAuditEventsAreEmitted(t *testing.T) {
	sink := NewChannelSink(16)
	f := newStoreFixture(t, func(b *Builder) {
		b.config.Audit.Enabled = true
		b.WithAuditSink(sink)
	})
	f.backend.set(func(fb *fakeBackend) { fb.logout = respondJSON(http.StatusUnauthorized, "") })

	f.store.CheckSession(context.Background())
	f.store.Login(context.Background(), Provider("myspace"))
	f.store.Logout(context.Background())
	_ = f.store.Close()

	var got []string
	for len(sink.Events()) > 0 {
		got = append(got, (<-sink.Events()).EventType)
	}
	want := []string{AuditSessionChecked, AuditLoginFailed, AuditCredentialRevoked, AuditLogoutFailed}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestTracerProviderWrapsGatewayCalls(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	f := newStoreFixture(t, func(b *Builder) { b.WithTracerProvider(tp) })
	f.store.CheckSession(context.Background())

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "HTTP POST /auth/refresh" {
		t.Fatalf("unexpected span name %q", spans[0].Name())
	}
}

func TestCaptureHeaderStoresCredential(t *testing.T) {
	f := newStoreFixture(t, func(b *Builder) { b.config.Credential.CaptureHeader = "X-Session-Token" })
	f.backend.set(func(fb *fakeBackend) {
		fb.refresh = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Session-Token", "Bearer fresh")
			respondJSON(http.StatusOK, userJSON("u1"))(w, r)
		}
	})

	f.store.CheckSession(context.Background())

	got, ok, err := f.carrier.Get(context.Background())
	if err != nil || !ok || got != "fresh" {
		t.Fatalf("expected captured credential, got %q ok=%v err=%v", got, ok, err)
	}
}

func TestDropExpiredSkipsStaleJWT(t *testing.T) {
	f := newStoreFixture(t, func(b *Builder) { b.config.Credential.DropExpired = true })

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	_ = f.carrier.Set(context.Background(), token)

	f.store.CheckSession(context.Background())

	if got := f.backend.authorization(); got != "" {
		t.Fatalf("expired credential must not be sent, got %q", got)
	}
	if _, ok, _ := f.carrier.Get(context.Background()); ok {
		t.Fatal("expected expired credential to be cleared")
	}
}

func TestExtraInterceptorsRun(t *testing.T) {
	var seen string
	f := newStoreFixture(t, func(b *Builder) {
		b.WithInterceptors(gateway.InterceptorFuncs{
			Before: func(req *http.Request) *http.Request {
				req.Header.Set("X-Client", "test")
				return req
			},
			After: func(req *http.Request, _ *http.Response, _ error) {
				seen = req.Header.Get(gateway.RequestIDHeader)
			},
		})
	})

	f.store.CheckSession(context.Background())
	if seen == "" {
		t.Fatal("expected extra interceptor to observe a request id")
	}
}
