package goSession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/gateway"
	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/navigation"
)

// Store owns the session state machine:
//
//	Initializing -> Authenticated | Unauthenticated
//
// Both settled states are re-enterable through Login, Logout and RefreshToken.
//
// Every operation takes a ticket when it starts. A result that would change who is signed
// in is dropped when a newer such result has already been committed, so a slow response
// never overwrites a faster, more recent one. A confirmed logout supersedes every result
// in flight when it lands. Error-only results (a failed login or logout) always apply to
// the current state. After Close nothing is committed.
type Store struct {
	cfg       Config
	gateway   *gateway.Gateway
	carrier   credential.Carrier
	navigator navigation.Navigator
	flows     flows.Deps
	logger    *slog.Logger
	metrics   *Metrics
	audit     *audit.Dispatcher
	closers   []func() error

	alive     atomic.Bool
	mounted   atomic.Bool
	tickets   atomic.Uint64
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}

	mu         sync.Mutex
	state      Session
	version    uint64
	authTicket uint64
	settled    chan struct{}
	subs       map[uint64]*subscription
	nextSubID  uint64
}

type subscription struct {
	mu      sync.Mutex
	last    uint64
	fn      func(Session)
	removed atomic.Bool
}

func (s *subscription) deliver(version uint64, snap Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed.Load() || version <= s.last {
		return
	}
	s.last = version
	s.fn(snap)
}

func newStore(cfg Config, logger *slog.Logger, metrics *Metrics, dispatcher *audit.Dispatcher) *Store {
	s := &Store{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		audit:   dispatcher,
		done:    make(chan struct{}),
		state:   Session{IsLoading: true},
		settled: make(chan struct{}),
		subs:    make(map[uint64]*subscription),
	}
	s.alive.Store(true)
	return s
}

// Mount starts the one-time session check in the background. Later calls are no-ops, as
// are calls after Close. ctx bounds the check call.
func (s *Store) Mount(ctx context.Context) {
	if !s.alive.Load() || !s.mounted.CompareAndSwap(false, true) {
		return
	}
	go s.CheckSession(ctx)
}

// CheckSession asks the backend who the current user is. Any failure resolves to
// Unauthenticated without a user-facing error.
func (s *Store) CheckSession(ctx context.Context) {
	ticket := s.tickets.Add(1)
	res := flows.RunCheck(ctx, s.flows.Refresh)
	if res.Err != nil {
		s.logger.DebugContext(ctx, "session check failed", "error", res.Err)
	}

	next := Session{}
	if res.User != nil {
		next = authenticated(res.User)
	}
	if !s.commitAuth(ticket, next) {
		return
	}

	if next.IsAuthenticated {
		s.metrics.Inc(MetricSessionCheckAuthenticated)
	} else {
		s.metrics.Inc(MetricSessionCheckUnauthenticated)
	}
	s.emitAudit(ctx, AuditEvent{
		EventType: AuditSessionChecked,
		UserID:    userID(next.User),
		Success:   next.IsAuthenticated,
		Error:     errString(res.Err),
	})
}

// Login asks the backend for provider's authorization URL and hard-navigates to it.
// On failure Session.Error becomes MessageLoginFailed and the signed-in state is kept.
func (s *Store) Login(ctx context.Context, provider Provider) {
	if !provider.Valid() {
		s.loginFailed(ctx, provider, fmt.Errorf("%w: %q", ErrUnknownProvider, string(provider)))
		return
	}

	res := flows.RunLogin(ctx, string(provider), s.flows.Login)
	if res.Err != nil {
		s.loginFailed(ctx, provider, res.Err)
		return
	}

	s.metrics.Inc(MetricLoginStarted)
	s.emitAudit(ctx, AuditEvent{
		EventType: AuditLoginStarted,
		Provider:  string(provider),
		Success:   true,
	})
	s.logger.InfoContext(ctx, "redirecting to identity provider", "provider", provider)
	s.navigator.Replace(res.URL)
}

func (s *Store) loginFailed(ctx context.Context, provider Provider, err error) {
	s.logger.ErrorContext(ctx, "login failed", "provider", provider, "error", err)
	s.commitError(MessageLoginFailed)
	s.metrics.Inc(MetricLoginFailure)
	s.emitAudit(ctx, AuditEvent{
		EventType: AuditLoginFailed,
		Provider:  string(provider),
		Error:     err.Error(),
	})
}

// Logout ends the session on the backend. Only a confirmed logout clears the local user
// and the stored credential; a failed one sets MessageLogoutFailed and keeps the session.
func (s *Store) Logout(ctx context.Context) {
	s.tickets.Add(1)
	prev := s.Snapshot()

	res := flows.RunLogout(ctx, s.flows.Logout)
	if res.Err != nil {
		s.logger.ErrorContext(ctx, "logout failed", "error", res.Err)
		s.commitError(MessageLogoutFailed)
		s.metrics.Inc(MetricLogoutFailure)
		s.emitAudit(ctx, AuditEvent{
			EventType: AuditLogoutFailed,
			UserID:    userID(prev.User),
			Error:     res.Err.Error(),
		})
		return
	}
	if res.ClearErr != nil {
		s.logger.WarnContext(ctx, "credential clear after logout failed", "error", res.ClearErr)
	}

	s.commitSignedOut()
	s.metrics.Inc(MetricLogoutSuccess)
	s.emitAudit(ctx, AuditEvent{
		EventType: AuditLogout,
		UserID:    userID(prev.User),
		Success:   true,
		Error:     errString(res.ClearErr),
	})
}

// RefreshToken re-reads the session after a provider redirect. Unlike CheckSession a
// rejected call is returned to the caller; the state still becomes Unauthenticated with
// no user-facing error.
func (s *Store) RefreshToken(ctx context.Context) error {
	if !s.alive.Load() {
		return ErrStoreClosed
	}
	ticket := s.tickets.Add(1)

	res := flows.RunRefresh(ctx, s.flows.Refresh)
	if res.Err != nil {
		s.logger.WarnContext(ctx, "session refresh failed", "error", res.Err)
		s.commitAuth(ticket, Session{})
		s.metrics.Inc(MetricRefreshFailure)
		s.emitAudit(ctx, AuditEvent{EventType: AuditRefreshFailed, Error: res.Err.Error()})
		return fmt.Errorf("refresh session: %w", res.Err)
	}

	if res.User == nil {
		s.commitAuth(ticket, Session{})
		s.metrics.Inc(MetricRefreshEmpty)
		return nil
	}

	next := authenticated(res.User)
	s.commitAuth(ticket, next)
	s.metrics.Inc(MetricRefreshSuccess)
	s.emitAudit(ctx, AuditEvent{
		EventType: AuditRefreshSuccess,
		UserID:    next.User.ID,
		Provider:  string(next.User.Provider),
		Success:   true,
	})
	return nil
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to receive every committed state, starting with the current one.
// Deliveries to one subscriber are serialized and never go back in time. fn must not call
// Store operations synchronously.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	sub := &subscription{fn: fn}

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = sub
	version, snap := s.version, s.state.clone()
	s.mu.Unlock()

	// A commit racing this call may already have delivered a newer state.
	sub.mu.Lock()
	if sub.last == 0 {
		sub.last = version
		fn(snap)
	}
	sub.mu.Unlock()

	return func() {
		sub.removed.Store(true)
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Wait blocks until the store leaves Initializing and returns the state at that point.
// It returns ErrStoreClosed if the store is closed first.
func (s *Store) Wait(ctx context.Context) (Session, error) {
	select {
	case <-s.settled:
		return s.Snapshot(), nil
	case <-s.done:
		return s.Snapshot(), ErrStoreClosed
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
}

// Close tears the store down. Results of in-flight calls are discarded, the audit
// dispatcher is drained, and resources the builder created are released. Safe to call
// more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.alive.Store(false)
		s.mu.Unlock()
		close(s.done)

		s.audit.Close()
		var errs []error
		for _, c := range s.closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// Alive reports whether Close has not been called yet.
func (s *Store) Alive() bool { return s.alive.Load() }

func (s *Store) Config() Config                  { return cloneConfig(s.cfg) }
func (s *Store) Gateway() *gateway.Gateway       { return s.gateway }
func (s *Store) Carrier() credential.Carrier     { return s.carrier }
func (s *Store) Navigator() navigation.Navigator { return s.navigator }
func (s *Store) Metrics() *Metrics               { return s.metrics }
func (s *Store) Logger() *slog.Logger            { return s.logger }

// commitAuth replaces the whole state unless ticket is not newer than the last committed
// authentication change.
func (s *Store) commitAuth(ticket uint64, next Session) bool {
	return s.commit(func(prev Session) (Session, bool) {
		if ticket <= s.authTicket {
			s.metrics.Inc(MetricStaleResultDropped)
			return prev, false
		}
		s.authTicket = ticket
		return next, true
	})
}

// commitSignedOut commits a confirmed logout. The backend has already ended the session
// and the credential is gone, so it supersedes every result still in flight.
func (s *Store) commitSignedOut() bool {
	return s.commit(func(Session) (Session, bool) {
		s.authTicket = s.tickets.Load()
		return Session{}, true
	})
}

// commitError sets only the user-facing error.
func (s *Store) commitError(message string) bool {
	return s.commit(func(prev Session) (Session, bool) {
		prev.Error = message
		return prev, true
	})
}

// commit runs mutate under the state lock. mutate may read and write authTicket.
func (s *Store) commit(mutate func(prev Session) (Session, bool)) bool {
	s.mu.Lock()
	if !s.alive.Load() {
		s.mu.Unlock()
		s.metrics.Inc(MetricClosedResultDropped)
		return false
	}
	next, ok := mutate(s.state)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.state = next
	s.version++
	version, snap := s.version, next.clone()
	if !next.IsLoading {
		select {
		case <-s.settled:
		default:
			close(s.settled)
		}
	}
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(version, snap)
	}
	return true
}

func authenticated(p *flows.UserPayload) Session {
	return Session{
		User: &User{
			ID:       p.ID,
			Email:    p.Email,
			Name:     p.Name,
			Picture:  p.Picture,
			Provider: Provider(p.Provider),
		},
		IsAuthenticated: true,
	}
}

func userID(u *User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
