package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophboard/internal/client/identity"
	"github.com/dmitrijs2005/gophboard/internal/client/tokenstore"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/logging"
)

// HeaderBinder is the request-header side the manager keeps in sync.
type HeaderBinder interface {
	SetToken(token string)
	Rehydrate(ctx context.Context) (bool, error)
}

// Manager owns AuthState. Construct it with NewManager and call Start once.
type Manager struct {
	provider identity.Provider
	store    tokenstore.Store
	binder   HeaderBinder
	logger   logging.Logger

	// op serialises Login, Signup, Logout and the other provider-mutating
	// calls so their events arrive in call order.
	op sync.Mutex

	mu       sync.RWMutex
	baseCtx  context.Context
	status   State
	user     *identity.User
	loading  int
	closed   bool
	sub      *identity.Subscription
	watchers map[int]func(AuthState)
	nextW    int
}

func NewManager(provider identity.Provider, store tokenstore.Store, binder HeaderBinder, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{
		provider: provider,
		store:    store,
		binder:   binder,
		logger:   logger.With("component", "session"),
		baseCtx:  context.Background(),
		status:   StateInitializing,
		watchers: make(map[int]func(AuthState)),
	}
}

// Start subscribes to the provider and resolves the initial state. The
// outcome is delivered to the subscription handler as INITIAL_SESSION so
// that the handler stays the only writer of AuthState.
//
// A missing session clears the request headers. A failing provider call is
// logged and also ends UNAUTHENTICATED, but leaves the token store as is so
// a transient outage does not sign the user out for good.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.sub != nil || m.closed {
		m.mu.Unlock()
		return
	}
	m.baseCtx = context.WithoutCancel(ctx)
	m.status = StateInitializing
	m.loading++
	m.mu.Unlock()
	m.notify()

	sub := m.provider.OnAuthStateChange(m.handle)
	m.mu.Lock()
	m.sub = sub
	m.mu.Unlock()

	if applied, err := m.binder.Rehydrate(ctx); err != nil {
		m.logger.Warn(ctx, "token rehydration failed", "error", err)
	} else {
		m.logger.Debug(ctx, "token rehydration finished", "applied", applied)
	}

	m.handle(identity.EventInitialSession, m.initialSession(ctx))
	m.endLoading()
}

func (m *Manager) initialSession(ctx context.Context) *identity.Session {
	sess, err := m.provider.GetSession(ctx)
	if err != nil {
		m.logger.Warn(ctx, "initial session lookup failed", "error", err)
		return nil
	}
	if sess == nil {
		return nil
	}

	user, err := m.provider.GetUser(ctx)
	if err != nil {
		m.logger.Warn(ctx, "initial user lookup failed", "error", err)
		return nil
	}
	if user == nil {
		return nil
	}

	out := *sess
	out.User = user
	return &out
}

// handle is the subscription handler. Store and binder failures are logged;
// the in-memory state always follows the event.
func (m *Manager) handle(event identity.Event, sess *identity.Session) {
	m.mu.RLock()
	closed := m.closed
	ctx := m.baseCtx
	m.mu.RUnlock()
	if closed {
		return
	}

	log := m.logger.With("event", string(event))

	switch {
	case event == identity.EventSignedOut:
		if err := m.store.Clear(ctx); err != nil {
			log.Error(ctx, "failed to clear token store", "error", err)
		}
		m.binder.SetToken("")
		m.setUser(nil)

	case sess == nil || sess.AccessToken == "" || sess.User == nil:
		// INITIAL_SESSION without a usable session. Other events never
		// arrive without one, but are treated the same way if they do.
		m.binder.SetToken("")
		m.setUser(nil)

	default:
		err := m.store.Save(ctx, tokenstore.Session{
			AccessToken:  sess.AccessToken,
			RefreshToken: sess.RefreshToken,
			UserID:       sess.UserID(),
		})
		if err != nil {
			log.Error(ctx, "failed to persist session", "error", err)
		}
		m.binder.SetToken(sess.AccessToken)
		u := *sess.User
		m.setUser(&u)
	}

	log.Debug(ctx, "auth state changed", "status", string(m.Status()))
}

func (m *Manager) setUser(u *identity.User) {
	m.mu.Lock()
	m.user = u
	if u != nil {
		m.status = StateAuthenticated
	} else {
		m.status = StateUnauthenticated
	}
	m.mu.Unlock()
	m.notify()
}

// Login signs in with email and password.
func (m *Manager) Login(ctx context.Context, creds identity.Credentials) Result {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := validateCredentials(creds); err != nil {
		return invalid(err)
	}

	return m.run(ctx, "login", func() (string, error) {
		if _, err := m.provider.SignInWithPassword(ctx, creds); err != nil {
			return "", err
		}
		return MsgLoginOK, nil
	})
}

// Signup registers a new account. Whether the user ends up signed in is up
// to the provider; with email confirmation enabled no session is issued.
func (m *Manager) Signup(ctx context.Context, req SignupRequest) Result {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := validateSignup(req); err != nil {
		return invalid(err)
	}

	return m.run(ctx, "signup", func() (string, error) {
		_, sess, err := m.provider.SignUp(ctx, req.credentials(), req.metadata())
		if err != nil {
			return "", err
		}
		if sess == nil {
			return MsgSignupConfirm, nil
		}
		return MsgSignupOK, nil
	})
}

// Logout signs out. Local state is cleared even when the provider call
// fails: a local SIGNED_OUT is then fed to the handler.
func (m *Manager) Logout(ctx context.Context) {
	m.op.Lock()
	defer m.op.Unlock()
	m.beginLoading()
	defer m.endLoading()

	err := m.provider.SignOut(ctx)
	if err != nil {
		m.logger.Warn(ctx, "provider sign out failed, clearing local session", "error", err)
	}
	if err != nil || m.Status() != StateUnauthenticated {
		m.handle(identity.EventSignedOut, nil)
	}
}

// ResetPassword asks the provider to mail a recovery code.
func (m *Manager) ResetPassword(ctx context.Context, email string) Result {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return invalid(err)
	}

	return m.run(ctx, "reset password", func() (string, error) {
		if err := m.provider.ResetPasswordForEmail(ctx, email); err != nil {
			return "", err
		}
		return MsgResetSent, nil
	})
}

// Recover exchanges a mailed recovery code for a session.
func (m *Manager) Recover(ctx context.Context, email, code string) Result {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return invalid(err)
	}
	if code == "" {
		return Result{Message: "recovery code is required"}
	}

	return m.run(ctx, "recover", func() (string, error) {
		if _, err := m.provider.VerifyRecovery(ctx, email, code); err != nil {
			return "", err
		}
		return MsgRecoveryOK, nil
	})
}

// ChangePassword sets a new password for the signed-in user.
func (m *Manager) ChangePassword(ctx context.Context, password string) Result {
	if err := validatePassword(password); err != nil {
		return invalid(err)
	}
	return m.updateUser(ctx, identity.UserAttributes{Password: password}, MsgPasswordOK)
}

// UpdateProfile merges meta into the signed-in user's metadata.
func (m *Manager) UpdateProfile(ctx context.Context, meta identity.Metadata) Result {
	return m.updateUser(ctx, identity.UserAttributes{Data: meta}, MsgProfileOK)
}

func (m *Manager) updateUser(ctx context.Context, attrs identity.UserAttributes, okMsg string) Result {
	if !m.State().IsAuthenticated {
		return Result{Message: MsgNotSignedIn}
	}
	return m.run(ctx, "update user", func() (string, error) {
		if _, err := m.provider.UpdateUser(ctx, attrs); err != nil {
			return "", err
		}
		return okMsg, nil
	})
}

// run executes fn under the operation guard with the loading overlay on and
// converts its error into a Result.
func (m *Manager) run(ctx context.Context, op string, fn func() (string, error)) Result {
	m.op.Lock()
	defer m.op.Unlock()
	m.beginLoading()
	defer m.endLoading()

	msg, err := fn()
	if err == nil {
		return Result{Success: true, Message: msg}
	}

	if apiErr, ok := identity.IsAPIError(err); ok {
		m.logger.Info(ctx, op+" rejected", "status", apiErr.Status, "code", apiErr.Code)
		return Result{Message: apiErr.Message}
	}
	if errors.Is(err, common.ErrNoSession) {
		return Result{Message: MsgNotSignedIn}
	}
	m.logger.Error(ctx, op+" failed", "error", err)
	return Result{Message: MsgUnexpectedFail}
}

func invalid(err error) Result {
	return Result{Message: validationMessage(err)}
}

// State returns a snapshot of the current AuthState.
func (m *Manager) State() AuthState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot()
}

func (m *Manager) snapshot() AuthState {
	s := AuthState{
		Status:          m.status,
		IsAuthenticated: m.user != nil,
		IsLoading:       m.loading > 0,
	}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

func (m *Manager) Status() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Watch registers fn to be called with a fresh snapshot after every change.
// The returned func removes it.
func (m *Manager) Watch(fn func(AuthState)) (cancel func()) {
	m.mu.Lock()
	id := m.nextW
	m.nextW++
	m.watchers[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.watchers, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) notify() {
	m.mu.RLock()
	s := m.snapshot()
	fns := make([]func(AuthState), 0, len(m.watchers))
	for _, fn := range m.watchers {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (m *Manager) beginLoading() {
	m.mu.Lock()
	m.loading++
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) endLoading() {
	m.mu.Lock()
	if m.loading > 0 {
		m.loading--
	}
	m.mu.Unlock()
	m.notify()
}

// Close releases the provider subscription. Events arriving afterwards are
// ignored.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	sub := m.sub
	m.sub = nil
	m.watchers = make(map[int]func(AuthState))
	m.mu.Unlock()

	sub.Unsubscribe()
}
