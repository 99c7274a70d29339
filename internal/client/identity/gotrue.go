package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophboard/internal/client/rest"
	"github.com/dmitrijs2005/gophboard/internal/client/tokenstore"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/logging"
)

// SessionLoader reads the persisted session used to restore state after a
// restart.
type SessionLoader interface {
	Load(ctx context.Context) (tokenstore.Session, bool, error)
}

// DefaultExpiryMargin is how long before expiry a token is already treated
// as expired.
const DefaultExpiryMargin = 10 * time.Second

// GoTrueClient implements Provider against the identity REST API. api must
// be rooted at <project>/auth/v1.
type GoTrueClient struct {
	api          *rest.Client
	store        SessionLoader
	logger       logging.Logger
	redirectTo   string
	now          func() time.Time
	expiryMargin time.Duration

	mu      sync.Mutex
	session *Session

	// refreshMu keeps two callers from spending the same refresh token.
	refreshMu sync.Mutex

	events Broadcaster
}

var _ Provider = (*GoTrueClient)(nil)

type GoTrueOption func(*GoTrueClient)

// WithRedirectTo sets the redirect_to URL sent with password recovery mails.
func WithRedirectTo(u string) GoTrueOption {
	return func(c *GoTrueClient) { c.redirectTo = u }
}

func WithLogger(l logging.Logger) GoTrueOption {
	return func(c *GoTrueClient) { c.logger = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) GoTrueOption {
	return func(c *GoTrueClient) { c.now = now }
}

func NewGoTrueClient(api *rest.Client, store SessionLoader, opts ...GoTrueOption) *GoTrueClient {
	c := &GoTrueClient{
		api:          api,
		store:        store,
		logger:       logging.Nop(),
		now:          time.Now,
		expiryMargin: DefaultExpiryMargin,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *GoTrueClient) OnAuthStateChange(h Handler) *Subscription {
	return c.events.Subscribe(h)
}

func (c *GoTrueClient) SignUp(ctx context.Context, creds Credentials, meta Metadata) (*User, *Session, error) {
	body := map[string]any{
		"email":    creds.Email,
		"password": creds.Password,
	}
	if len(meta) > 0 {
		body["data"] = meta
	}

	// With email confirmation enabled the service answers with a bare user;
	// otherwise it answers with a full session.
	var resp struct {
		Session
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		Metadata  Metadata  `json:"user_metadata"`
		CreatedAt time.Time `json:"created_at"`
	}
	if err := c.call(ctx, rest.Request{Method: http.MethodPost, Path: "signup", Query: c.redirectQuery(), Body: body}, &resp); err != nil {
		return nil, nil, err
	}

	if resp.AccessToken != "" {
		sess := c.setSession(&resp.Session)
		c.events.Emit(EventSignedIn, sess)
		return sess.User, sess, nil
	}

	user := &User{ID: resp.ID, Email: resp.Email, Metadata: resp.Metadata, CreatedAt: resp.CreatedAt}
	if user.ID == "" && resp.User != nil {
		user = resp.User
	}
	return user, nil, nil
}

func (c *GoTrueClient) SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error) {
	var resp Session
	req := rest.Request{
		Method: http.MethodPost,
		Path:   "token",
		Query:  url.Values{"grant_type": {"password"}},
		Body:   creds,
	}
	if err := c.call(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("sign in: %w", common.ErrInvalidToken)
	}

	sess := c.setSession(&resp)
	c.events.Emit(EventSignedIn, sess)
	return sess, nil
}

// SignOut revokes the current session. The in-memory session is dropped in
// every case. SIGNED_OUT is published when the service confirmed the logout
// or reported the session as already gone.
func (c *GoTrueClient) SignOut(ctx context.Context) error {
	if _, err := c.ensureFresh(ctx); err != nil && !errors.Is(err, common.ErrNoSession) {
		c.logger.Warn(ctx, "could not refresh session before sign out", "error", err)
	}

	c.mu.Lock()
	sess := c.session
	c.session = nil
	c.mu.Unlock()

	if sess == nil {
		restored, err := c.restore(ctx)
		if err != nil {
			c.logger.Warn(ctx, "could not read persisted session for sign out", "error", err)
		}
		sess = restored
	}

	if sess == nil || sess.AccessToken == "" {
		c.events.Emit(EventSignedOut, nil)
		return nil
	}

	resp, err := c.api.Do(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   "logout",
		Header: bearer(sess.AccessToken),
	})
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if !resp.OK() && !sessionGone(resp.Status) {
		return newAPIError(resp.Status, resp.Body)
	}

	c.events.Emit(EventSignedOut, nil)
	return nil
}

// GetSession returns the live session, restoring it from the token store
// when none is held. An expired session is refreshed first. (nil, nil) means
// there is no session.
func (c *GoTrueClient) GetSession(ctx context.Context) (*Session, error) {
	sess := c.current()
	if sess == nil {
		restored, err := c.restore(ctx)
		if err != nil {
			return nil, err
		}
		if restored == nil {
			return nil, nil
		}
		sess = c.setSession(restored)
	}

	if sess.Expired(c.now().Add(c.expiryMargin)) && sess.RefreshToken == "" {
		c.logger.Debug(ctx, "session expired without refresh token")
		c.dropSession()
		return nil, nil
	}

	sess, err := c.ensureFresh(ctx)
	if errors.Is(err, common.ErrNoSession) {
		return nil, nil
	}
	return sess, err
}

func (c *GoTrueClient) GetUser(ctx context.Context) (*User, error) {
	sess, err := c.ensureFresh(ctx)
	if err != nil {
		return nil, err
	}

	var user User
	if err := c.call(ctx, rest.Request{Path: "user", Header: bearer(sess.AccessToken)}, &user); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.session != nil && c.session.AccessToken == sess.AccessToken {
		u := user
		c.session.User = &u
	}
	c.mu.Unlock()

	return &user, nil
}

// RefreshSession trades the refresh token for a new session. When the
// service rejects the refresh token the session is dropped and SIGNED_OUT is
// published.
func (c *GoTrueClient) RefreshSession(ctx context.Context) (*Session, error) {
	refresh := ""
	if sess := c.current(); sess != nil {
		refresh = sess.RefreshToken
	} else if restored, err := c.restore(ctx); err != nil {
		return nil, err
	} else if restored != nil {
		refresh = restored.RefreshToken
	}
	if refresh == "" {
		return nil, common.ErrRefreshTokenMissing
	}

	var resp Session
	req := rest.Request{
		Method: http.MethodPost,
		Path:   "token",
		Query:  url.Values{"grant_type": {"refresh_token"}},
		Body:   map[string]string{"refresh_token": refresh},
	}
	if err := c.call(ctx, req, &resp); err != nil {
		if apiErr, ok := IsAPIError(err); ok && apiErr.Status >= 400 && apiErr.Status < 500 {
			c.logger.Info(ctx, "refresh token rejected, dropping session", "status", apiErr.Status)
			c.dropSession()
			c.events.Emit(EventSignedOut, nil)
		}
		return nil, err
	}

	sess := c.setSession(&resp)
	c.events.Emit(EventTokenRefreshed, sess)
	return sess, nil
}

func (c *GoTrueClient) UpdateUser(ctx context.Context, attrs UserAttributes) (*User, error) {
	sess, err := c.ensureFresh(ctx)
	if err != nil {
		return nil, err
	}

	var user User
	req := rest.Request{Method: http.MethodPut, Path: "user", Header: bearer(sess.AccessToken), Body: attrs}
	if err := c.call(ctx, req, &user); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.session != nil {
		u := user
		c.session.User = &u
		sess = c.session.clone()
	}
	c.mu.Unlock()

	c.events.Emit(EventUserUpdated, sess)
	return &user, nil
}

func (c *GoTrueClient) ResetPasswordForEmail(ctx context.Context, email string) error {
	req := rest.Request{
		Method: http.MethodPost,
		Path:   "recover",
		Query:  c.redirectQuery(),
		Body:   map[string]string{"email": email},
	}
	return c.call(ctx, req, nil)
}

// VerifyRecovery exchanges the one-time code from a recovery mail for a
// session and publishes PASSWORD_RECOVERY.
func (c *GoTrueClient) VerifyRecovery(ctx context.Context, email, code string) (*Session, error) {
	var resp Session
	req := rest.Request{
		Method: http.MethodPost,
		Path:   "verify",
		Body:   map[string]string{"type": "recovery", "email": email, "token": code},
	}
	if err := c.call(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("verify recovery: %w", common.ErrInvalidToken)
	}

	sess := c.setSession(&resp)
	c.events.Emit(EventPasswordRecovery, sess)
	return sess, nil
}

// ensureFresh returns the held session, refreshed first when it is about to
// expire. It fails with common.ErrNoSession when nothing is held.
func (c *GoTrueClient) ensureFresh(ctx context.Context) (*Session, error) {
	return c.refreshIfExpiring(ctx, c.expiryMargin)
}

// refreshIfExpiring refreshes the held session when it expires within d. A
// session without a refresh token is returned as is.
func (c *GoTrueClient) refreshIfExpiring(ctx context.Context, d time.Duration) (*Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	sess := c.current()
	if sess == nil {
		return nil, common.ErrNoSession
	}
	if !sess.Expired(c.now().Add(d)) || sess.RefreshToken == "" {
		return sess, nil
	}
	return c.RefreshSession(ctx)
}

// StartAutoRefresh checks the held session every interval and refreshes it
// before it expires, so subscribers get TOKEN_REFRESHED ahead of the first
// rejected request. It returns when ctx is done.
func (c *GoTrueClient) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.autoRefresh(ctx, interval)
		case <-ctx.Done():
			return
		}
	}
}

func (c *GoTrueClient) autoRefresh(ctx context.Context, interval time.Duration) {
	_, err := c.refreshIfExpiring(ctx, interval+c.expiryMargin)
	if err != nil && !errors.Is(err, common.ErrNoSession) {
		c.logger.Warn(ctx, "background token refresh failed", "error", err)
	}
}

func (c *GoTrueClient) Health(ctx context.Context) error {
	return c.call(ctx, rest.Request{Path: "health"}, nil)
}

func (c *GoTrueClient) call(ctx context.Context, req rest.Request, out any) error {
	resp, err := c.api.Do(ctx, req)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return newAPIError(resp.Status, resp.Body)
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

func (c *GoTrueClient) restore(ctx context.Context) (*Session, error) {
	if c.store == nil {
		return nil, nil
	}
	stored, ok, err := c.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return sessionFromTokens(stored.AccessToken, stored.RefreshToken, stored.UserID), nil
}

// setSession stores a copy of s and returns another copy for the caller.
func (c *GoTrueClient) setSession(s *Session) *Session {
	stored := s.clone()
	if stored.ExpiresAt == 0 && stored.ExpiresIn > 0 {
		stored.ExpiresAt = c.now().Add(time.Duration(stored.ExpiresIn) * time.Second).Unix()
	}
	if stored.User == nil || stored.User.ID == "" {
		if claims, err := readClaims(stored.AccessToken); err == nil {
			if stored.User == nil {
				stored.User = &User{}
			}
			stored.User.ID = claims.Subject
			if stored.User.Email == "" {
				stored.User.Email = claims.Email
			}
		}
	}

	c.mu.Lock()
	c.session = stored
	c.mu.Unlock()
	return stored.clone()
}

func (c *GoTrueClient) current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.session.clone()
}

func (c *GoTrueClient) dropSession() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

func (c *GoTrueClient) redirectQuery() url.Values {
	if c.redirectTo == "" {
		return nil
	}
	return url.Values{"redirect_to": {c.redirectTo}}
}

func (s *Session) clone() *Session {
	out := *s
	if s.User != nil {
		u := *s.User
		if s.User.Metadata != nil {
			u.Metadata = make(Metadata, len(s.User.Metadata))
			for k, v := range s.User.Metadata {
				u.Metadata[k] = v
			}
		}
		out.User = &u
	}
	return &out
}

func bearer(token string) http.Header {
	return http.Header{common.AuthorizationHeaderName: {common.BearerPrefix + token}}
}

// sessionGone reports statuses meaning the session no longer exists on the
// server, which counts as a completed logout.
func sessionGone(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound
}
