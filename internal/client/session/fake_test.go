package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/gophboard/internal/client/identity"
	"github.com/dmitrijs2005/gophboard/internal/client/tokenstore"
)

// fakeProvider behaves like the identity service: state-changing calls
// update its own session and then publish an event synchronously.
type fakeProvider struct {
	identity.Broadcaster

	mu      sync.Mutex
	session *identity.Session
	user    *identity.User

	signInErr     error
	signUpErr     error
	signUpSession bool
	signOutErr    error
	getSessionErr error
	getUserErr    error
	resetErr      error
	updateErr     error

	// signInGate, when set, blocks SignInWithPassword until closed.
	signInGate chan struct{}
	signInSeen chan struct{}

	calls []string
	// emails holds the address each sign in, sign up, reset or verify call got.
	emails []string
}

var _ identity.Provider = (*fakeProvider)(nil)

func (f *fakeProvider) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeProvider) recordEmail(email string) {
	f.mu.Lock()
	f.emails = append(f.emails, email)
	f.mu.Unlock()
}

func (f *fakeProvider) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeProvider) OnAuthStateChange(h identity.Handler) *identity.Subscription {
	return f.Subscribe(h)
}

func sessionFor(user *identity.User, access string) *identity.Session {
	u := *user
	return &identity.Session{AccessToken: access, RefreshToken: "refresh-" + access, User: &u}
}

func (f *fakeProvider) SignUp(_ context.Context, creds identity.Credentials, meta identity.Metadata) (*identity.User, *identity.Session, error) {
	f.record("signup")
	f.recordEmail(creds.Email)
	if f.signUpErr != nil {
		return nil, nil, f.signUpErr
	}
	user := &identity.User{ID: "u-new", Email: creds.Email, Metadata: meta}
	if !f.signUpSession {
		return user, nil, nil
	}
	sess := sessionFor(user, "signup-token")
	f.mu.Lock()
	f.session = sess
	f.mu.Unlock()
	f.Emit(identity.EventSignedIn, sess)
	return user, sess, nil
}

func (f *fakeProvider) SignInWithPassword(_ context.Context, creds identity.Credentials) (*identity.Session, error) {
	f.record("signin")
	f.recordEmail(creds.Email)
	if f.signInSeen != nil {
		close(f.signInSeen)
		f.signInSeen = nil
	}
	if f.signInGate != nil {
		<-f.signInGate
	}
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	sess := sessionFor(&identity.User{ID: "u1", Email: creds.Email}, "login-token")
	f.mu.Lock()
	f.session = sess
	f.user = sess.User
	f.mu.Unlock()
	f.Emit(identity.EventSignedIn, sess)
	return sess, nil
}

func (f *fakeProvider) SignOut(context.Context) error {
	f.record("signout")
	f.mu.Lock()
	f.session = nil
	f.mu.Unlock()
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.Emit(identity.EventSignedOut, nil)
	return nil
}

func (f *fakeProvider) GetSession(context.Context) (*identity.Session, error) {
	f.record("getsession")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, f.getSessionErr
}

func (f *fakeProvider) GetUser(context.Context) (*identity.User, error) {
	f.record("getuser")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user, f.getUserErr
}

func (f *fakeProvider) RefreshSession(context.Context) (*identity.Session, error) {
	f.mu.Lock()
	sess := f.session
	f.mu.Unlock()
	if sess == nil {
		return nil, errors.New("no session")
	}
	refreshed := sessionFor(sess.User, "refreshed-token")
	f.mu.Lock()
	f.session = refreshed
	f.mu.Unlock()
	f.Emit(identity.EventTokenRefreshed, refreshed)
	return refreshed, nil
}

func (f *fakeProvider) UpdateUser(_ context.Context, attrs identity.UserAttributes) (*identity.User, error) {
	f.record("updateuser")
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.mu.Lock()
	sess := f.session
	if sess == nil {
		f.mu.Unlock()
		return nil, errors.New("no session")
	}
	u := *sess.User
	u.Metadata = identity.Metadata{}
	for k, v := range attrs.Data {
		u.Metadata[k] = v
	}
	sess.User = &u
	f.mu.Unlock()
	f.Emit(identity.EventUserUpdated, sess)
	return &u, nil
}

func (f *fakeProvider) ResetPasswordForEmail(_ context.Context, email string) error {
	f.record("reset")
	f.recordEmail(email)
	return f.resetErr
}

func (f *fakeProvider) VerifyRecovery(_ context.Context, email, _ string) (*identity.Session, error) {
	f.record("verify")
	f.recordEmail(email)
	sess := sessionFor(&identity.User{ID: "u1", Email: email}, "recovery-token")
	f.mu.Lock()
	f.session = sess
	f.mu.Unlock()
	f.Emit(identity.EventPasswordRecovery, sess)
	return sess, nil
}

func (f *fakeProvider) Health(context.Context) error { return nil }

// memStore is an in-memory tokenstore.Store with failure injection.
type memStore struct {
	mu       sync.Mutex
	values   tokenstore.Session
	saveErr  error
	clearErr error
	saves    int
	clears   int
}

var _ tokenstore.Store = (*memStore)(nil)

func (s *memStore) Save(_ context.Context, sess tokenstore.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.values = sess
	return nil
}

func (s *memStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.values = tokenstore.Session{}
	return nil
}

func (s *memStore) AccessToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.AccessToken, nil
}

func (s *memStore) Load(context.Context) (tokenstore.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values, !s.values.IsZero(), nil
}

func (s *memStore) snapshot() tokenstore.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values
}
