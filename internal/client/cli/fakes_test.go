package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophboard/internal/client/board"
	"github.com/dmitrijs2005/gophboard/internal/client/config"
	"github.com/dmitrijs2005/gophboard/internal/client/identity"
	"github.com/dmitrijs2005/gophboard/internal/client/session"
	"github.com/dmitrijs2005/gophboard/internal/logging"
)

type fakeSessions struct {
	state session.AuthState

	result  session.Result
	started bool
	closed  bool
	logouts int

	creds   identity.Credentials
	signup  session.SignupRequest
	email   string
	code    string
	newPass string
	meta    []identity.Metadata
}

func (f *fakeSessions) Start(context.Context) {
	f.started = true
}
func (f *fakeSessions) Close() {
	f.closed = true
}
func (f *fakeSessions) State() session.AuthState {
	return f.state
}
func (f *fakeSessions) Logout(ctx context.Context) {
	f.logouts++
	f.state = session.AuthState{Status: session.StateUnauthenticated}
}
func (f *fakeSessions) Watch(func(session.AuthState)) func() {
	return func() {}
}
func (f *fakeSessions) Login(_ context.Context, c identity.Credentials) session.Result {
	f.creds = c
	return f.result
}
func (f *fakeSessions) Signup(_ context.Context, r session.SignupRequest) session.Result {
	f.signup = r
	return f.result
}
func (f *fakeSessions) ResetPassword(_ context.Context, email string) session.Result {
	f.email = email
	return f.result
}
func (f *fakeSessions) Recover(_ context.Context, email, code string) session.Result {
	f.email, f.code = email, code
	return f.result
}
func (f *fakeSessions) ChangePassword(_ context.Context, pw string) session.Result {
	f.newPass = pw
	return f.result
}
func (f *fakeSessions) UpdateProfile(_ context.Context, m identity.Metadata) session.Result {
	f.meta = append(f.meta, m)
	return f.result
}

func signedIn(name string) session.AuthState {
	return session.AuthState{
		Status:          session.StateAuthenticated,
		IsAuthenticated: true,
		User: &identity.User{
			ID:       "0b9a9a52-6a44-4c43-9d6f-1d1e4c1f7a10",
			Email:    "alice@example.org",
			Metadata: identity.Metadata{identity.MetaUsername: name},
		},
	}
}

type fakeBoards struct {
	boards []board.Board
	err    error
}

func (f *fakeBoards) List(context.Context) ([]board.Board, error) {
	return f.boards, f.err
}
func (f *fakeBoards) BySlug(_ context.Context, slug string) (*board.Board, error) {
	for _, b := range f.boards {
		if b.Slug == slug {
			return &b, nil
		}
	}
	return nil, errors.New("not found")
}

type fakePosts struct {
	page    *board.Page[board.Post]
	post    *board.Post
	err     error
	slug    string
	params  board.ListParams
	created board.CreatePostRequest
	updated board.UpdatePostRequest
	deleted []string
}

func (f *fakePosts) List(_ context.Context, slug string, p board.ListParams) (*board.Page[board.Post], error) {
	f.slug, f.params = slug, p
	return f.page, f.err
}
func (f *fakePosts) Get(context.Context, string) (*board.Post, error) {
	return f.post, f.err
}
func (f *fakePosts) Create(_ context.Context, r board.CreatePostRequest) (*board.Post, error) {
	f.created = r
	return &board.Post{ID: "new-post"}, f.err
}
func (f *fakePosts) Update(_ context.Context, id string, r board.UpdatePostRequest) (*board.Post, error) {
	f.updated = r
	return &board.Post{ID: id}, f.err
}
func (f *fakePosts) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

type fakeTags struct{ tags []board.Tag }

func (f *fakeTags) List(context.Context) ([]board.Tag, error) {
	return f.tags, nil
}

type fakeComments struct {
	thread  []board.Comment
	created board.CreateCommentRequest
}

func (f *fakeComments) List(context.Context, string) ([]board.Comment, error) {
	return f.thread, nil
}
func (f *fakeComments) Create(_ context.Context, r board.CreateCommentRequest) (*board.Comment, error) {
	f.created = r
	return &board.Comment{ID: "c-1"}, nil
}

type fakeUploader struct {
	url  string
	err  error
	path string
}

func (f *fakeUploader) UploadFile(_ context.Context, path string) (string, error) {
	f.path = path
	return f.url, f.err
}

type fakeHealth struct {
	mu  sync.Mutex
	err error
}

func (f *fakeHealth) Health(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeHealth) set(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// captureLogger records messages so tests can assert what was logged.
type captureLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (c *captureLogger) record(msg string) {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()
}

func (c *captureLogger) Debug(_ context.Context, msg string, _ ...any) {
	c.record(msg)
}
func (c *captureLogger) Info(_ context.Context, msg string, _ ...any) {
	c.record(msg)
}
func (c *captureLogger) Warn(_ context.Context, msg string, _ ...any) {
	c.record(msg)
}
func (c *captureLogger) Error(_ context.Context, msg string, _ ...any) {
	c.record(msg)
}
func (c *captureLogger) With(...any) logging.Logger {
	return c
}

func (c *captureLogger) count(msg string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.msgs {
		if m == msg {
			n++
		}
	}
	return n
}

type fakeRefresher struct {
	started  atomic.Bool
	interval atomic.Int64
}

func (f *fakeRefresher) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	f.interval.Store(int64(interval))
	f.started.Store(true)
	<-ctx.Done()
}

type testApp struct {
	*App
	sessions *fakeSessions
	boards   *fakeBoards
	posts    *fakePosts
	tags     *fakeTags
	comments *fakeComments
	avatars  *fakeUploader
	health   *fakeHealth
	refresh  *fakeRefresher
	out      *bytes.Buffer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ta := &testApp{
		sessions: &fakeSessions{state: session.AuthState{Status: session.StateUnauthenticated}},
		boards:   &fakeBoards{},
		posts:    &fakePosts{},
		tags:     &fakeTags{},
		comments: &fakeComments{},
		avatars:  &fakeUploader{},
		health:   &fakeHealth{},
		refresh:  &fakeRefresher{},
		out:      &bytes.Buffer{},
	}
	cfg := &config.Config{}
	cfg.LoadDefaults()
	ta.App = &App{
		config:   cfg,
		logger:   logging.Nop(),
		sessions: ta.sessions,
		boards:   ta.boards,
		posts:    ta.posts,
		tags:     ta.tags,
		comments: ta.comments,
		avatars:  ta.avatars,
		health:   ta.health,
		refresh:  ta.refresh,
		reader:   bufio.NewReader(strings.NewReader("")),
		out:      ta.out,
	}
	return ta
}

// stubAnswers feeds getSimpleText, getMultiline and getPassword from queues.
func stubAnswers(t *testing.T, text []string, passwords []string) {
	t.Helper()
	origST, origML, origPW := getSimpleText, getMultiline, getPassword
	t.Cleanup(func() {
		getSimpleText, getMultiline, getPassword = origST, origML, origPW
	})

	next := func(q *[]string) (string, error) {
		if len(*q) == 0 {
			return "", io.EOF
		}
		v := (*q)[0]
		*q = (*q)[1:]
		return v, nil
	}
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(&text) }
	getMultiline = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(&text) }
	getPassword = func(_ string, _ io.Writer) ([]byte, error) {
		v, err := next(&passwords)
		return []byte(v), err
	}
}
