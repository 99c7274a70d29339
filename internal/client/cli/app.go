package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophboard/internal/client/avatar"
	"github.com/dmitrijs2005/gophboard/internal/client/board"
	"github.com/dmitrijs2005/gophboard/internal/client/config"
	"github.com/dmitrijs2005/gophboard/internal/client/identity"
	"github.com/dmitrijs2005/gophboard/internal/client/localdb"
	"github.com/dmitrijs2005/gophboard/internal/client/rest"
	"github.com/dmitrijs2005/gophboard/internal/client/session"
	"github.com/dmitrijs2005/gophboard/internal/client/tokenstore"
	"github.com/dmitrijs2005/gophboard/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// sessionService is the part of session.Manager the CLI drives.
type sessionService interface {
	Start(ctx context.Context)
	Close()
	State() session.AuthState
	Watch(fn func(session.AuthState)) (cancel func())
	Login(ctx context.Context, creds identity.Credentials) session.Result
	Signup(ctx context.Context, req session.SignupRequest) session.Result
	Logout(ctx context.Context)
	ResetPassword(ctx context.Context, email string) session.Result
	Recover(ctx context.Context, email, code string) session.Result
	ChangePassword(ctx context.Context, password string) session.Result
	UpdateProfile(ctx context.Context, meta identity.Metadata) session.Result
}

type boardService interface {
	List(ctx context.Context) ([]board.Board, error)
	BySlug(ctx context.Context, slug string) (*board.Board, error)
}

type postService interface {
	List(ctx context.Context, boardSlug string, params board.ListParams) (*board.Page[board.Post], error)
	Get(ctx context.Context, id string) (*board.Post, error)
	Create(ctx context.Context, req board.CreatePostRequest) (*board.Post, error)
	Update(ctx context.Context, id string, req board.UpdatePostRequest) (*board.Post, error)
	Delete(ctx context.Context, id string) error
}

type tagService interface {
	List(ctx context.Context) ([]board.Tag, error)
}

type commentService interface {
	List(ctx context.Context, postID string) ([]board.Comment, error)
	Create(ctx context.Context, req board.CreateCommentRequest) (*board.Comment, error)
}

type avatarUploader interface {
	UploadFile(ctx context.Context, path string) (string, error)
}

type healthChecker interface {
	Health(ctx context.Context) error
}

type tokenRefresher interface {
	StartAutoRefresh(ctx context.Context, interval time.Duration)
}

// tokenRefreshInterval is how often the held session is checked for
// upcoming expiry.
const tokenRefreshInterval = 30 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	sessions sessionService
	boards   boardService
	posts    postService
	tags     tagService
	comments commentService
	avatars  avatarUploader
	health   healthChecker
	refresh  tokenRefresher

	modeMu sync.RWMutex
	Mode   Mode

	reader  *bufio.Reader
	out     io.Writer
	closers []func() error
}

// NewApp wires the token store, the two REST clients, the identity client,
// the session manager and the board services from c.
func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	ctx := context.Background()

	app := &App{config: c, logger: logger, reader: bufio.NewReader(os.Stdin), out: os.Stdout}

	store, err := app.openStore(ctx)
	if err != nil {
		logger.Error(ctx, "error initializing token store", "error", err)
		return nil, err
	}

	base := strings.TrimRight(c.SupabaseURL, "/")
	authAPI := rest.New(base+"/auth/v1", c.SupabaseAPIKey, rest.WithTimeout(c.RequestTimeout))
	dataAPI := rest.New(base+"/rest/v1", c.SupabaseAPIKey, rest.WithTimeout(c.RequestTimeout))

	binder := rest.NewBinder(store, authAPI, dataAPI)
	provider := identity.NewGoTrueClient(authAPI, store, identity.WithLogger(logger))
	svc := board.NewService(dataAPI, store)

	app.sessions = session.NewManager(provider, store, binder, logger)
	app.health = provider
	app.refresh = provider
	app.boards = svc.Boards
	app.posts = svc.Posts
	app.tags = svc.Tags
	app.comments = svc.Comments
	app.avatars = avatar.NewUploader(avatar.Config{
		ProjectURL: base,
		APIKey:     c.SupabaseAPIKey,
		Bucket:     c.AvatarBucket,
		Region:     c.StorageRegion,
	}, store)

	return app, nil
}

func (a *App) openStore(ctx context.Context) (tokenstore.Store, error) {
	switch a.config.TokenBackend {
	case config.BackendKeyring:
		return tokenstore.NewKeyringStore(a.config.KeyringService), nil
	case config.BackendSQLite, "":
		db, err := localdb.Open(ctx, a.config.StorePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return tokenstore.NewSQLiteStore(db), nil
	default:
		return nil, fmt.Errorf("unknown token backend %q", a.config.TokenBackend)
	}
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.modeMu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) mode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.Mode
}

// Run resolves the stored session, starts the connectivity watcher and the
// token refresher, then blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.sessions.Start(ctx)
	stopWatch := a.sessions.Watch(a.onAuthChange)
	defer stopWatch()

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	go a.refresh.StartAutoRefresh(ctx, tokenRefreshInterval)

	fmt.Fprintln(a.out, "Welcome to gophboard (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

// Close stops the session manager and releases local storage.
func (a *App) Close() {
	if a.sessions != nil {
		a.sessions.Close()
	}
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn(context.Background(), "error closing local storage", "error", err)
	}
}

func (a *App) onAuthChange(s session.AuthState) {
	if s.IsLoading {
		return
	}
	a.logger.Debug(context.Background(), "auth state changed", "status", string(s.Status))
}

func (a *App) isLoggedIn() bool {
	return a.sessions != nil && a.sessions.State().IsAuthenticated
}

// getStatus renders the prompt suffix, e.g. "(alice online)".
func (a *App) getStatus() string {
	s := ""
	if a.sessions != nil {
		if u := a.sessions.State().User; u != nil {
			name := u.Username()
			if name == "" {
				name = u.Email
			}
			s = name + " "
		}
	}
	if m := a.mode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", strings.TrimSpace(s))
	}
	return s
}

func (a *App) checkOnline(ctx context.Context) {
	timeout := a.config.RequestTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	err := a.health.Health(ctx)
	cancel()

	if err != nil {
		a.logger.Debug(ctx, "health check failed", "error", err)
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// StartOnlineStatusWatcher pings the identity service every interval and
// flips Mode between online and offline until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
