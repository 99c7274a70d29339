package identity

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophboard/internal/client/rest"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (k *testClock) Now() time.Time {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.now
}

func (k *testClock) Advance(d time.Duration) {
	k.mu.Lock()
	k.now = k.now.Add(d)
	k.mu.Unlock()
}

// signedInAt signs in with a one hour token on a clock tests can move.
func signedInAt(t *testing.T) (*GoTrueClient, *fakeGoTrue, *eventLog, *testClock) {
	t.Helper()
	f, srv := newFakeGoTrue(t)
	clock := &testClock{now: testNow}
	c := NewGoTrueClient(rest.New(srv.URL+"/auth/v1", testAPIKey), nil, WithClock(clock.Now))
	log := &eventLog{}
	c.OnAuthStateChange(log.handler)

	f.on(http.MethodPost, "token", http.StatusOK, sessionBody(makeJWT(t, testUserID, testNow.Add(time.Hour)), "r1"))
	_, err := c.SignInWithPassword(context.Background(), Credentials{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	return c, f, log, clock
}

func (f *fakeGoTrue) refreshCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.path == "/auth/v1/token" && c.query == "grant_type=refresh_token" {
			n++
		}
	}
	return n
}

// expireAndServeFresh moves the clock past expiry and makes the token
// endpoint hand out a new session.
func expireAndServeFresh(t *testing.T, f *fakeGoTrue, clock *testClock) string {
	t.Helper()
	clock.Advance(2 * time.Hour)
	fresh := makeJWT(t, testUserID, clock.Now().Add(time.Hour))
	f.on(http.MethodPost, "token", http.StatusOK, sessionBody(fresh, "r2"))
	return fresh
}

func TestUpdateUser_RefreshesExpiredSessionFirst(t *testing.T) {
	c, f, log, clock := signedInAt(t)
	fresh := expireAndServeFresh(t, f, clock)
	f.on(http.MethodPut, "user", http.StatusOK, map[string]any{"id": testUserID, "email": "a@b.com"})

	_, err := c.UpdateUser(context.Background(), UserAttributes{Password: "brandnew"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.refreshCalls())
	refresh, _ := f.last("token")
	assert.Equal(t, "r1", refresh.body["refresh_token"])

	call, _ := f.last("user")
	assert.Equal(t, "Bearer "+fresh, call.auth)
	assert.Equal(t, []Event{EventSignedIn, EventTokenRefreshed, EventUserUpdated}, log.list())
}

func TestGetUser_RefreshesExpiredSessionFirst(t *testing.T) {
	c, f, log, clock := signedInAt(t)
	fresh := expireAndServeFresh(t, f, clock)
	f.on(http.MethodGet, "user", http.StatusOK, map[string]any{"id": testUserID, "email": "a@b.com"})

	_, err := c.GetUser(context.Background())
	require.NoError(t, err)

	call, _ := f.last("user")
	assert.Equal(t, "Bearer "+fresh, call.auth)
	assert.Equal(t, []Event{EventSignedIn, EventTokenRefreshed}, log.list())
}

func TestGetUser_FreshSessionIsNotRefreshed(t *testing.T) {
	c, f, _, clock := signedInAt(t)
	clock.Advance(30 * time.Minute)
	f.on(http.MethodGet, "user", http.StatusOK, map[string]any{"id": testUserID})

	_, err := c.GetUser(context.Background())
	require.NoError(t, err)
	assert.Zero(t, f.refreshCalls())
}

func TestSignOut_RefreshesExpiredSessionFirst(t *testing.T) {
	c, f, log, clock := signedInAt(t)
	fresh := expireAndServeFresh(t, f, clock)
	f.on(http.MethodPost, "logout", http.StatusNoContent, nil)

	require.NoError(t, c.SignOut(context.Background()))

	call, _ := f.last("logout")
	assert.Equal(t, "Bearer "+fresh, call.auth)
	assert.Equal(t, []Event{EventSignedIn, EventTokenRefreshed, EventSignedOut}, log.list())
}

func TestAutoRefresh_RefreshesAheadOfExpiry(t *testing.T) {
	tests := []struct {
		name        string
		advance     time.Duration
		wantRefresh int
	}{
		{name: "plenty of time left", advance: 30 * time.Minute, wantRefresh: 0},
		{name: "expires before next tick", advance: 59*time.Minute + 30*time.Second, wantRefresh: 1},
		{name: "already expired", advance: 2 * time.Hour, wantRefresh: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, f, log, clock := signedInAt(t)
			clock.Advance(tt.advance)
			f.on(http.MethodPost, "token", http.StatusOK, sessionBody(makeJWT(t, testUserID, clock.Now().Add(time.Hour)), "r2"))

			c.autoRefresh(context.Background(), time.Minute)

			assert.Equal(t, tt.wantRefresh, f.refreshCalls())
			if tt.wantRefresh > 0 {
				assert.Equal(t, []Event{EventSignedIn, EventTokenRefreshed}, log.list())
			}
		})
	}
}

func TestAutoRefresh_NoSessionIsQuiet(t *testing.T) {
	c, f, log := newClient(t, nil)
	c.autoRefresh(context.Background(), time.Minute)
	assert.Zero(t, f.refreshCalls())
	assert.Empty(t, log.list())
}

func TestStartAutoRefresh_RefreshesAndStops(t *testing.T) {
	c, f, log, clock := signedInAt(t)
	expireAndServeFresh(t, f, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.StartAutoRefresh(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(log.list()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []Event{EventSignedIn, EventTokenRefreshed}, log.list())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("auto refresh did not stop")
	}
	assert.Equal(t, 1, f.refreshCalls())
}
