package tokenstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophboard/internal/client/localdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

const testUserID = "6f1b2c9e-4d0a-4a51-9d3e-0c7f9a1e2b34"

func newSQLite(t *testing.T) Store {
	t.Helper()
	db, err := localdb.Open(context.Background(), filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteStore(db)
}

func newKeyring(t *testing.T) Store {
	t.Helper()
	keyring.MockInit()
	return NewKeyringStore("com.gophboard.test")
}

var backends = map[string]func(t *testing.T) Store{
	"sqlite":  newSQLite,
	"keyring": newKeyring,
}

func TestStore_SaveThenLoad(t *testing.T) {
	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx := context.Background()

			require.NoError(t, s.Save(ctx, Session{AccessToken: "a1", RefreshToken: "r1", UserID: testUserID}))

			got, ok, err := s.Load(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, Session{AccessToken: "a1", RefreshToken: "r1", UserID: testUserID}, got)

			tok, err := s.AccessToken(ctx)
			require.NoError(t, err)
			assert.Equal(t, "a1", tok)
		})
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx := context.Background()

			require.NoError(t, s.Save(ctx, Session{AccessToken: "old", RefreshToken: "r-old", UserID: testUserID}))
			require.NoError(t, s.Save(ctx, Session{AccessToken: "new", RefreshToken: "r-new"}))

			got, ok, err := s.Load(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "new", got.AccessToken)
			assert.Equal(t, "r-new", got.RefreshToken)
			assert.Empty(t, got.UserID, "empty field removes the key")
		})
	}
}

func TestStore_EmptyReadsAsAbsent(t *testing.T) {
	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx := context.Background()

			tok, err := s.AccessToken(ctx)
			require.NoError(t, err)
			assert.Empty(t, tok)

			got, ok, err := s.Load(ctx)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.True(t, got.IsZero())
		})
	}
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx := context.Background()

			require.NoError(t, s.Save(ctx, Session{AccessToken: "a", RefreshToken: "r", UserID: testUserID}))

			require.NoError(t, s.Clear(ctx))
			first, okFirst, err := s.Load(ctx)
			require.NoError(t, err)

			require.NoError(t, s.Clear(ctx))
			second, okSecond, err := s.Load(ctx)
			require.NoError(t, err)

			assert.False(t, okFirst)
			assert.False(t, okSecond)
			assert.Equal(t, first, second)
			assert.Equal(t, Session{}, second)
		})
	}
}

func TestStore_ClearOnEmptyStore(t *testing.T) {
	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, mk(t).Clear(context.Background()))
		})
	}
}

func TestStore_NonUUIDUserIDIsDropped(t *testing.T) {
	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx := context.Background()

			require.NoError(t, s.Save(ctx, Session{AccessToken: "a", UserID: "not-a-uuid"}))

			got, ok, err := s.Load(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Empty(t, got.UserID)
		})
	}
}

func TestSQLiteStore_ClearKeepsUnrelatedKeys(t *testing.T) {
	db, err := localdb.Open(context.Background(), filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	_, err = db.ExecContext(ctx, `INSERT INTO metadata(key, value) VALUES ('last_board', 'free')`)
	require.NoError(t, err)

	s := NewSQLiteStore(db)
	require.NoError(t, s.Save(ctx, Session{AccessToken: "a", RefreshToken: "r", UserID: testUserID}))
	require.NoError(t, s.Clear(ctx))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM metadata`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSQLiteStore_ClosedDB(t *testing.T) {
	db, err := localdb.Open(context.Background(), filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	s := NewSQLiteStore(db)
	require.NoError(t, db.Close())

	ctx := context.Background()
	require.Error(t, s.Save(ctx, Session{AccessToken: "a"}))
	require.Error(t, s.Clear(ctx))
	_, err = s.AccessToken(ctx)
	require.Error(t, err)
}

func TestKeyringStore_BackendFailure(t *testing.T) {
	boom := errors.New("keychain locked")
	keyring.MockInitWithError(boom)
	t.Cleanup(keyring.MockInit)

	s := NewKeyringStore("com.gophboard.test")
	ctx := context.Background()

	err := s.Save(ctx, Session{AccessToken: "a", RefreshToken: "r", UserID: testUserID})
	require.ErrorIs(t, err, boom)

	_, err = s.AccessToken(ctx)
	require.ErrorIs(t, err, boom)

	require.ErrorIs(t, s.Clear(ctx), boom)
}
