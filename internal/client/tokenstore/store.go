// Package tokenstore persists the current session (access token, refresh
// token, user id) across process restarts.
//
// Two backends are provided: SQLiteStore keeps the values in the local
// metadata table, KeyringStore keeps them in the OS keychain. Both write each
// key independently (a failure on one key does not stop the others) and both
// treat missing keys as empty rather than as errors.
package tokenstore

import (
	"context"

	"github.com/google/uuid"
)

// Session is the persisted copy of a provider session.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       string
}

// IsZero reports whether no access token is present. The access token alone
// decides whether rehydration is attempted.
func (s Session) IsZero() bool {
	return s.AccessToken == ""
}

// Store is the token persistence contract.
type Store interface {
	// Save writes all three values, overwriting earlier ones. Empty fields
	// remove their key.
	Save(ctx context.Context, s Session) error
	// Clear removes all three keys. It succeeds when they are already absent.
	Clear(ctx context.Context) error
	// AccessToken returns the stored access token or "" when none is stored.
	AccessToken(ctx context.Context) (string, error)
	// Load returns the stored session and whether an access token was found.
	Load(ctx context.Context) (Session, bool, error)
}

// normalizeUserID returns id in canonical form, or "" when it is not a UUID.
func normalizeUserID(id string) string {
	if id == "" {
		return ""
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ""
	}
	return parsed.String()
}
