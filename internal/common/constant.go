// Package common contains shared constants and sentinel errors used across
// gophboard components.
package common

// Header names used on every outbound request to the backend.
const (
	APIKeyHeaderName        = "apikey"
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "
)

// Keys under which the token store persists the current session.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
	UserIDKey       = "user_id"
)

// SessionKeys lists every key owned by the token store.
var SessionKeys = []string{AccessTokenKey, RefreshTokenKey, UserIDKey}
