package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/gophboard/internal/common"
)

// accessClaims is the subset of a GoTrue access token the client reads.
type accessClaims struct {
	Email        string   `json:"email,omitempty"`
	UserMetadata Metadata `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// readClaims decodes the token payload without verifying the signature.
func readClaims(token string) (*accessClaims, error) {
	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	return claims, nil
}

// sessionFromTokens builds a session from persisted tokens. Unreadable
// access tokens still yield a session; their expiry is simply unknown.
func sessionFromTokens(access, refresh, userID string) *Session {
	s := &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		User:         &User{ID: userID},
	}

	claims, err := readClaims(access)
	if err != nil {
		return s
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Unix()
	}
	if s.User.ID == "" {
		s.User.ID = claims.Subject
	}
	s.User.Email = claims.Email
	s.User.Metadata = claims.UserMetadata
	return s
}
