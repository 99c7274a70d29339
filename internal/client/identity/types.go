package identity

import (
	"context"
	"time"
)

// Credentials are an email/password pair.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Metadata is the free-form user_metadata object kept by the identity
// service. Known keys are username, fullname and avatar_url.
type Metadata map[string]any

const (
	MetaUsername  = "username"
	MetaFullname  = "fullname"
	MetaAvatarURL = "avatar_url"
)

// User is the identity-service view of an account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Metadata  Metadata  `json:"user_metadata,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func (u *User) meta(key string) string {
	if u == nil || u.Metadata == nil {
		return ""
	}
	s, _ := u.Metadata[key].(string)
	return s
}

func (u *User) Username() string  { return u.meta(MetaUsername) }
func (u *User) Fullname() string  { return u.meta(MetaFullname) }
func (u *User) AvatarURL() string { return u.meta(MetaAvatarURL) }

// Session is a provider-issued token pair with the user it belongs to.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// UserID returns the id of the session's user or "".
func (s *Session) UserID() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.ID
}

// Expired reports whether the access token expiry is known and not after now.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && now.Unix() >= s.ExpiresAt
}

// UserAttributes are the fields UpdateUser may change. Zero fields are left
// untouched.
type UserAttributes struct {
	Email    string   `json:"email,omitempty"`
	Password string   `json:"password,omitempty"`
	Data     Metadata `json:"data,omitempty"`
}

// Provider is the identity service boundary used by the session layer.
type Provider interface {
	SignUp(ctx context.Context, creds Credentials, meta Metadata) (*User, *Session, error)
	SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*Session, error)
	GetUser(ctx context.Context) (*User, error)
	RefreshSession(ctx context.Context) (*Session, error)
	UpdateUser(ctx context.Context, attrs UserAttributes) (*User, error)
	ResetPasswordForEmail(ctx context.Context, email string) error
	VerifyRecovery(ctx context.Context, email, code string) (*Session, error)
	Health(ctx context.Context) error
	OnAuthStateChange(h Handler) *Subscription
}
