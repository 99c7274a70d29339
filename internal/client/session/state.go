// Package session owns the process-wide authentication state.
//
// Manager is the single owner of AuthState. It subscribes once to the
// identity provider and its subscription handler is the only code path that
// changes AuthState, the token store or the request headers. Login, Signup
// and Logout merely call the provider; the resulting provider events do the
// rest.
package session

import (
	"github.com/dmitrijs2005/gophboard/internal/client/identity"
)

// State is the coarse position of the auth state machine.
type State string

const (
	StateInitializing    State = "INITIALIZING"
	StateAuthenticated   State = "AUTHENTICATED"
	StateUnauthenticated State = "UNAUTHENTICATED"
)

// AuthState is a read-only snapshot handed to the UI.
// IsAuthenticated is true exactly when User is non-nil.
type AuthState struct {
	Status          State
	IsAuthenticated bool
	User            *identity.User
	IsLoading       bool
}

// Result is what every user-triggered operation returns. Errors never cross
// the manager boundary.
type Result struct {
	Success bool
	Message string
}

// SignupRequest carries the signup form.
type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Username  string `json:"username"`
	Fullname  string `json:"fullname"`
	AvatarURL string `json:"avatar_url"`
}

func (r SignupRequest) credentials() identity.Credentials {
	return identity.Credentials{Email: r.Email, Password: r.Password}
}

func (r SignupRequest) metadata() identity.Metadata {
	m := identity.Metadata{identity.MetaUsername: r.Username}
	if r.Fullname != "" {
		m[identity.MetaFullname] = r.Fullname
	}
	if r.AvatarURL != "" {
		m[identity.MetaAvatarURL] = r.AvatarURL
	}
	return m
}

// User-facing messages.
const (
	MsgLoginOK        = "Signed in"
	MsgSignupOK       = "Account created"
	MsgSignupConfirm  = "Account created, check your email to confirm it"
	MsgResetSent      = "If the address is registered, a password reset code has been sent"
	MsgRecoveryOK     = "Recovery code accepted, set a new password now"
	MsgPasswordOK     = "Password updated"
	MsgProfileOK      = "Profile updated"
	MsgNotSignedIn    = "You are not signed in"
	MsgUnexpectedFail = "Something went wrong, please try again"
)
