package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophboard/internal/client/identity"
	"github.com/dmitrijs2005/gophboard/internal/client/session"
	"github.com/dmitrijs2005/gophboard/internal/common"
)

// Interactive input indirections, swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

var errPasswordMismatch = errors.New("passwords do not match")

// report prints a successful result and turns a failed one into an error
// carrying the user-facing message.
func (a *App) report(res session.Result) error {
	if !res.Success {
		return errors.New(res.Message)
	}
	fmt.Fprintln(a.out, res.Message)
	return nil
}

func (a *App) ask(prompt string) (string, error) {
	return getSimpleText(a.reader, prompt, a.out)
}

// askNewPassword reads a password twice and returns it once both match.
func (a *App) askNewPassword() (string, error) {
	first, err := getPassword("New password", a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(first)

	second, err := getPassword("Repeat password", a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(second)

	if string(first) != string(second) {
		return "", errPasswordMismatch
	}
	return string(first), nil
}

// Signup prompts for an email, a password and the public profile, then
// registers the account.
func (a *App) Signup(ctx context.Context) error {
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	password, err := a.askNewPassword()
	if err != nil {
		return err
	}
	username, err := a.ask("Enter username")
	if err != nil {
		return err
	}
	fullname, err := a.ask("Enter full name (optional)")
	if err != nil {
		return err
	}

	return a.report(a.sessions.Signup(ctx, session.SignupRequest{
		Email:    email,
		Password: password,
		Username: username,
		Fullname: fullname,
	}))
}

// Login prompts for credentials and signs in. The password bytes are wiped
// before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res := a.sessions.Login(ctx, identity.Credentials{Email: email, Password: string(password)})
	if res.Success {
		a.logger.Info(ctx, "login successful")
	} else {
		a.logger.Info(ctx, "login unsuccessful", "reason", res.Message)
	}
	return a.report(res)
}

// Logout signs out. The local session is gone afterwards even if the server
// could not be reached.
func (a *App) Logout(ctx context.Context) error {
	a.sessions.Logout(ctx)
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) WhoAmI(context.Context) error {
	u := a.sessions.State().User
	if u == nil {
		return errors.New(session.MsgNotSignedIn)
	}
	fmt.Fprintf(a.out, "id:       %s\nemail:    %s\nusername: %s\n", u.ID, u.Email, u.Username())
	if name := u.Fullname(); name != "" {
		fmt.Fprintf(a.out, "name:     %s\n", name)
	}
	if url := u.AvatarURL(); url != "" {
		fmt.Fprintf(a.out, "avatar:   %s\n", url)
	}
	return nil
}

// Reset asks the identity service to mail a recovery code.
func (a *App) Reset(ctx context.Context) error {
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	return a.report(a.sessions.ResetPassword(ctx, email))
}

// Recover exchanges an emailed recovery code for a session and then sets a
// new password.
func (a *App) Recover(ctx context.Context) error {
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	code, err := a.ask("Enter recovery code")
	if err != nil {
		return err
	}
	if err := a.report(a.sessions.Recover(ctx, email, code)); err != nil {
		return err
	}
	return a.Passwd(ctx)
}

func (a *App) Passwd(ctx context.Context) error {
	password, err := a.askNewPassword()
	if err != nil {
		return err
	}
	return a.report(a.sessions.ChangePassword(ctx, password))
}

// Profile updates the username and full name. Blank answers keep the
// current value.
func (a *App) Profile(ctx context.Context) error {
	username, err := a.ask("New username (blank to keep)")
	if err != nil {
		return err
	}
	fullname, err := a.ask("New full name (blank to keep)")
	if err != nil {
		return err
	}

	meta := identity.Metadata{}
	if username != "" {
		meta[identity.MetaUsername] = username
	}
	if fullname != "" {
		meta[identity.MetaFullname] = fullname
	}
	if len(meta) == 0 {
		fmt.Fprintln(a.out, "Nothing to change")
		return nil
	}
	return a.report(a.sessions.UpdateProfile(ctx, meta))
}

// Avatar uploads the image at path and points the profile at it.
func (a *App) Avatar(ctx context.Context, path string) error {
	url, err := a.avatars.UploadFile(ctx, path)
	if err != nil {
		return err
	}
	a.logger.Debug(ctx, "avatar uploaded", "url", url)
	return a.report(a.sessions.UpdateProfile(ctx, identity.Metadata{identity.MetaAvatarURL: url}))
}
