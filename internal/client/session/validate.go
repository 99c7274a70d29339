package session

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dmitrijs2005/gophboard/internal/client/identity"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 72
	minUsernameLen = 2
	maxUsernameLen = 30
)

type credentialsForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func validateCredentials(c identity.Credentials) error {
	f := credentialsForm{Email: strings.TrimSpace(c.Email), Password: c.Password}
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.Email),
		validation.Field(&f.Password, validation.Required),
	)
}

func validateSignup(r SignupRequest) error {
	r.Email = strings.TrimSpace(r.Email)
	r.Username = strings.TrimSpace(r.Username)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(minPasswordLen, maxPasswordLen)),
		validation.Field(&r.Username, validation.Required, validation.Length(minUsernameLen, maxUsernameLen)),
		validation.Field(&r.Fullname, validation.Length(0, 100)),
		validation.Field(&r.AvatarURL, is.URL),
	)
}

func validateEmail(email string) error {
	if err := validation.Validate(strings.TrimSpace(email), validation.Required, is.Email); err != nil {
		return validation.Errors{"email": err}
	}
	return nil
}

func validatePassword(pw string) error {
	if err := validation.Validate(pw, validation.Required, validation.Length(minPasswordLen, maxPasswordLen)); err != nil {
		return validation.Errors{"password": err}
	}
	return nil
}

// validationMessage renders ozzo errors as one stable line.
func validationMessage(err error) string {
	var fields validation.Errors
	if !errors.As(err, &fields) {
		return err.Error()
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k].Error())
	}
	return strings.Join(parts, "; ")
}
