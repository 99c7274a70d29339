package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/zalando/go-keyring"
)

// KeyringStore keeps the session in the OS keychain (macOS Keychain,
// Secret Service, Windows Credential Manager) under a single service name.
type KeyringStore struct {
	service string
}

func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

func (k *KeyringStore) Save(_ context.Context, sess Session) error {
	values := map[string]string{
		common.AccessTokenKey:  sess.AccessToken,
		common.RefreshTokenKey: sess.RefreshToken,
		common.UserIDKey:       sess.UserID,
	}

	var errs []error
	for _, key := range common.SessionKeys {
		v := values[key]
		if v == "" {
			if err := k.delete(key); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		if err := keyring.Set(k.service, key, v); err != nil {
			errs = append(errs, fmt.Errorf("failed to store %s: %w", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("save session: %w", errors.Join(errs...))
	}
	return nil
}

func (k *KeyringStore) Clear(_ context.Context) error {
	var errs []error
	for _, key := range common.SessionKeys {
		if err := k.delete(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (k *KeyringStore) AccessToken(_ context.Context) (string, error) {
	return k.get(common.AccessTokenKey)
}

func (k *KeyringStore) Load(_ context.Context) (Session, bool, error) {
	var sess Session
	var err error

	if sess.AccessToken, err = k.get(common.AccessTokenKey); err != nil {
		return Session{}, false, err
	}
	if sess.RefreshToken, err = k.get(common.RefreshTokenKey); err != nil {
		return Session{}, false, err
	}
	userID, err := k.get(common.UserIDKey)
	if err != nil {
		return Session{}, false, err
	}
	sess.UserID = normalizeUserID(userID)

	return sess, !sess.IsZero(), nil
}

func (k *KeyringStore) get(key string) (string, error) {
	v, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, nil
}

func (k *KeyringStore) delete(key string) error {
	err := keyring.Delete(k.service, key)
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("failed to delete %s: %w", key, err)
}
