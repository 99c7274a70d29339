package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophboard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/dbx"
)

// SQLiteStore keeps the session in the local metadata table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) repo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (s *SQLiteStore) Save(ctx context.Context, sess Session) error {
	repo := s.repo(s.db)
	values := map[string]string{
		common.AccessTokenKey:  sess.AccessToken,
		common.RefreshTokenKey: sess.RefreshToken,
		common.UserIDKey:       sess.UserID,
	}

	var errs []error
	for _, key := range common.SessionKeys {
		v := values[key]
		var err error
		if v == "" {
			err = repo.Delete(ctx, key)
		} else {
			err = repo.Set(ctx, key, []byte(v))
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("save session: %w", errors.Join(errs...))
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repo(tx).DeleteKeys(ctx, common.SessionKeys...)
	})
}

func (s *SQLiteStore) AccessToken(ctx context.Context) (string, error) {
	v, err := s.repo(s.db).Get(ctx, common.AccessTokenKey)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *SQLiteStore) Load(ctx context.Context) (Session, bool, error) {
	repo := s.repo(s.db)

	var raw [3][]byte
	for i, key := range common.SessionKeys {
		v, err := repo.Get(ctx, key)
		if err != nil {
			return Session{}, false, err
		}
		raw[i] = v
	}

	sess := Session{
		AccessToken:  string(raw[0]),
		RefreshToken: string(raw[1]),
		UserID:       normalizeUserID(string(raw[2])),
	}
	return sess, !sess.IsZero(), nil
}
