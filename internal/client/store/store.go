package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/reviewhub/internal/client/migrations"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/dmitrijs2005/reviewhub/internal/dbx"
	"github.com/dmitrijs2005/reviewhub/internal/filex"

	_ "modernc.org/sqlite"
)

const (
	keyPrefix       = "session."
	keyUserID       = keyPrefix + "user_id"
	keyUserName     = keyPrefix + "username"
	keyAccessToken  = keyPrefix + "access_token"
	keyRefreshToken = keyPrefix + "refresh_token"
)

// Session is what the client remembers between runs.
type Session struct {
	UserID       string
	UserName     string
	AccessToken  string
	RefreshToken string
}

type Store struct {
	db       *sql.DB
	metadata *metadataRepository
}

// Open opens (or creates) the SQLite file at path, creating its directory,
// and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	path, err := filex.EnsureParentDir(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// One connection keeps ":memory:" databases intact and serialises writers.
	db.SetMaxOpenConns(1)

	if err := dbx.Migrate(ctx, db, migrations.Migrations, "sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{db: db, metadata: &metadataRepository{db: db}}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Session returns the saved session, or common.ErrNotFound when nobody is
// logged in.
func (s *Store) Session(ctx context.Context) (*Session, error) {
	userID, err := s.metadata.get(ctx, keyUserID)
	if err != nil {
		return nil, err
	}

	sess := &Session{UserID: userID}
	for key, dst := range map[string]*string{
		keyUserName:     &sess.UserName,
		keyAccessToken:  &sess.AccessToken,
		keyRefreshToken: &sess.RefreshToken,
	} {
		v, err := s.metadata.get(ctx, key)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		*dst = v
	}
	return sess, nil
}

// SaveSession replaces the saved session atomically.
func (s *Store) SaveSession(ctx context.Context, sess Session) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		m := &metadataRepository{db: tx}
		if err := m.deletePrefix(ctx, keyPrefix); err != nil {
			return err
		}
		for key, value := range map[string]string{
			keyUserID:       sess.UserID,
			keyUserName:     sess.UserName,
			keyAccessToken:  sess.AccessToken,
			keyRefreshToken: sess.RefreshToken,
		} {
			if err := m.set(ctx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// ClearSession forgets the session. It is a no-op when none is saved.
func (s *Store) ClearSession(ctx context.Context) error {
	return s.metadata.deletePrefix(ctx, keyPrefix)
}
