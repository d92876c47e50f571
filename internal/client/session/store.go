// Package session persists the CLI login between runs in a local SQLite
// database kept under the configured data directory.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/authkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/authkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const (
	dbFileName = "session.db"

	keyEmail = "email"
	keyToken = "access_token"
)

// Session is the identity remembered by the CLI.
type Session struct {
	Email string
	Token string
}

// Empty reports whether no token is stored.
func (s Session) Empty() bool {
	return s.Token == ""
}

type Store struct {
	db   *sql.DB
	repo metadata.Repository
}

// NewStore wraps an already migrated repository. The caller owns its database.
func NewStore(repo metadata.Repository) *Store {
	return &Store{repo: repo}
}

// Open creates dataDir if needed, opens the session database inside it and
// brings its schema up to date.
func Open(ctx context.Context, dataDir string) (*Store, error) {
	dir, err := filex.EnsureDir(dataDir)
	if err != nil {
		return nil, err
	}

	db, err := dbx.Open(ctx, dbx.DriverSQLite, filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, repo: metadata.NewSQLiteRepository(db)}, nil
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("session migrations: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (Session, error) {
	token, err := s.repo.Get(ctx, keyToken)
	if err != nil {
		return Session{}, err
	}
	email, err := s.repo.Get(ctx, keyEmail)
	if err != nil {
		return Session{}, err
	}
	return Session{Email: string(email), Token: string(token)}, nil
}

func (s *Store) Save(ctx context.Context, sess Session) error {
	if err := s.repo.Set(ctx, keyEmail, []byte(sess.Email)); err != nil {
		return err
	}
	return s.repo.Set(ctx, keyToken, []byte(sess.Token))
}

// Clear forgets the stored session.
func (s *Store) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}

// Close releases the database opened by Open. It is a no-op for stores built
// with NewStore.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
