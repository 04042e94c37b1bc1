package repository

import (
	"context"
	"database/sql"

	"github.com/prperemyshlev/storefront-auth/pkg/database"
)

// DBTX is the subset of database/sql used by the repositories.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repositories holds all repository interfaces
type Repositories struct {
	User         UserRepository
	Device       DeviceRepository
	SpecialToken SpecialTokenRepository
}

// NewRepositories creates all repositories over db
func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Device:       NewDeviceRepository(db),
		SpecialToken: NewSpecialTokenRepository(db),
	}
}

// Store is the Postgres credential store.
type Store struct {
	*Repositories
	db *sql.DB
}

var _ Transactor = (*Store)(nil)

// NewStore creates a store backed by the given connection pool
func NewStore(pg *database.Postgres) *Store {
	return newStore(pg.DB)
}

func newStore(db *sql.DB) *Store {
	return &Store{
		Repositories: NewRepositories(db),
		db:           db,
	}
}

// WithinTx begins a transaction, runs fn with repositories bound to it and
// commits on success or rolls back on error or panic. Panics are rethrown.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, NewRepositories(tx))
	return err
}
