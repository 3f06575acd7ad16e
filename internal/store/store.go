package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/studiopass/internal/model"
	"github.com/jmoiron/sqlx"
)

// Store is the ledger's persistence boundary.
type Store interface {
	CreatePackage(ctx context.Context, p *model.Package) error
	GetPackage(ctx context.Context, id string) (*model.Package, error)
	GetPackageByPaymentRef(ctx context.Context, ref string) (*model.Package, error)
	ListUsablePackages(ctx context.Context, ownerID string) ([]model.Package, error)
	ListPackagesByOwner(ctx context.Context, ownerID string) ([]model.Package, error)
	DecrementRemaining(ctx context.Context, packageID string) (int64, error)
	TransitionPending(ctx context.Context, ref string, to model.PackageStatus) (int64, error)

	CreateSession(ctx context.Context, s *model.Session) error
	ListSessionsByOwner(ctx context.Context, ownerID string) ([]model.Session, error)

	RecordUnmatchedEvent(ctx context.Context, e model.UnmatchedEvent) (bool, error)
	TakeUnmatchedEvent(ctx context.Context, ref string) (*model.UnmatchedEvent, error)

	DeleteOwner(ctx context.Context, ownerID string) (model.DeleteResult, error)
	Stats(ctx context.Context, since time.Time) (StatsRow, error)

	// InTx runs fn against a Store bound to a single transaction. Nested calls
	// reuse the outer transaction.
	InTx(ctx context.Context, fn func(Store) error) error
}

// StatsRow holds the raw aggregates behind model.Stats.
type StatsRow struct {
	RevenueCents int64 `db:"revenue"`
	Owners       int   `db:"owners"`
	Sessions     int   `db:"sessions"`
}

// SQLStore implements Store on sqlx, for both sqlite and postgres.
type SQLStore struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

func New(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, q: db}
}

func (s *SQLStore) InTx(ctx context.Context, fn func(Store) error) error {
	if _, ok := s.q.(*sqlx.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&SQLStore{db: s.db, q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLStore) get(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, s.q, dest, s.q.Rebind(query), args...)
}

func (s *SQLStore) sel(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, s.q, dest, s.q.Rebind(query), args...)
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.q.ExecContext(ctx, s.q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
