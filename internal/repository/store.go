package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// txStarter is satisfied by *pgxpool.Pool.
type txStarter interface {
	DBTX
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type pgStore struct {
	pool txStarter
	db   DBTX
}

// NewPostgresStore returns a Store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return newPgStore(pool)
}

func newPgStore(pool txStarter) *pgStore {
	return &pgStore{pool: pool, db: pool}
}

func (s *pgStore) Users() UserRepository         { return NewUserRepository(s.db) }
func (s *pgStore) Pets() PetRepository           { return NewPetRepository(s.db) }
func (s *pgStore) Adoptions() AdoptionRepository { return NewAdoptionRepository(s.db) }

// WithTx begins a transaction, runs fn with a transactional Store, then
// commits on success or rolls back on error or panic. Panics are rethrown.
// Nested calls reuse the outer transaction.
func (s *pgStore) WithTx(ctx context.Context, fn func(tx Store) error) (err error) {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, rbErr)
			}
			return
		}
		err = tx.Commit(ctx)
	}()

	err = fn(&pgStore{db: tx})
	return err
}
